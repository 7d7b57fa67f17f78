// Package table provides the tabular result type returned by the
// log-analytics driver and the domain checkers.
package table

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table is an immutable tabular result: named columns plus rows of values.
type Table struct {
	columns []string
	rows    [][]any
}

// New builds a Table from column names and rows. The slices are retained,
// not copied; callers must not mutate them afterwards.
func New(columns []string, rows [][]any) *Table {
	return &Table{columns: columns, rows: rows}
}

// Columns returns the column names in result order.
func (t *Table) Columns() []string {
	return t.columns
}

// Rows returns the raw row values.
func (t *Table) Rows() [][]any {
	return t.rows
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// Render writes the table in a human-readable grid.
func (t *Table) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.columns)
	tw.SetAutoWrapText(false)
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		tw.Append(cells)
	}
	tw.Render()
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		if err := cw.Write(cells); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
