package table

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableAccessors(t *testing.T) {
	tbl := New([]string{"TimeGenerated", "AlertName"}, [][]any{
		{"2026-01-01T00:00:00Z", "Suspicious sign-in"},
		{"2026-01-02T00:00:00Z", "Malware detected"},
	})

	if got := tbl.RowCount(); got != 2 {
		t.Errorf("RowCount() = %d, want 2", got)
	}
	if got := len(tbl.Columns()); got != 2 {
		t.Errorf("len(Columns()) = %d, want 2", got)
	}
	if tbl.Columns()[1] != "AlertName" {
		t.Errorf("Columns()[1] = %q, want AlertName", tbl.Columns()[1])
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := New([]string{"Host", "Count"}, [][]any{
		{"web01", 3},
		{"web02", nil},
	})

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 csv lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Host,Count" {
		t.Errorf("header = %q, want Host,Count", lines[0])
	}
	if lines[1] != "web01,3" {
		t.Errorf("row 1 = %q, want web01,3", lines[1])
	}
	if lines[2] != "web02," {
		t.Errorf("nil cell should render empty, got %q", lines[2])
	}
}

func TestRenderIncludesHeaderAndRows(t *testing.T) {
	tbl := New([]string{"Domain"}, [][]any{{"example.com"}})

	var buf bytes.Buffer
	tbl.Render(&buf)

	out := buf.String()
	if !strings.Contains(strings.ToUpper(out), "DOMAIN") {
		t.Errorf("rendered output missing header: %q", out)
	}
	if !strings.Contains(out, "example.com") {
		t.Errorf("rendered output missing row value: %q", out)
	}
}
