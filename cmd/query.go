package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/huntgrid/huntkit/internal/azmon"
	"github.com/huntgrid/huntkit/internal/table"
)

var queryFlags struct {
	connectionString string
	workspace        string
	workspaces       []string
	workspaceIDs     []string
	tenantID         string
	authMethods      []string
	timeoutSecs      int
	failOnPartial    bool
	skipSchema       bool
	start            string
	end              string
	sourceTable      string
	queryFile        string
	csvOut           bool
}

var queryCmd = &cobra.Command{
	Use:   "query [kql]",
	Short: "Run a KQL query against a Log Analytics workspace",
	Long: `Connect to one or more Log Analytics workspaces and run a KQL query.

The workspace is resolved, in priority order, from --workspaces,
--workspace-ids (with --tenant), --workspace, --connection-string, then
the default workspace in the settings file. Results render as a table or
save as CSV into the results directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := queryText(args)
		if err != nil {
			return err
		}

		driver := azmon.NewDriver(azmon.Options{
			Logger:        logger,
			Settings:      settings,
			FailOnPartial: queryFlags.failOnPartial,
			SkipSchema:    queryFlags.skipSchema,
		})

		connectOpts := azmon.ConnectOptions{
			ConnectionString: queryFlags.connectionString,
			Workspace:        queryFlags.workspace,
			Workspaces:       queryFlags.workspaces,
			WorkspaceIDs:     queryFlags.workspaceIDs,
			TenantID:         queryFlags.tenantID,
			AuthMethods:      queryFlags.authMethods,
		}
		if queryFlags.timeoutSecs > 0 {
			connectOpts.Timeout = time.Duration(queryFlags.timeoutSecs) * time.Second
		}
		if err := driver.Connect(cmd.Context(), connectOpts); err != nil {
			return err
		}
		logger.Infow("connected", "connection", driver.CurrentConnection())

		queryOpts := azmon.QueryOptions{}
		if queryFlags.start != "" || queryFlags.end != "" {
			span, err := parseTimeSpan(queryFlags.start, queryFlags.end)
			if err != nil {
				return err
			}
			queryOpts.TimeSpan = span
		}

		var source *azmon.QuerySource
		if queryFlags.sourceTable != "" {
			source = &azmon.QuerySource{Name: "cli", Table: queryFlags.sourceTable}
		}
		if source != nil {
			// Query validates the source table against the schema first.
			result, err := driver.Query(cmd.Context(), query, source, queryOpts)
			if err != nil {
				return err
			}
			return renderQueryResult(cmd, result)
		}

		tbl, status, err := driver.QueryWithResults(cmd.Context(), query, queryOpts)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Status: %s (%d result table(s))\n",
			formatStatusWithColor(status.Status), status.Tables)
		if tbl == nil {
			return nil
		}
		return writeTable(cmd, tbl)
	},
}

func queryText(args []string) (string, error) {
	if queryFlags.queryFile != "" {
		data, err := os.ReadFile(queryFlags.queryFile)
		if err != nil {
			return "", fmt.Errorf("read query file: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", fmt.Errorf("no query given: pass KQL as an argument or use --file")
}

// parseTimeSpan accepts RFC 3339 or date-only bounds.
func parseTimeSpan(start, end string) (*azmon.TimeSpan, error) {
	parse := func(value string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", value)
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("--start and --end must be given together")
	}
	s, err := parse(start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start %q: %w", start, err)
	}
	e, err := parse(end)
	if err != nil {
		return nil, fmt.Errorf("invalid --end %q: %w", end, err)
	}
	return &azmon.TimeSpan{Start: s, End: e}, nil
}

// renderQueryResult handles Query's result: a result table, or the raw
// service response when the outcome could not be classified.
func renderQueryResult(cmd *cobra.Command, result any) error {
	switch v := result.(type) {
	case nil:
		fmt.Fprintln(cmd.OutOrStdout(), "query returned no result tables")
		return nil
	case *table.Table:
		return writeTable(cmd, v)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", v)
		return nil
	}
}

// writeTable renders to stdout, or saves CSV into the results directory
// when --csv is set.
func writeTable(cmd *cobra.Command, tbl *table.Table) error {
	if !queryFlags.csvOut {
		tbl.Render(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "%d row(s)\n", tbl.RowCount())
		return nil
	}

	path := resultFilePath("query", "csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()
	if err := tbl.WriteCSV(f); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d row(s) to %s\n", tbl.RowCount(), path)
	return nil
}

func init() {
	queryCmd.Flags().StringVarP(&queryFlags.connectionString, "connection-string", "c", "", "connection string, e.g. loganalytics://workspace('id').tenant('id')")
	queryCmd.Flags().StringVarP(&queryFlags.workspace, "workspace", "w", "", "named workspace from the settings file")
	queryCmd.Flags().StringSliceVar(&queryFlags.workspaces, "workspaces", nil, "named workspaces for a multi-workspace query (must share a tenant)")
	queryCmd.Flags().StringSliceVar(&queryFlags.workspaceIDs, "workspace-ids", nil, "raw workspace GUIDs (requires --tenant)")
	queryCmd.Flags().StringVar(&queryFlags.tenantID, "tenant", "", "tenant GUID for --workspace-ids")
	queryCmd.Flags().StringSliceVar(&queryFlags.authMethods, "auth-methods", nil, "credential chain: env, cli, msi, devicecode")
	queryCmd.Flags().IntVar(&queryFlags.timeoutSecs, "timeout", 0, "query timeout in seconds")
	queryCmd.Flags().BoolVar(&queryFlags.failOnPartial, "fail-on-partial", false, "treat partial results as an error")
	queryCmd.Flags().BoolVar(&queryFlags.skipSchema, "skip-schema", false, "skip the workspace schema fetch on connect")
	queryCmd.Flags().StringVar(&queryFlags.start, "start", "", "query window start (RFC 3339 or YYYY-MM-DD)")
	queryCmd.Flags().StringVar(&queryFlags.end, "end", "", "query window end (RFC 3339 or YYYY-MM-DD)")
	queryCmd.Flags().StringVar(&queryFlags.sourceTable, "source-table", "", "validate this table exists in the workspace schema before dispatch")
	queryCmd.Flags().StringVarP(&queryFlags.queryFile, "file", "f", "", "read the KQL query from a file")
	queryCmd.Flags().BoolVar(&queryFlags.csvOut, "csv", false, "save results as CSV in the results directory instead of rendering")
}
