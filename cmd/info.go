package cmd

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huntgrid/huntkit/internal/azmon"
)

var infoFlags struct {
	schema    bool
	workspace string
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configured workspaces and toolkit paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "huntkit configuration")
		fmt.Fprintln(out, "=====================")
		fmt.Fprintf(out, "Platform:           %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Config file:        %s\n", configFileInUse())
		fmt.Fprintf(out, "Results directory:  %s\n", resultsDir)
		if dataDir, err := getDataDir(); err == nil {
			fmt.Fprintf(out, "Data directory:     %s\n", dataDir)
		}
		fmt.Fprintln(out)

		names := workspaceNames()
		if len(names) == 0 {
			fmt.Fprintln(out, "No workspaces configured.")
			fmt.Fprintln(out, "Add them to the settings file under workspaces.<name>.workspace_id / tenant_id.")
			return nil
		}

		defName := ""
		if def, ok := settings.DefaultWorkspace(); ok {
			defName = def.Name
		}
		fmt.Fprintln(out, "Workspaces:")
		for _, name := range names {
			entry, _ := settings.Workspace(name)
			marker := " "
			if name == defName {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %-20s workspace_id=%s tenant_id=%s\n",
				marker, name, entry.WorkspaceID, entry.TenantID)
		}

		if !infoFlags.schema {
			return nil
		}
		return printWorkspaceSchema(cmd)
	},
}

// printWorkspaceSchema connects to the selected (or default) workspace and
// reports its table inventory.
func printWorkspaceSchema(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	driver := azmon.NewDriver(azmon.Options{Logger: logger, Settings: settings})
	err := driver.Connect(cmd.Context(), azmon.ConnectOptions{Workspace: infoFlags.workspace})
	if err != nil {
		return err
	}

	schema := driver.Schema()
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(out, "Connected to %s\n", driver.CurrentConnection())
	tables := schema.Tables()
	if len(tables) == 0 {
		fmt.Fprintln(out, "No schema available (insufficient settings or permissions).")
		return nil
	}
	fmt.Fprintf(out, "Schema: %d table(s)\n", len(tables))
	for _, name := range tables {
		fmt.Fprintf(out, "  %-40s %d column(s)\n", name, len(schema.Columns(name)))
	}
	return nil
}

func workspaceNames() []string {
	raw := viper.GetStringMap("workspaces")
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func configFileInUse() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "~/.huntkit.yaml (not found, using defaults)"
}

func init() {
	infoCmd.Flags().BoolVar(&infoFlags.schema, "schema", false, "connect and list workspace schema tables")
	infoCmd.Flags().StringVarP(&infoFlags.workspace, "workspace", "w", "", "workspace to inspect with --schema")
}
