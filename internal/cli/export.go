package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export execution history as JSON",
		Run:   runExport,
	}

	cmd.Flags().StringP("user", "u", "", "Only this user's executions")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	rows, err := e.store.ExportExecutions(cmd.Context(), user)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(rows)
}
