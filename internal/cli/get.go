package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <execution-id>",
		Short: "Show one execution record",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	exec, err := e.executor.GetExecution(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	printJSON(exec)
}
