package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creatorlab/labengine/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent executions",
		Run:   runHistory,
	}

	cmd.Flags().StringP("user", "u", "default", "User identifier")
	cmd.Flags().StringP("module", "m", "", "Filter by module id")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().StringP("query", "q", "", "Substring search over stored inputs and outputs")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	module, _ := cmd.Flags().GetString("module")
	limit, _ := cmd.Flags().GetInt("limit")
	query, _ := cmd.Flags().GetString("query")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	if query != "" {
		rows, err := e.store.SearchExecutions(cmd.Context(), store.SearchExecutionsParams{
			UserID: user,
			Query:  query,
			Limit:  limit,
		})
		if err != nil {
			exitErr("history", err)
		}
		printJSON(rows)
		return
	}

	rows, err := e.executor.History(cmd.Context(), user, module, limit)
	if err != nil {
		exitErr("history", err)
	}
	printJSON(rows)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
