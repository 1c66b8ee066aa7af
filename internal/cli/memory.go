package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	memCmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear conversational memory",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored context for a (user, module) pair",
		Run:   runMemoryShow,
	}
	showCmd.Flags().StringP("user", "u", "default", "User identifier")
	showCmd.Flags().StringP("module", "m", "", "Module id (required)")
	showCmd.Flags().IntP("limit", "l", 0, "Only the most recent N messages")
	showCmd.MarkFlagRequired("module")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored context for a (user, module) pair",
		Run:   runMemoryClear,
	}
	clearCmd.Flags().StringP("user", "u", "default", "User identifier")
	clearCmd.Flags().StringP("module", "m", "", "Module id (required)")
	clearCmd.MarkFlagRequired("module")

	metaCmd := &cobra.Command{
		Use:   "set-meta <key> <value>",
		Short: "Set one metadata key on a (user, module) context",
		Args:  cobra.ExactArgs(2),
		Run:   runMemorySetMeta,
	}
	metaCmd.Flags().StringP("user", "u", "default", "User identifier")
	metaCmd.Flags().StringP("module", "m", "", "Module id (required)")
	metaCmd.MarkFlagRequired("module")

	memCmd.AddCommand(showCmd, clearCmd, metaCmd)
	RootCmd.AddCommand(memCmd)
}

func runMemoryShow(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	module, _ := cmd.Flags().GetString("module")
	limit, _ := cmd.Flags().GetInt("limit")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	if limit > 0 {
		msgs, err := e.memory.RecentMessages(cmd.Context(), user, module, limit)
		if err != nil {
			exitErr("memory show", err)
		}
		printJSON(msgs)
		return
	}

	mc, err := e.memory.GetContext(cmd.Context(), user, module)
	if err != nil {
		exitErr("memory show", err)
	}
	printJSON(mc)
}

func runMemoryClear(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	module, _ := cmd.Flags().GetString("module")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	if err := e.memory.ClearContext(cmd.Context(), user, module); err != nil {
		exitErr("memory clear", err)
	}
	printJSON(map[string]string{"status": "cleared", "user": user, "module": module})
}

func runMemorySetMeta(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	module, _ := cmd.Flags().GetString("module")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	if err := e.memory.SetMetadata(cmd.Context(), user, module, args[0], args[1]); err != nil {
		exitErr("memory set-meta", err)
	}
	printJSON(map[string]string{"status": "ok", args[0]: args[1]})
}
