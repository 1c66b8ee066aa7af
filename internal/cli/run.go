package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creatorlab/labengine/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run <module> [content]",
		Short: "Run a Lab module",
		Long:  "Run a Lab module against user content. Content can be a positional arg or piped via stdin.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRun,
	}

	cmd.Flags().StringP("user", "u", "default", "User identifier")
	cmd.Flags().StringArrayP("opt", "o", nil, "Module option as key=value (repeatable)")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	optPairs, _ := cmd.Flags().GetStringArray("opt")

	moduleID := args[0]

	// Content: positional args first, then stdin.
	var content string
	if len(args) > 1 {
		content = strings.Join(args[1:], " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("run", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	options := map[string]any{}
	for _, pair := range optPairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			exitErr("run", fmt.Errorf("invalid --opt %q (use key=value)", pair))
		}
		options[k] = v
	}

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	// Interrupt aborts the in-flight generation.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := e.executor.Execute(ctx, moduleID, model.ModuleInput{
		UserID:  user,
		Content: strings.TrimSpace(content),
		Options: options,
	})
	if err != nil {
		exitErr("run", err)
	}

	printJSON(res)
}
