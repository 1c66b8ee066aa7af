package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	tplCmd := &cobra.Command{
		Use:   "templates",
		Short: "List or render prompt templates",
		Run:   runTemplatesList,
	}

	renderCmd := &cobra.Command{
		Use:   "render <template-id>",
		Short: "Render a template with variables",
		Args:  cobra.ExactArgs(1),
		Run:   runTemplatesRender,
	}
	renderCmd.Flags().StringArrayP("var", "v", nil, "Variable as key=value (repeatable)")

	tplCmd.AddCommand(renderCmd)
	RootCmd.AddCommand(tplCmd)
}

func runTemplatesList(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	printJSON(e.templates.List())
}

func runTemplatesRender(cmd *cobra.Command, args []string) {
	pairs, _ := cmd.Flags().GetStringArray("var")

	vars := map[string]string{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			exitErr("render", fmt.Errorf("invalid --var %q (use key=value)", pair))
		}
		vars[k] = v
	}

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	out, err := e.templates.Render(args[0], vars)
	if err != nil {
		exitErr("render", err)
	}
	fmt.Println(out)
}
