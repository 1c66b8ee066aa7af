package cli

import (
	"github.com/spf13/cobra"

	"github.com/creatorlab/labengine/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List registered Lab modules",
		Run:   runModules,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by type: text, image, video, audio, multimodal")

	RootCmd.AddCommand(cmd)
}

func runModules(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}
	defer e.Close()

	if typ != "" {
		printJSON(e.registry.ByType(model.ModuleType(typ)))
		return
	}
	printJSON(e.registry.All())
}
