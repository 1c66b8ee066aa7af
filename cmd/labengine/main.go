package main

import (
	"os"

	"github.com/creatorlab/labengine/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
