// Package cli implements the labengine CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/creatorlab/labengine/internal/config"
	"github.com/creatorlab/labengine/internal/executor"
	"github.com/creatorlab/labengine/internal/logging"
	"github.com/creatorlab/labengine/internal/memory"
	"github.com/creatorlab/labengine/internal/modules"
	"github.com/creatorlab/labengine/internal/provider"
	"github.com/creatorlab/labengine/internal/registry"
	"github.com/creatorlab/labengine/internal/store"
	"github.com/creatorlab/labengine/internal/template"
)

var (
	dbPath   string
	logLevel string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "labengine",
	Short: "AI module orchestration engine for creator Labs",
	Long:  "Runs named Lab modules against a generative backend with per-user conversational memory and a durable execution history. SQLite-backed, single binary.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Configure(logLevel)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $LABENGINE_DB or ~/.labengine/engine.db)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// engine bundles the wired components behind the CLI commands.
type engine struct {
	cfg       config.Config
	store     *store.SQLiteStore
	registry  *registry.Registry
	templates *template.Service
	memory    *memory.Service
	executor  *executor.Executor
}

func (e *engine) Close() {
	e.store.Close()
}

// openEngine wires the full engine: store, registry, templates, memory,
// provider, executor, built-in labs, and the optional YAML catalog.
func openEngine() (*engine, error) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := registry.New()
	ts := template.NewService()
	mem := memory.NewService(s, cfg.MemoryWindow)
	gen := provider.NewGemini(cfg.APIKey,
		provider.WithTextModel(cfg.TextModel),
		provider.WithImageModel(cfg.ImageModel),
		provider.WithVideoModel(cfg.VideoModel),
	)

	modules.RegisterBuiltins(reg, ts, gen)
	if cfg.CatalogPath != "" {
		catalog, err := modules.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		catalog.Register(reg, ts, gen)
	}

	return &engine{
		cfg:       cfg,
		store:     s,
		registry:  reg,
		templates: ts,
		memory:    mem,
		executor:  executor.New(reg, mem, s, cfg.ContextBudget),
	}, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
