// Package config loads engine configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for knobs that are rarely overridden.
const (
	DefaultMemoryWindow  = 50
	DefaultContextBudget = 4000
	DefaultTextModel     = "gemini-2.0-flash"
	DefaultImageModel    = "imagen-3.0-generate-002"
	DefaultVideoModel    = "veo-2.0-generate-001"
)

// Config holds runtime configuration for the engine.
type Config struct {
	DBPath        string
	APIKey        string
	TextModel     string
	ImageModel    string
	VideoModel    string
	MemoryWindow  int // max messages kept per (user, module)
	ContextBudget int // max chars of flattened context injected per call
	CatalogPath   string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present; a missing file is not an error.
func Load() Config {
	_ = godotenv.Load()

	c := Config{
		DBPath:        os.Getenv("LABENGINE_DB"),
		APIKey:        os.Getenv("GEMINI_API_KEY"),
		TextModel:     envOr("LABENGINE_TEXT_MODEL", DefaultTextModel),
		ImageModel:    envOr("LABENGINE_IMAGE_MODEL", DefaultImageModel),
		VideoModel:    envOr("LABENGINE_VIDEO_MODEL", DefaultVideoModel),
		MemoryWindow:  envInt("LABENGINE_MEMORY_WINDOW", DefaultMemoryWindow),
		ContextBudget: envInt("LABENGINE_CONTEXT_BUDGET", DefaultContextBudget),
		CatalogPath:   os.Getenv("LABENGINE_CATALOG"),
	}

	if c.DBPath == "" {
		home, _ := os.UserHomeDir()
		c.DBPath = filepath.Join(home, ".labengine", "engine.db")
	}

	return c
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
