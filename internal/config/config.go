// Package config loads runtime settings from the environment.
//
// Settings come from process environment variables, optionally seeded from
// a .env file in the working directory. Command-line flags override
// whatever is loaded here.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/litescope/litescope/core/cache"
	"github.com/litescope/litescope/core/schema"
)

// Environment variable names.
const (
	EnvLogLevel    = "LITESCOPE_LOG_LEVEL"
	EnvLogFormat   = "LITESCOPE_LOG_FORMAT"
	EnvMaxCells    = "LITESCOPE_MAX_CELLS"
	EnvCacheBlocks = "LITESCOPE_CACHE_BLOCKS"
)

// Config carries the runtime settings of one invocation.
type Config struct {
	LogLevel    string
	LogFormat   string
	MaxCells    int
	CacheBlocks int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:    "info",
		LogFormat:   "text",
		MaxCells:    schema.DefaultMaxCells,
		CacheBlocks: cache.DefaultConfig().MaxSize,
	}
}

// Load reads settings from the environment, seeding it from a .env file
// when one exists. Unset or unparseable variables keep their defaults.
func Load() Config {
	// godotenv never overrides variables that are already set, so the
	// explicit environment wins over .env contents.
	_ = godotenv.Load(".env")

	cfg := Default()
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	cfg.MaxCells = intEnv(EnvMaxCells, cfg.MaxCells)
	cfg.CacheBlocks = intEnv(EnvCacheBlocks, cfg.CacheBlocks)
	return cfg
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
