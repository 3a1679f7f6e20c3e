// Package config loads runtime settings from the environment. A .env file
// in the working directory is loaded automatically.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

// Environment variables read by Load.
const (
	EnvDepth       = "CHESSMIND_DEPTH"
	EnvAutoDepth   = "CHESSMIND_AUTO_DEPTH"
	EnvWorkers     = "CHESSMIND_WORKERS"
	EnvEngineColor = "CHESSMIND_ENGINE_COLOR"
	EnvLogLevel    = "CHESSMIND_LOG_LEVEL"
	EnvDataDir     = "CHESSMIND_DATA_DIR"
)

// Config is the runtime configuration of the binary.
type Config struct {
	Engine EngineConfig
	Logs   LogConfig

	// DataDir is where the database lives. Empty means the platform
	// data directory.
	DataDir string

	set map[string]bool
}

// EngineConfig controls how the engine searches and which side it plays.
type EngineConfig struct {
	Depth     int
	AutoDepth bool
	Workers   int
	Color     string // white, black, both or none
}

// LogConfig controls logging output.
type LogConfig struct {
	Level zerolog.Level
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Depth:   3,
			Workers: runtime.GOMAXPROCS(0),
			Color:   "black",
		},
		Logs: LogConfig{Level: zerolog.InfoLevel},
		set:  map[string]bool{},
	}
}

// Load reads the environment on top of Default.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return "", false
		}
		cfg.set[key] = true
		return v, true
	}

	if v, ok := get(EnvDepth); ok {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvDepth, err)
		}
		if depth < 1 {
			return nil, fmt.Errorf("%s must be at least 1, got %d", EnvDepth, depth)
		}
		cfg.Engine.Depth = depth
	}

	if v, ok := get(EnvAutoDepth); ok {
		auto, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvAutoDepth, err)
		}
		cfg.Engine.AutoDepth = auto
	}

	if v, ok := get(EnvWorkers); ok {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvWorkers, err)
		}
		if workers < 1 {
			return nil, fmt.Errorf("%s must be at least 1, got %d", EnvWorkers, workers)
		}
		cfg.Engine.Workers = workers
	}

	if v, ok := get(EnvEngineColor); ok {
		switch c := strings.ToLower(v); c {
		case "white", "black", "both", "none":
			cfg.Engine.Color = c
		default:
			return nil, fmt.Errorf("%s: unknown color %q", EnvEngineColor, v)
		}
	}

	if v, ok := get(EnvLogLevel); ok {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvLogLevel, err)
		}
		cfg.Logs.Level = level
	}

	if v, ok := get(EnvDataDir); ok {
		cfg.DataDir = v
	}

	return cfg, nil
}

// IsSet reports whether the environment provided a value for key.
func (c *Config) IsSet(key string) bool {
	return c.set[key]
}
