package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/config"
	"github.com/hailam/chessmind/internal/console"
	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/storage"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	depth       = flag.Int("depth", 0, "search depth (0 keeps the saved preference)")
	autoDepth   = flag.Bool("auto-depth", false, "pick the depth from the number of legal moves")
	engineColor = flag.String("engine", "", "side the engine plays: white, black, both or none")
	workers     = flag.Int("workers", 0, "root moves searched in parallel (0 uses the config)")
	dataDir     = flag.String("data", "", "data directory (default platform data dir)")
	noStore     = flag.Bool("no-store", false, "do not open the database")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.SetGlobalLevel(cfg.Logs.Level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	var store *storage.Storage
	prefs := storage.DefaultPreferences()
	if !*noStore {
		dir := cfg.DataDir
		if *dataDir != "" {
			dir = *dataDir
		}
		store, err = storage.Open(dir)
		if err != nil {
			log.Warn().Err(err).Msg("storage unavailable, continuing without it")
		} else {
			defer store.Close()
			if prefs, err = store.LoadPreferences(); err != nil {
				log.Warn().Err(err).Msg("could not load preferences")
			}
		}
	}

	if err := applySettings(cfg, prefs); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}
	n := cfg.Engine.Workers
	if *workers > 0 {
		n = *workers
	}

	eng := engine.New(log.Logger, engine.WithWorkers(n))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := console.New(os.Stdin, os.Stdout, eng, store, prefs)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("console stopped")
	}
}

// applySettings layers environment values and then explicit flags over
// the saved preferences.
func applySettings(cfg *config.Config, prefs *storage.UserPreferences) error {
	if cfg.IsSet(config.EnvDepth) {
		prefs.Depth = cfg.Engine.Depth
	}
	if cfg.IsSet(config.EnvAutoDepth) {
		prefs.AutoDepth = cfg.Engine.AutoDepth
	}
	if cfg.IsSet(config.EnvEngineColor) {
		prefs.EngineColor = storage.EngineColor(cfg.Engine.Color)
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "depth":
			if *depth > 0 {
				prefs.Depth = *depth
				prefs.AutoDepth = false
			}
		case "auto-depth":
			prefs.AutoDepth = *autoDepth
		case "engine":
			var c storage.EngineColor
			if c, err = storage.ParseEngineColor(*engineColor); err == nil {
				prefs.EngineColor = c
			}
		}
	})
	return err
}
