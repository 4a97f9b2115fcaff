// main.go
//
// arc-engine serves the ARC-AGI-3 REST API and manages its level catalog.
//
// Usage:
//
//	arc-engine [serve]          - Start the HTTP server (default)
//	arc-engine games            - List the games the level source provides
//	arc-engine import-levels    - Copy a JSON level tree into a SQLite catalog
//
// Global flags override the matching environment variables:
//
//	--port <n>        - PORT
//	--data-dir <dir>  - GAME_DATA_DIR
//	--db <path>       - LEVELS_DB
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/config"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/engine"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/httpserver"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/levels"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/scorecard"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/store"
)

var (
	flagPort    string
	flagDataDir string
	flagDBPath  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "arc-engine",
	Short:         "ARC-AGI-3 game engine server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPort, "port", "", "Listen port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "JSON level tree (overrides GAME_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite level catalog (overrides LEVELS_DB)")

	rootCmd.AddCommand(serveCmd, gamesCmd, importCmd)
}

// loadConfig reads .env and the environment, applies flag overrides and sets
// the global log level.
func loadConfig() config.Config {
	_ = godotenv.Load()
	cfg := config.Load()
	if flagPort != "" {
		cfg.Port = flagPort
	}
	if flagDataDir != "" {
		cfg.GameDataDir = flagDataDir
	}
	if flagDBPath != "" {
		cfg.LevelsDB = flagDBPath
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	return cfg
}

// openLevels selects the SQLite catalog when a DB path is configured and the
// JSON tree otherwise, then layers the cache and default rule on top.
func openLevels(cfg config.Config) (levels.Provider, *levels.Cache, io.Closer, error) {
	var (
		src    levels.Provider
		closer io.Closer = io.NopCloser(nil)
	)
	if cfg.LevelsDB != "" {
		db, err := levels.OpenSQLite(cfg.LevelsDB)
		if err != nil {
			return nil, nil, nil, err
		}
		src, closer = db, db
		log.Info().Str("db", cfg.LevelsDB).Msg("using sqlite level catalog")
	} else {
		src = levels.NewDirProvider(cfg.GameDataDir)
		log.Info().Str("dir", cfg.GameDataDir).Msg("using level directory")
	}

	cache := levels.NewCache(src, cfg.LevelCacheTTL)
	p := levels.Provider(cache)
	if len(cfg.DefaultRuleGames) > 0 {
		rule, err := levels.DefaultRule()
		if err != nil {
			_ = closer.Close()
			return nil, nil, nil, err
		}
		p = levels.WithDefaultRule(p, rule, cfg.DefaultRuleGames)
	}
	return p, cache, closer, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	lp, cache, closer, err := openLevels(cfg)
	if err != nil {
		return fmt.Errorf("open levels: %w", err)
	}
	defer closer.Close()

	// SIGHUP reloads level data without a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for range hup {
			cache.Invalidate()
			log.Info().Msg("level cache cleared")
		}
	}()

	eng := engine.New(
		store.NewMemoryStore(),
		scorecard.NewAggregator(scorecard.NewMemoryStore()),
		lp,
		engine.Config{WinScore: cfg.WinScore},
	)
	srv := httpserver.New(eng, cfg)

	log.Info().Str("port", cfg.Port).Int("win_score", cfg.WinScore).Dur("level_cache_ttl", cfg.LevelCacheTTL).
		Strs("default_rule_games", cfg.DefaultRuleGames).Msg("starting arc-engine")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	return nil
}
