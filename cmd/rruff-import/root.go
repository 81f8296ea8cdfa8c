package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mineralkb/internal/config"
	"github.com/JonMunkholm/mineralkb/internal/core"
	"github.com/JonMunkholm/mineralkb/internal/logging"
	"github.com/JonMunkholm/mineralkb/internal/store/postgres"
	"github.com/JonMunkholm/mineralkb/internal/store/sqlite"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "rruff-import",
	Short:         "Import RRUFF minerals and spectra",
	Long:          `Download the RRUFF IMA mineral list and spectra archives, validate every record and upsert them into the mineral knowledge base.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.AddCommand(importCmd, migrateCmd, runsCmd, crystalClassCmd)
}

// loadConfig loads the env file (overwriting existing env vars), then the
// configuration, and sets up logging.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Overload(envFile); err != nil {
		slog.Debug("no env file loaded, using environment variables", "path", envFile)
	} else {
		slog.Debug("loaded env file (overwriting existing env vars)", "path", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

// sinkStore is a core.Sink with a schema, a run history and a lifetime.
type sinkStore interface {
	core.Sink
	core.RunRecorder
	Migrate(ctx context.Context) error
	ListRuns(ctx context.Context, limit int) ([]core.ImportResult, error)
	CountRecords(ctx context.Context) (minerals, spectra int64, err error)
}

// openStore opens the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (sinkStore, func(), error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		s := postgres.New(pool)
		return s, s.Close, nil

	case "sqlite":
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("failed to close sqlite store", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
