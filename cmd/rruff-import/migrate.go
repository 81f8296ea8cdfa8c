package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Apply the embedded schema migrations to the configured store.",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	store, release, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	slog.Info("running migrations", "driver", cfg.Store.Driver)
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	slog.Info("migrations completed successfully")
	return nil
}
