package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mineralkb/internal/core"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent import runs",
	Long:  "Print the stored record counts and the most recent import runs recorded by the configured store, newest first.",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "Number of runs to show")
}

func runRuns(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runsLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", runsLimit)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	store, release, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	minerals, spectra, err := store.CountRecords(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	runs, err := store.ListRuns(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	printRuns(cmd.OutOrStdout(), minerals, spectra, runs)
	return nil
}

func printRuns(w io.Writer, minerals, spectra int64, runs []core.ImportResult) {
	fmt.Fprintf(w, "Stored: %d minerals, %d spectra\n", minerals, spectra)
	if len(runs) == 0 {
		fmt.Fprintln(w, "No import runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  minerals=%d spectra=%d errors=%d  %.2fs\n",
			r.RunID, r.StartTime.Format(time.RFC3339),
			r.MineralsCount, r.SpectraCount, len(r.Errors), r.Duration().Seconds())
	}
}
