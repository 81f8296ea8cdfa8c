package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mineralkb/internal/config"
	"github.com/JonMunkholm/mineralkb/internal/core"
	"github.com/JonMunkholm/mineralkb/internal/core/datasets"
	"github.com/JonMunkholm/mineralkb/internal/source"
)

var (
	importMigrate  bool
	importQuiet    bool
	importMaxShown int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Download and import the RRUFF datasets",
	Long:  "Fetch the configured RRUFF mineral list and spectra archives into the scratch directory, then validate and upsert every record. Exits non-zero only when the run fails as a whole.",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importMigrate, "migrate", true, "Apply schema migrations before importing")
	importCmd.Flags().BoolVarP(&importQuiet, "quiet", "q", false, "Do not print progress")
	importCmd.Flags().IntVar(&importMaxShown, "max-errors", 50, "Maximum number of record errors to print (0 prints all)")
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Import.Timeout)
		defer cancel()
	}

	defs := core.All()
	slog.Info("datasets registered", "count", len(defs))
	for _, def := range defs {
		slog.Debug("dataset", "key", def.Key, "label", def.Label, "kind", def.Kind)
	}

	store, release, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	if importMigrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	opts := []core.Option{}
	if !importQuiet {
		opts = append(opts, core.WithProgress(progressPrinter(out)))
	}

	im, err := core.NewImporter(importerConfig(cfg), source.New(cfg.Source), store, opts...)
	if err != nil {
		return err
	}

	result, err := im.Run(ctx)
	if err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s\n", core.FormatUserError(err))
		}
		return fmt.Errorf("import failed: %w", err)
	}

	printSummary(out, result, importMaxShown)
	return nil
}

// importerConfig maps configuration onto the importer's dataset list: the
// mineral list first, then each spectra archive.
func importerConfig(cfg *config.Config) core.ImporterConfig {
	var sources []core.DatasetSource
	if cfg.Source.MineralsURL != "" {
		sources = append(sources, core.DatasetSource{Key: datasets.MineralsKey, URL: cfg.Source.MineralsURL})
	}
	for _, u := range cfg.Source.SpectraURLs {
		sources = append(sources, core.DatasetSource{Key: datasets.SpectraKey, URL: u})
	}
	return core.ImporterConfig{
		ScratchDir:    cfg.Import.ScratchDir,
		Datasets:      sources,
		ProgressEvery: cfg.Import.ProgressEvery,
	}
}

func progressPrinter(w io.Writer) core.ProgressFunc {
	return func(p core.Progress) {
		switch p.Phase {
		case core.PhaseFetching:
			if p.Bytes > 0 {
				fmt.Fprintf(w, "Fetched %s (%d bytes)\n", p.Dataset, p.Bytes)
			} else {
				fmt.Fprintf(w, "Fetching %s...\n", p.Dataset)
			}
		case core.PhaseParsing:
			fmt.Fprintf(w, "Parsing %s...\n", p.Dataset)
		case core.PhaseImporting:
			if p.Total > 0 {
				fmt.Fprintf(w, "Importing %s: %d/%d (minerals=%d spectra=%d errors=%d)\n",
					p.Dataset, p.Processed, p.Total, p.Minerals, p.Spectra, p.Errors)
			}
		case core.PhaseFailed:
			fmt.Fprintf(w, "Import failed: %s\n", p.Error)
		}
	}
}

func printSummary(w io.Writer, r *core.ImportResult, maxErrors int) {
	fmt.Fprintln(w, "Import complete")
	fmt.Fprintf(w, "  Run:      %s\n", r.RunID)
	fmt.Fprintf(w, "  Minerals: %d\n", r.MineralsCount)
	fmt.Fprintf(w, "  Spectra:  %d\n", r.SpectraCount)
	fmt.Fprintf(w, "  Errors:   %d\n", len(r.Errors))

	shown := r.Errors
	if maxErrors > 0 && len(shown) > maxErrors {
		shown = shown[:maxErrors]
	}
	for _, e := range shown {
		fmt.Fprintf(w, "    - %s\n", e)
	}
	if len(shown) < len(r.Errors) {
		fmt.Fprintf(w, "    ... and %d more\n", len(r.Errors)-len(shown))
	}

	fmt.Fprintf(w, "  Started:  %s\n", r.StartTime.Format(time.RFC3339))
	fmt.Fprintf(w, "  Finished: %s\n", r.EndTime.Format(time.RFC3339))
	fmt.Fprintf(w, "  Duration: %.2fs\n", r.Duration().Seconds())
}
