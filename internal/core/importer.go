package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/mineralkb/internal/logging"
)

// ContextCheckInterval is how often (in candidates) to check for cancellation.
var ContextCheckInterval = 100

// DefaultProgressEvery is used when ImporterConfig.ProgressEvery is unset.
const DefaultProgressEvery = 500

// Fetcher copies the dataset at rawURL into w and returns the byte count.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// DatasetSource pairs a registered dataset key with the location to fetch it from.
type DatasetSource struct {
	Key string
	URL string
}

// ImporterConfig holds the inputs of an import run.
type ImporterConfig struct {
	ScratchDir    string
	Datasets      []DatasetSource
	ProgressEvery int
}

// Importer downloads, parses and persists datasets into a Sink.
// An Importer may be reused; a Run started while another is in flight
// fails with ErrRunInProgress.
type Importer struct {
	cfg      ImporterConfig
	fetcher  Fetcher
	sink     Sink
	progress ProgressFunc
	now      func() time.Time
	guard    *runGuard
}

// Option customizes an Importer.
type Option func(*Importer)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(im *Importer) { im.progress = fn }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// NewImporter validates cfg against the dataset registry.
func NewImporter(cfg ImporterConfig, fetcher Fetcher, sink Sink, opts ...Option) (*Importer, error) {
	if fetcher == nil {
		return nil, errors.New("importer: fetcher is required")
	}
	if sink == nil {
		return nil, errors.New("importer: sink is required")
	}
	for _, ds := range cfg.Datasets {
		if _, ok := Get(ds.Key); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, ds.Key)
		}
		if ds.URL == "" {
			return nil, fmt.Errorf("importer: dataset %s has no URL", ds.Key)
		}
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}

	im := &Importer{
		cfg:     cfg,
		fetcher: fetcher,
		sink:    sink,
		now:     time.Now,
		guard:   newRunGuard(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im, nil
}

// Run performs one import: acquire the scratch directory, fetch every
// dataset, then parse and persist each dataset's candidates in order.
//
// Run returns an error only for fatal conditions (scratch directory,
// unreachable source, unreadable dataset, cancellation) and no result in
// that case. A candidate that fails to parse, validate or persist becomes
// one entry in ImportResult.Errors and the run continues.
func (im *Importer) Run(ctx context.Context) (*ImportResult, error) {
	if !im.guard.TryAcquire() {
		return nil, ErrRunInProgress
	}
	defer im.guard.Release()

	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.FromContext(ctx)

	scratch, err := AcquireScratch(im.cfg.ScratchDir)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		RunID:     runID,
		Errors:    []string{},
		StartTime: im.now(),
	}
	im.notify(Progress{RunID: runID, Phase: PhaseStarting})
	logger.Info("import started", "datasets", len(im.cfg.Datasets), "scratch_dir", scratch.Dir)

	abort := func(err error) (*ImportResult, error) {
		end := im.now()
		logger.Error("import aborted",
			"error", err,
			"minerals", result.MineralsCount,
			"spectra", result.SpectraCount,
			"errors", len(result.Errors),
			"elapsed", end.Sub(result.StartTime),
		)
		im.notify(Progress{RunID: runID, Phase: PhaseFailed, Error: err.Error()})
		return nil, err
	}

	// 1. Fetch everything before touching the sink
	paths := make([]string, len(im.cfg.Datasets))
	for i, ds := range im.cfg.Datasets {
		if err := ctx.Err(); err != nil {
			return abort(fmt.Errorf("import cancelled: %w", err))
		}
		p, err := im.fetch(ctx, scratch, i, ds)
		if err != nil {
			return abort(err)
		}
		paths[i] = p
	}

	// 2. Parse and persist dataset by dataset
	for i, ds := range im.cfg.Datasets {
		def, _ := Get(ds.Key)

		im.notify(Progress{RunID: runID, Phase: PhaseParsing, Dataset: ds.Key})
		candidates, err := def.Parse(ctx, paths[i])
		if err != nil {
			if ctx.Err() != nil {
				return abort(fmt.Errorf("import cancelled: %w", ctx.Err()))
			}
			return abort(fmt.Errorf("%w: %s (%s): %w", ErrParse, ds.Key, filepath.Base(paths[i]), err))
		}
		logger.Info("dataset parsed", "dataset", ds.Key, "candidates", len(candidates))

		if err := im.importCandidates(ctx, def, candidates, result); err != nil {
			return abort(err)
		}
	}

	result.EndTime = im.now()
	if result.EndTime.Before(result.StartTime) {
		result.EndTime = result.StartTime
	}

	if rec, ok := im.sink.(RunRecorder); ok {
		if err := rec.RecordRun(ctx, *result); err != nil {
			logger.Warn("failed to record import run", "error", err)
		}
	}

	im.notify(Progress{
		RunID:    runID,
		Phase:    PhaseComplete,
		Minerals: result.MineralsCount,
		Spectra:  result.SpectraCount,
		Errors:   len(result.Errors),
	})
	logger.Info("import completed",
		"minerals", result.MineralsCount,
		"spectra", result.SpectraCount,
		"errors", len(result.Errors),
		"duration", result.Duration(),
	)

	return result, nil
}

// fetch downloads ds into the scratch directory. The artifact is written to
// a temporary file and renamed into place so a failed download never leaves
// a truncated file behind under the final name.
func (im *Importer) fetch(ctx context.Context, scratch *Scratch, i int, ds DatasetSource) (string, error) {
	dst := scratch.Path(i, ds.Key, ds.URL)
	logger := logging.WithFields(ctx, "dataset", ds.Key, "url", ds.URL)

	im.notify(Progress{RunID: logging.RunID(ctx), Phase: PhaseFetching, Dataset: ds.Key})

	tmp, err := os.CreateTemp(scratch.Dir, filepath.Base(dst)+".*.part")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrScratchDir, err)
	}
	tmpName := tmp.Name()

	n, err := im.fetcher.Fetch(ctx, ds.URL, tmp)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		if ctx.Err() != nil {
			return "", fmt.Errorf("import cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("%w: %s: %w", ErrSourceUnreachable, ds.URL, err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%w: %w", ErrScratchDir, err)
	}

	logger.Info("dataset fetched", "bytes", n, "path", dst)
	im.notify(Progress{RunID: logging.RunID(ctx), Phase: PhaseFetching, Dataset: ds.Key, Bytes: n})
	return dst, nil
}

// importCandidates persists candidates in order. Every candidate ends up
// either counted or as exactly one error message.
func (im *Importer) importCandidates(ctx context.Context, def DatasetDefinition, candidates []Candidate, result *ImportResult) error {
	runID := logging.RunID(ctx)
	logger := logging.WithFields(ctx, "dataset", def.Key)

	snapshot := func(processed int) Progress {
		return Progress{
			RunID:     runID,
			Phase:     PhaseImporting,
			Dataset:   def.Key,
			Processed: processed,
			Total:     len(candidates),
			Minerals:  result.MineralsCount,
			Spectra:   result.SpectraCount,
			Errors:    len(result.Errors),
		}
	}
	im.notify(snapshot(0))

	for i, c := range candidates {
		// Check context periodically to allow cancellation
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("import cancelled at %s: %w", c.Origin, err)
			}
		}

		if err := im.importOne(ctx, c, result); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("import cancelled at %s: %w", c.Origin, ctx.Err())
			}
			msg := fmt.Sprintf("%s %s: %v", def.Key, c.Origin, err)
			logger.Debug("record rejected", "origin", c.Origin, "error", err)
			result.Errors = append(result.Errors, msg)
		}

		if (i+1)%im.cfg.ProgressEvery == 0 {
			im.notify(snapshot(i + 1))
		}
	}

	im.notify(snapshot(len(candidates)))
	return nil
}

// importOne validates and upserts a single candidate, incrementing the
// matching counter on success.
func (im *Importer) importOne(ctx context.Context, c Candidate, result *ImportResult) error {
	if c.Err != nil {
		return c.Err
	}

	switch c.Kind {
	case KindMineral:
		if c.Mineral == nil {
			return errors.New("empty mineral candidate")
		}
		if err := c.Mineral.Validate(); err != nil {
			return err
		}
		if err := im.sink.UpsertMineral(ctx, *c.Mineral); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		result.MineralsCount++

	case KindSpectrum:
		if c.Spectrum == nil {
			return errors.New("empty spectrum candidate")
		}
		if err := c.Spectrum.Validate(); err != nil {
			return err
		}
		if err := im.sink.UpsertSpectrum(ctx, *c.Spectrum); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		result.SpectraCount++

	default:
		return fmt.Errorf("unknown record kind %q", c.Kind)
	}
	return nil
}

func (im *Importer) notify(p Progress) {
	if im.progress != nil {
		im.progress(p)
	}
}
