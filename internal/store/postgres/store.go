// Package postgres persists imported RRUFF records in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/mineralkb/internal/config"
	"github.com/JonMunkholm/mineralkb/internal/core"
	"github.com/JonMunkholm/mineralkb/internal/store/postgres/migrations"
)

// Store implements core.Sink and core.RunRecorder.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

var (
	_ core.Sink        = (*Store)(nil)
	_ core.RunRecorder = (*Store)(nil)
)

// Connect opens and pings a connection pool sized from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: NewQueries(pool),
		pool:    pool,
	}
}

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.RunMigrationsUp(ctx, s.pool)
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// UpsertMineral inserts m or replaces the row with the same name.
func (s *Store) UpsertMineral(ctx context.Context, m core.MineralRecord) error {
	var year *int32
	if m.YearFirstPublished != nil {
		if *m.YearFirstPublished > math.MaxInt32 {
			return fmt.Errorf("year first published %d out of range", *m.YearFirstPublished)
		}
		y := int32(*m.YearFirstPublished)
		year = &y
	}

	return s.Queries.UpsertMineral(ctx, UpsertMineralParams{
		Name:                m.Name,
		PlainName:           m.PlainName,
		RRUFFChemistry:      m.RRUFFChemistry,
		IMAChemistry:        m.IMAChemistry,
		Elements:            nonNil(m.Elements),
		IMANumber:           m.IMANumber,
		RRUFFIDs:            nonNil(m.RRUFFIDs),
		IMAStatus:           m.IMAStatus,
		CrystalSystems:      nonNil(m.CrystalSystems),
		SpaceGroups:         nonNil(m.SpaceGroups),
		YearFirstPublished:  year,
		TypeLocalityCountry: m.TypeLocalityCountry,
	})
}

// UpsertSpectrum inserts sp or replaces the row with the same key.
func (s *Store) UpsertSpectrum(ctx context.Context, sp core.SpectrumRecord) error {
	return s.Queries.UpsertSpectrum(ctx, UpsertSpectrumParams{
		Key:             sp.Key,
		RRUFFID:         sp.RRUFFID,
		MineralName:     sp.MineralName,
		Technique:       sp.Technique,
		LaserWavelength: sp.LaserWavelength,
		Orientation:     sp.Orientation,
		Processing:      sp.Processing,
		Locality:        sp.Locality,
		Owner:           sp.Owner,
		Source:          sp.Source,
		Description:     sp.Description,
		Status:          sp.Status,
		URL:             sp.URL,
		X:               sp.X,
		Y:               sp.Y,
	})
}

// RecordRun stores the summary of a finished import.
func (s *Store) RecordRun(ctx context.Context, r core.ImportResult) error {
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", r.RunID, err)
	}

	return s.InsertImportRun(ctx, InsertImportRunParams{
		ID:            id,
		StartedAt:     r.StartTime,
		EndedAt:       r.EndTime,
		MineralsCount: int32(r.MineralsCount),
		SpectraCount:  int32(r.SpectraCount),
		ErrorCount:    int32(len(r.Errors)),
		Errors:        nonNil(r.Errors),
	})
}

// ListRuns returns the most recent import runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.ImportResult, error) {
	rows, err := s.ListImportRuns(ctx, int32(min(limit, math.MaxInt32)))
	if err != nil {
		return nil, err
	}

	runs := make([]core.ImportResult, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, core.ImportResult{
			RunID:         r.ID.String(),
			MineralsCount: int(r.MineralsCount),
			SpectraCount:  int(r.SpectraCount),
			Errors:        nonNil(r.Errors),
			StartTime:     r.StartedAt,
			EndTime:       r.EndedAt,
		})
	}
	return runs, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
