// Package sqlite persists imported RRUFF records in a local SQLite file.
// List-valued fields are stored as JSON arrays.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/mineralkb/internal/core"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = "gomigrate_mineralkb"

// Store implements core.Sink and core.RunRecorder.
type Store struct {
	db   *sql.DB
	path string
}

var (
	_ core.Sink        = (*Store)(nil)
	_ core.RunRecorder = (*Store)(nil)
)

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	sourceDriver, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration version %d is dirty, please fix it before proceeding", version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.InfoContext(ctx, "sqlite schema up to date", "path", s.path)
	return nil
}

const upsertMineral = `
INSERT INTO minerals (
    name, plain_name, rruff_chemistry, ima_chemistry, elements, ima_number,
    rruff_ids, ima_status, crystal_systems, space_groups, year_first_published,
    type_locality_country
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
    plain_name = excluded.plain_name,
    rruff_chemistry = excluded.rruff_chemistry,
    ima_chemistry = excluded.ima_chemistry,
    elements = excluded.elements,
    ima_number = excluded.ima_number,
    rruff_ids = excluded.rruff_ids,
    ima_status = excluded.ima_status,
    crystal_systems = excluded.crystal_systems,
    space_groups = excluded.space_groups,
    year_first_published = excluded.year_first_published,
    type_locality_country = excluded.type_locality_country,
    updated_at = CURRENT_TIMESTAMP
`

// UpsertMineral inserts m or replaces the row with the same name.
func (s *Store) UpsertMineral(ctx context.Context, m core.MineralRecord) error {
	lists, err := encodeLists(m.Elements, m.RRUFFIDs, m.CrystalSystems, m.SpaceGroups)
	if err != nil {
		return err
	}

	var year sql.NullInt64
	if m.YearFirstPublished != nil {
		year = sql.NullInt64{Int64: int64(*m.YearFirstPublished), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, upsertMineral,
		m.Name, m.PlainName, m.RRUFFChemistry, m.IMAChemistry, lists[0], m.IMANumber,
		lists[1], m.IMAStatus, lists[2], lists[3], year, m.TypeLocalityCountry,
	)
	return err
}

const upsertSpectrum = `
INSERT INTO spectra (
    key, rruff_id, mineral_name, technique, laser_wavelength, orientation,
    processing, locality, owner, source, description, status, url, x, y
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    rruff_id = excluded.rruff_id,
    mineral_name = excluded.mineral_name,
    technique = excluded.technique,
    laser_wavelength = excluded.laser_wavelength,
    orientation = excluded.orientation,
    processing = excluded.processing,
    locality = excluded.locality,
    owner = excluded.owner,
    source = excluded.source,
    description = excluded.description,
    status = excluded.status,
    url = excluded.url,
    x = excluded.x,
    y = excluded.y,
    updated_at = CURRENT_TIMESTAMP
`

// UpsertSpectrum inserts sp or replaces the row with the same key.
func (s *Store) UpsertSpectrum(ctx context.Context, sp core.SpectrumRecord) error {
	x, err := json.Marshal(sp.X)
	if err != nil {
		return fmt.Errorf("encode x: %w", err)
	}
	y, err := json.Marshal(sp.Y)
	if err != nil {
		return fmt.Errorf("encode y: %w", err)
	}

	var wl sql.NullFloat64
	if sp.LaserWavelength != nil {
		wl = sql.NullFloat64{Float64: *sp.LaserWavelength, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, upsertSpectrum,
		sp.Key, sp.RRUFFID, sp.MineralName, sp.Technique, wl, sp.Orientation,
		sp.Processing, sp.Locality, sp.Owner, sp.Source, sp.Description, sp.Status,
		sp.URL, string(x), string(y),
	)
	return err
}

// RecordRun stores the summary of a finished import.
func (s *Store) RecordRun(ctx context.Context, r core.ImportResult) error {
	errs, err := encodeLists(r.Errors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, started_at, ended_at, minerals_count, spectra_count, error_count, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.StartTime.UTC().Format(time.RFC3339Nano),
		r.EndTime.UTC().Format(time.RFC3339Nano),
		r.MineralsCount,
		r.SpectraCount,
		len(r.Errors),
		errs[0],
	)
	return err
}

// ListRuns returns the most recent import runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.ImportResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, minerals_count, spectra_count, errors
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []core.ImportResult
	for rows.Next() {
		var (
			r              core.ImportResult
			started, ended string
			errsJSON       string
		)
		if err := rows.Scan(&r.RunID, &started, &ended, &r.MineralsCount, &r.SpectraCount, &errsJSON); err != nil {
			return nil, err
		}
		if r.StartTime, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.RunID, err)
		}
		if r.EndTime, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.RunID, err)
		}
		if err := json.Unmarshal([]byte(errsJSON), &r.Errors); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRecords returns the number of stored minerals and spectra.
func (s *Store) CountRecords(ctx context.Context) (minerals, spectra int64, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT (SELECT count(*) FROM minerals), (SELECT count(*) FROM spectra)").
		Scan(&minerals, &spectra)
	return minerals, spectra, err
}

// encodeLists JSON-encodes each list, writing nil as "[]".
func encodeLists(lists ...[]string) ([]string, error) {
	out := make([]string, len(lists))
	for i, l := range lists {
		if l == nil {
			l = []string{}
		}
		b, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("encode list: %w", err)
		}
		out[i] = string(b)
	}
	return out, nil
}
