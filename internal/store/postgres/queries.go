package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Queries runs the store's statements against a DBTX.
type Queries struct {
	db DBTX
}

// NewQueries returns Queries bound to db.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const upsertMineral = `-- name: UpsertMineral :exec
INSERT INTO minerals (
    name, plain_name, rruff_chemistry, ima_chemistry, elements, ima_number,
    rruff_ids, ima_status, crystal_systems, space_groups, year_first_published,
    type_locality_country
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (name) DO UPDATE SET
    plain_name = EXCLUDED.plain_name,
    rruff_chemistry = EXCLUDED.rruff_chemistry,
    ima_chemistry = EXCLUDED.ima_chemistry,
    elements = EXCLUDED.elements,
    ima_number = EXCLUDED.ima_number,
    rruff_ids = EXCLUDED.rruff_ids,
    ima_status = EXCLUDED.ima_status,
    crystal_systems = EXCLUDED.crystal_systems,
    space_groups = EXCLUDED.space_groups,
    year_first_published = EXCLUDED.year_first_published,
    type_locality_country = EXCLUDED.type_locality_country,
    updated_at = now()
`

type UpsertMineralParams struct {
	Name                string
	PlainName           string
	RRUFFChemistry      string
	IMAChemistry        string
	Elements            []string
	IMANumber           string
	RRUFFIDs            []string
	IMAStatus           string
	CrystalSystems      []string
	SpaceGroups         []string
	YearFirstPublished  *int32
	TypeLocalityCountry string
}

func (q *Queries) UpsertMineral(ctx context.Context, arg UpsertMineralParams) error {
	_, err := q.db.Exec(ctx, upsertMineral,
		arg.Name,
		arg.PlainName,
		arg.RRUFFChemistry,
		arg.IMAChemistry,
		arg.Elements,
		arg.IMANumber,
		arg.RRUFFIDs,
		arg.IMAStatus,
		arg.CrystalSystems,
		arg.SpaceGroups,
		arg.YearFirstPublished,
		arg.TypeLocalityCountry,
	)
	return err
}

const upsertSpectrum = `-- name: UpsertSpectrum :exec
INSERT INTO spectra (
    key, rruff_id, mineral_name, technique, laser_wavelength, orientation,
    processing, locality, owner, source, description, status, url, x, y
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (key) DO UPDATE SET
    rruff_id = EXCLUDED.rruff_id,
    mineral_name = EXCLUDED.mineral_name,
    technique = EXCLUDED.technique,
    laser_wavelength = EXCLUDED.laser_wavelength,
    orientation = EXCLUDED.orientation,
    processing = EXCLUDED.processing,
    locality = EXCLUDED.locality,
    owner = EXCLUDED.owner,
    source = EXCLUDED.source,
    description = EXCLUDED.description,
    status = EXCLUDED.status,
    url = EXCLUDED.url,
    x = EXCLUDED.x,
    y = EXCLUDED.y,
    updated_at = now()
`

type UpsertSpectrumParams struct {
	Key             string
	RRUFFID         string
	MineralName     string
	Technique       string
	LaserWavelength *float64
	Orientation     string
	Processing      string
	Locality        string
	Owner           string
	Source          string
	Description     string
	Status          string
	URL             string
	X               []float64
	Y               []float64
}

func (q *Queries) UpsertSpectrum(ctx context.Context, arg UpsertSpectrumParams) error {
	_, err := q.db.Exec(ctx, upsertSpectrum,
		arg.Key,
		arg.RRUFFID,
		arg.MineralName,
		arg.Technique,
		arg.LaserWavelength,
		arg.Orientation,
		arg.Processing,
		arg.Locality,
		arg.Owner,
		arg.Source,
		arg.Description,
		arg.Status,
		arg.URL,
		arg.X,
		arg.Y,
	)
	return err
}

const insertImportRun = `-- name: InsertImportRun :exec
INSERT INTO import_runs (
    id, started_at, ended_at, minerals_count, spectra_count, error_count, errors
) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertImportRunParams struct {
	ID            uuid.UUID
	StartedAt     time.Time
	EndedAt       time.Time
	MineralsCount int32
	SpectraCount  int32
	ErrorCount    int32
	Errors        []string
}

func (q *Queries) InsertImportRun(ctx context.Context, arg InsertImportRunParams) error {
	_, err := q.db.Exec(ctx, insertImportRun,
		arg.ID,
		arg.StartedAt,
		arg.EndedAt,
		arg.MineralsCount,
		arg.SpectraCount,
		arg.ErrorCount,
		arg.Errors,
	)
	return err
}

const listImportRuns = `-- name: ListImportRuns :many
SELECT id, started_at, ended_at, minerals_count, spectra_count, error_count, errors
FROM import_runs
ORDER BY started_at DESC
LIMIT $1
`

type ImportRun struct {
	ID            uuid.UUID
	StartedAt     time.Time
	EndedAt       time.Time
	MineralsCount int32
	SpectraCount  int32
	ErrorCount    int32
	Errors        []string
}

func (q *Queries) ListImportRuns(ctx context.Context, limit int32) ([]ImportRun, error) {
	rows, err := q.db.Query(ctx, listImportRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ImportRun
	for rows.Next() {
		var i ImportRun
		if err := rows.Scan(
			&i.ID,
			&i.StartedAt,
			&i.EndedAt,
			&i.MineralsCount,
			&i.SpectraCount,
			&i.ErrorCount,
			&i.Errors,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRecords = `-- name: CountRecords :one
SELECT (SELECT count(*) FROM minerals), (SELECT count(*) FROM spectra)
`

func (q *Queries) CountRecords(ctx context.Context) (minerals, spectra int64, err error) {
	err = q.db.QueryRow(ctx, countRecords).Scan(&minerals, &spectra)
	return minerals, spectra, err
}
