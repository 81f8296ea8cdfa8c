package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldNumeric
	FieldInteger
)

// FieldSpec defines validation rules for a single CSV column.
type FieldSpec struct {
	Name       string              // Column header name (matched case-insensitively)
	Type       FieldType           // Expected data type
	Required   bool                // Column must exist in CSV header
	AllowEmpty bool                // If true, empty values are allowed even when Required
	EnumValues []string            // Valid values for FieldEnum type
	Normalizer func(string) string // Optional transformation function
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// RecordKind identifies the sink entity a candidate record targets.
type RecordKind string

const (
	KindMineral  RecordKind = "mineral"
	KindSpectrum RecordKind = "spectrum"
)

// MineralRecord is a mineral species entry. Name is its identity in the store.
type MineralRecord struct {
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
	YearFirstPublished  *int
	TypeLocalityCountry string
}

// Validate checks the fields the store needs to upsert the record.
func (m MineralRecord) Validate() error {
	if m.Name == "" {
		return ValidationError{Field: "name", Message: "required field is empty"}
	}
	if m.YearFirstPublished != nil && *m.YearFirstPublished <= 0 {
		return ValidationError{
			Field:   "year_first_published",
			Value:   fmt.Sprint(*m.YearFirstPublished),
			Message: "must be a positive year",
		}
	}
	return nil
}

// SpectrumRecord is a single measured spectrum. Key is its identity in the store.
type SpectrumRecord struct {
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

// Validate checks the fields the store needs to upsert the record.
func (s SpectrumRecord) Validate() error {
	switch {
	case s.Key == "":
		return ValidationError{Field: "key", Message: "required field is empty"}
	case s.RRUFFID == "":
		return ValidationError{Field: "rruff_id", Message: "required field is empty"}
	case s.MineralName == "":
		return ValidationError{Field: "mineral_name", Message: "required field is empty"}
	case len(s.X) == 0:
		return ValidationError{Field: "data", Message: "spectrum has no data points"}
	case len(s.X) != len(s.Y):
		return ValidationError{
			Field:   "data",
			Message: fmt.Sprintf("x/y length mismatch (%d != %d)", len(s.X), len(s.Y)),
		}
	}
	return nil
}

// Candidate is a parsed but not yet validated unit from a raw dataset.
// Exactly one of Mineral, Spectrum or Err is expected to be set.
type Candidate struct {
	Kind     RecordKind
	Origin   string // e.g. "tbl_mineral.csv line 12" or "raman.zip:Quartz__R040031.txt"
	Mineral  *MineralRecord
	Spectrum *SpectrumRecord
	Err      error
}

// ImportResult is the report of one import run. It is owned by the run that
// creates it and is not modified after Run returns.
type ImportResult struct {
	RunID         string
	MineralsCount int
	SpectraCount  int
	Errors        []string
	StartTime     time.Time
	EndTime       time.Time
}

// Duration returns the elapsed wall time of the run.
func (r ImportResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Total returns the number of candidates the run accounted for.
func (r ImportResult) Total() int {
	return r.MineralsCount + r.SpectraCount + len(r.Errors)
}

// Sink persists imported records, upserting by identity.
// Satisfied by the postgres and sqlite stores.
type Sink interface {
	UpsertMineral(ctx context.Context, m MineralRecord) error
	UpsertSpectrum(ctx context.Context, s SpectrumRecord) error
}

// RunRecorder is implemented by sinks that keep an import run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, result ImportResult) error
}

// ImportPhase indicates the current stage of a run.
type ImportPhase string

const (
	PhaseStarting  ImportPhase = "starting"
	PhaseFetching  ImportPhase = "fetching"
	PhaseParsing   ImportPhase = "parsing"
	PhaseImporting ImportPhase = "importing"
	PhaseComplete  ImportPhase = "complete"
	PhaseFailed    ImportPhase = "failed"
)

// Progress is a snapshot of a running import.
type Progress struct {
	RunID     string
	Phase     ImportPhase
	Dataset   string
	Processed int // candidates handled in the current dataset
	Total     int // candidates in the current dataset
	Minerals  int
	Spectra   int
	Errors    int
	Bytes     int64 // bytes fetched, set during PhaseFetching
	Error     string
}

// ProgressFunc is called at phase changes and periodically while importing.
type ProgressFunc func(Progress)

// Fatal run errors. Wrapped errors returned by Run match these with errors.Is.
var (
	ErrScratchDir        = errors.New("scratch directory unavailable")
	ErrSourceUnreachable = errors.New("dataset source unreachable")
	ErrParse             = errors.New("dataset parse failed")
	ErrUnknownDataset    = errors.New("unknown dataset")
)
