package datasets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/mineralkb/internal/core"
)

// MineralFieldSpecs lists the RRUFF IMA mineral list export columns the
// importer reads. Other columns in the export are ignored.
var MineralFieldSpecs = []core.FieldSpec{
	{Name: "Mineral Name", Type: core.FieldText, Required: true},
	{Name: "Mineral Name (plain)", Type: core.FieldText},
	{Name: "RRUFF Chemistry (plain)", Type: core.FieldText, Normalizer: NormalizeChemistry},
	{Name: "IMA Chemistry (plain)", Type: core.FieldText, Normalizer: NormalizeChemistry},
	{Name: "Chemistry Elements", Type: core.FieldText},
	{Name: "IMA Number", Type: core.FieldText},
	{Name: "RRUFF IDs", Type: core.FieldText},
	{Name: "IMA Status", Type: core.FieldText, Normalizer: NormalizeStatus},
	{Name: "Crystal Systems", Type: core.FieldText},
	{Name: "Space Groups", Type: core.FieldText},
	{Name: "Year First Published", Type: core.FieldInteger},
	{Name: "Country of Type Locality", Type: core.FieldText},
}

func registerMineralList() {
	core.Register(core.DatasetDefinition{
		Key:   MineralsKey,
		Label: "RRUFF IMA mineral list",
		Kind:  core.KindMineral,
		Parse: ParseMineralList,
	})
}

// ParseMineralList reads a RRUFF IMA mineral list CSV export.
//
// A file with no non-blank rows is an empty dataset. Otherwise the header row
// must be found within the first core.MaxHeaderSearchRows rows. Every
// non-blank row after the header is one candidate.
func ParseMineralList(ctx context.Context, path string) ([]core.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	records, err := core.ParseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}

	if allEmpty(records) {
		return nil, nil
	}

	headerIdx := core.FindHeaderRow(records, MineralFieldSpecs)
	if headerIdx < 0 {
		return nil, fmt.Errorf("header not found in first %d rows (expected column %q)",
			core.MaxHeaderSearchRows, "Mineral Name")
	}

	idx := core.MakeHeaderIndex(records[headerIdx])
	validator := core.NewRowValidator(MineralFieldSpecs, idx)
	base := filepath.Base(path)

	var candidates []core.Candidate
	for i, row := range records[headerIdx+1:] {
		// 1-indexed record number, counting the header
		rowNum := headerIdx + i + 2

		if i%core.ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if core.IsEmptyRow(row) {
			continue
		}

		c := core.Candidate{
			Kind:   core.KindMineral,
			Origin: fmt.Sprintf("%s row %d", base, rowNum),
		}
		if err := validator.ValidateRow(row); err != nil {
			c.Err = err
		} else {
			m := buildMineral(row, idx)
			c.Mineral = &m
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

func buildMineral(row []string, idx core.HeaderIndex) core.MineralRecord {
	m := core.MineralRecord{
		Name:                core.Cell(row, idx, "Mineral Name"),
		PlainName:           core.Cell(row, idx, "Mineral Name (plain)"),
		RRUFFChemistry:      NormalizeChemistry(core.Cell(row, idx, "RRUFF Chemistry (plain)")),
		IMAChemistry:        NormalizeChemistry(core.Cell(row, idx, "IMA Chemistry (plain)")),
		Elements:            core.SplitList(core.Cell(row, idx, "Chemistry Elements"), " ,"),
		IMANumber:           core.Cell(row, idx, "IMA Number"),
		RRUFFIDs:            core.SplitList(core.Cell(row, idx, "RRUFF IDs"), " ,|"),
		IMAStatus:           NormalizeStatus(core.Cell(row, idx, "IMA Status")),
		CrystalSystems:      NormalizeCrystalSystems(core.Cell(row, idx, "Crystal Systems")),
		SpaceGroups:         core.SplitList(core.Cell(row, idx, "Space Groups"), "|,"),
		TypeLocalityCountry: core.Cell(row, idx, "Country of Type Locality"),
	}
	if m.PlainName == "" {
		m.PlainName = m.Name
	}
	if year, ok := core.ParseInt(core.Cell(row, idx, "Year First Published")); ok {
		m.YearFirstPublished = &year
	}
	return m
}

func allEmpty(records [][]string) bool {
	for _, row := range records {
		if !core.IsEmptyRow(row) {
			return false
		}
	}
	return true
}
