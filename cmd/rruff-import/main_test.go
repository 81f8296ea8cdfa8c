package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mineralkb/internal/config"
	"github.com/JonMunkholm/mineralkb/internal/core"
	"github.com/JonMunkholm/mineralkb/internal/core/datasets"
	"github.com/JonMunkholm/mineralkb/internal/store/sqlite"
)

func TestImporterConfig(t *testing.T) {
	cfg := &config.Config{
		Source: config.SourceConfig{
			MineralsURL: "https://rruff.info/minerals.csv",
			SpectraURLs: []string{"https://rruff.info/a.zip", "s3://mirror/b.zip"},
		},
		Import: config.ImportConfig{ScratchDir: "/tmp/rruff", ProgressEvery: 100},
	}

	got := importerConfig(cfg)
	assert.Equal(t, "/tmp/rruff", got.ScratchDir)
	assert.Equal(t, 100, got.ProgressEvery)
	assert.Equal(t, []core.DatasetSource{
		{Key: datasets.MineralsKey, URL: "https://rruff.info/minerals.csv"},
		{Key: datasets.SpectraKey, URL: "https://rruff.info/a.zip"},
		{Key: datasets.SpectraKey, URL: "s3://mirror/b.zip"},
	}, got.Datasets)

	cfg.Source.MineralsURL = ""
	assert.Len(t, importerConfig(cfg).Datasets, 2)
}

func TestPrintSummary(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := &core.ImportResult{
		RunID:         "run-1",
		MineralsCount: 3,
		SpectraCount:  2,
		Errors:        []string{"e1", "e2", "e3"},
		StartTime:     start,
		EndTime:       start.Add(1500 * time.Millisecond),
	}

	var buf bytes.Buffer
	printSummary(&buf, r, 2)
	out := buf.String()

	assert.Contains(t, out, "Minerals: 3")
	assert.Contains(t, out, "Spectra:  2")
	assert.Contains(t, out, "Errors:   3")
	assert.Contains(t, out, "    - e1\n")
	assert.Contains(t, out, "    - e2\n")
	assert.NotContains(t, out, "    - e3\n")
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "Started:  2024-05-01T12:00:00Z")
	assert.Contains(t, out, "Duration: 1.50s")

	buf.Reset()
	printSummary(&buf, r, 0)
	assert.Contains(t, buf.String(), "    - e3\n")
	assert.NotContains(t, buf.String(), "more")
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)

	p(core.Progress{Phase: core.PhaseFetching, Dataset: "rruff_minerals"})
	p(core.Progress{Phase: core.PhaseFetching, Dataset: "rruff_minerals", Bytes: 42})
	p(core.Progress{Phase: core.PhaseImporting, Dataset: "rruff_minerals", Processed: 1, Total: 2, Minerals: 1})
	p(core.Progress{Phase: core.PhaseImporting, Dataset: "rruff_minerals"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Fetching rruff_minerals...", lines[0])
	assert.Equal(t, "Fetched rruff_minerals (42 bytes)", lines[1])
	assert.Equal(t, "Importing rruff_minerals: 1/2 (minerals=1 spectra=0 errors=0)", lines[2])
}

func TestCrystalClassCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"crystal-class", "7", "42"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "7: Trigonal")
	assert.Contains(t, out, "Examples: Quartz, Calcite, Corundum, Tourmaline")
	assert.Contains(t, out, "42: Unknown Crystal Class (42)")
	assert.Contains(t, out, "No additional information available for this crystal system.")
}

func TestParseClassIDs(t *testing.T) {
	ids, err := parseClassIDs(nil)
	require.NoError(t, err)
	require.Len(t, ids, 8)
	assert.Equal(t, 1, *ids[0])
	assert.Equal(t, 8, *ids[7])

	ids, err = parseClassIDs([]string{"None", "3"})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Nil(t, ids[0])
	assert.Equal(t, 3, *ids[1])

	_, err = parseClassIDs([]string{"seven"})
	assert.Error(t, err)
}

func TestCrystalClassCommand_None(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"crystal-class", "none"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "none: Unknown\n")
}

func TestOpenStore_DriverCaseInsensitive(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{
		Driver:     "SQLite",
		SQLitePath: filepath.Join(t.TempDir(), "minerals.db"),
	}}

	store, release, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer release()
	assert.NoError(t, store.Migrate(context.Background()))

	cfg.Store.Driver = "mysql"
	_, _, err = openStore(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown store driver "mysql"`)
}

func TestRunsCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "minerals.db")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", dbPath)

	s, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRun(ctx, core.ImportResult{
		RunID:         "7f9c2f0e-5b1a-4c55-9a57-0a4f0c8f3d11",
		MineralsCount: 3,
		Errors:        []string{"bad row"},
		StartTime:     start,
		EndTime:       start.Add(1500 * time.Millisecond),
	}))
	require.NoError(t, s.Close())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"runs", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Stored: 0 minerals, 0 spectra")
	assert.Contains(t, out, "7f9c2f0e-5b1a-4c55-9a57-0a4f0c8f3d11  2024-05-01T12:00:00Z  minerals=3 spectra=0 errors=1  1.50s")
}

func TestPrintRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, 2, 1, nil)
	assert.Equal(t, "Stored: 2 minerals, 1 spectra\nNo import runs recorded\n", buf.String())
}
