package datasets

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mineralkb/internal/core"
)

const quartzSpectrum = `##NAMES=Quartz
##RRUFFID=R040031
##IDEAL CHEMISTRY=SiO_2_
##LOCALITY=Hot Springs, Arkansas, USA
##OWNER=RRUFF
##SOURCE=Michael Scott
##DESCRIPTION=Colorless prism
##STATUS=The identification of this mineral has been confirmed by X-ray diffraction and chemical analysis.
##URL=rruff.info/R040031
100.2, 1534.7
101.1, 1530.2
102.0, 1529.9
##END=
`

const quartzName = "Quartz__R040031-1__Raman__532__0__unoriented__Raman_Data_Processed__13954.txt"

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectra.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestParseSpectrum(t *testing.T) {
	rec, err := ParseSpectrum(quartzName, strings.NewReader(quartzSpectrum))
	require.NoError(t, err)

	assert.Equal(t, strings.TrimSuffix(quartzName, ".txt"), rec.Key)
	assert.Equal(t, "R040031", rec.RRUFFID)
	assert.Equal(t, "Quartz", rec.MineralName)
	assert.Equal(t, "Raman", rec.Technique)
	require.NotNil(t, rec.LaserWavelength)
	assert.Equal(t, 532.0, *rec.LaserWavelength)
	assert.Equal(t, "unoriented", rec.Orientation)
	assert.Equal(t, "Raman Data Processed", rec.Processing)
	assert.Equal(t, "Hot Springs, Arkansas, USA", rec.Locality)
	assert.Equal(t, "RRUFF", rec.Owner)
	assert.Equal(t, "Michael Scott", rec.Source)
	assert.Equal(t, "Colorless prism", rec.Description)
	assert.Equal(t, "rruff.info/R040031", rec.URL)
	assert.Equal(t, []float64{100.2, 101.1, 102.0}, rec.X)
	assert.Equal(t, []float64{1534.7, 1530.2, 1529.9}, rec.Y)
	assert.NoError(t, rec.Validate())
}

func TestParseSpectrum_StopsAtEnd(t *testing.T) {
	body := "##NAMES=Quartz\n##RRUFFID=R040031\n1, 2\n##END=\ngarbage after end\n"
	rec, err := ParseSpectrum("quartz.txt", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, rec.X)
	assert.Equal(t, "quartz", rec.Key)
}

func TestParseSpectrum_WhitespaceSeparated(t *testing.T) {
	body := "##NAMES=Quartz\n##RRUFFID=R040031\n1.5\t2.5\n3  4\n"
	rec, err := ParseSpectrum("quartz.txt", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 3}, rec.X)
	assert.Equal(t, []float64{2.5, 4}, rec.Y)
}

func TestParseSpectrum_BadPoint(t *testing.T) {
	body := "##NAMES=Quartz\n##RRUFFID=R040031\n1, 2\n3, abc\n"
	_, err := ParseSpectrum("quartz.txt", strings.NewReader(body))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadPoint)
	assert.Contains(t, err.Error(), "line 4")
}

func TestParseSpectrum_HeaderOverridesFileName(t *testing.T) {
	body := "##NAMES=Alpha Quartz\n1, 2\n"
	rec, err := ParseSpectrum(quartzName, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "Alpha Quartz", rec.MineralName)
	assert.Equal(t, "R040031-1", rec.RRUFFID)
}

func TestParseSpectrum_NoData(t *testing.T) {
	rec, err := ParseSpectrum("quartz.txt", strings.NewReader("##NAMES=Quartz\n##RRUFFID=R040031\n##END=\n"))
	require.NoError(t, err)
	assert.Error(t, rec.Validate())
}

func TestParseSpectraArchive(t *testing.T) {
	path := writeZip(t, map[string]string{
		quartzName:   quartzSpectrum,
		"broken.txt": "##NAMES=Broken\n1, x\n",
		"README.md":  "not a spectrum",
		"nested/":    "",
	})

	candidates, err := ParseSpectraArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	byOrigin := make(map[string]core.Candidate)
	for _, c := range candidates {
		assert.Equal(t, core.KindSpectrum, c.Kind)
		byOrigin[c.Origin] = c
	}

	good := byOrigin["spectra.zip:"+quartzName]
	require.NoError(t, good.Err)
	require.NotNil(t, good.Spectrum)
	assert.Equal(t, "R040031", good.Spectrum.RRUFFID)

	bad := byOrigin["spectra.zip:broken.txt"]
	assert.Error(t, bad.Err)
	assert.Nil(t, bad.Spectrum)
}

func TestParseSpectraArchive_OversizedEntry(t *testing.T) {
	var body strings.Builder
	body.WriteString("##NAMES=Quartz\n##RRUFFID=R040031\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&body, "%d, %d\n", 100+i, 1500+i)
	}
	path := writeZip(t, map[string]string{quartzName: body.String()})

	old := MaxSpectrumFileSize
	MaxSpectrumFileSize = 1000
	t.Cleanup(func() { MaxSpectrumFileSize = old })

	candidates, err := ParseSpectraArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.ErrorIs(t, candidates[0].Err, errEntryTooLarge)
	assert.Nil(t, candidates[0].Spectrum)
}

func TestMaxReader_SizeNotTrusted(t *testing.T) {
	_, err := ParseSpectrum(quartzName, &maxReader{r: strings.NewReader(quartzSpectrum), remaining: 64})
	assert.ErrorIs(t, err, errEntryTooLarge)

	rec, err := ParseSpectrum(quartzName, &maxReader{r: strings.NewReader(quartzSpectrum), remaining: int64(len(quartzSpectrum))})
	require.NoError(t, err)
	assert.Len(t, rec.X, 3)
}

func TestParseSpectraArchive_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	candidates, err := ParseSpectraArchive(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	candidates, err = ParseSpectraArchive(context.Background(), writeZip(t, nil))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestParseSpectraArchive_NotZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.zip")
	require.NoError(t, os.WriteFile(path, []byte("<html>404</html>"), 0o644))

	_, err := ParseSpectraArchive(context.Background(), path)
	assert.Error(t, err)
}

func TestParseSpectraArchive_Cancelled(t *testing.T) {
	path := writeZip(t, map[string]string{quartzName: quartzSpectrum})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseSpectraArchive(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseSpectrum_BOMAndInvalidUTF8(t *testing.T) {
	body := "\xef\xbb\xbf##NAMES=Quartz\n##RRUFFID=R040031\n##LOCALITY=Z\xfcrich\n1, 2\n"
	rec, err := ParseSpectrum("quartz.txt", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "Quartz", rec.MineralName)
	assert.Equal(t, "Z?rich", rec.Locality)
}
