package datasets

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/JonMunkholm/mineralkb/internal/core"
)

// MaxSpectrumFileSize caps how much of a single archive entry is read.
// Larger entries are rejected rather than truncated.
var MaxSpectrumFileSize int64 = 16 * 1024 * 1024

var errEntryTooLarge = errors.New("entry exceeds maximum spectrum file size")

var rruffIDRegex = regexp.MustCompile(`^[RX]\d{6}`)

func registerSpectra() {
	core.Register(core.DatasetDefinition{
		Key:   SpectraKey,
		Label: "RRUFF zipped spectra",
		Kind:  core.KindSpectrum,
		Parse: ParseSpectraArchive,
	})
}

// ParseSpectraArchive reads a zipped RRUFF spectra archive. Each .txt entry
// is one candidate; other entries are ignored. A zero-length file is an
// empty dataset; anything else that is not a zip archive is an error.
func ParseSpectraArchive(ctx context.Context, archivePath string) ([]core.Candidate, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filepath.Base(archivePath), err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	base := filepath.Base(archivePath)
	var candidates []core.Candidate
	for i, f := range zr.File {
		if i%core.ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".txt") {
			continue
		}

		c := core.Candidate{
			Kind:   core.KindSpectrum,
			Origin: base + ":" + f.Name,
		}
		rec, err := readSpectrumEntry(f)
		if err != nil {
			c.Err = err
		} else {
			c.Spectrum = rec
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

func readSpectrumEntry(f *zip.File) (*core.SpectrumRecord, error) {
	if f.UncompressedSize64 > uint64(MaxSpectrumFileSize) {
		return nil, fmt.Errorf("%w (%d > %d bytes)", errEntryTooLarge, f.UncompressedSize64, MaxSpectrumFileSize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	return ParseSpectrum(f.Name, &maxReader{r: rc, remaining: MaxSpectrumFileSize})
}

// maxReader fails with errEntryTooLarge once more than remaining bytes have
// been read. The zip header size is not trusted on its own.
type maxReader struct {
	r         io.Reader
	remaining int64
}

func (m *maxReader) Read(p []byte) (int, error) {
	if int64(len(p)) > m.remaining+1 {
		p = p[:m.remaining+1]
	}
	n, err := m.r.Read(p)
	m.remaining -= int64(n)
	if m.remaining < 0 {
		return 0, errEntryTooLarge
	}
	return n, err
}

// ParseSpectrum parses one RRUFF spectrum text file:
//
//	##NAMES=Quartz
//	##RRUFFID=R040031
//	...
//	100.2, 1534.7
//	101.1, 1530.2
//	##END=
//
// Metadata missing from the header (technique, laser wavelength, orientation,
// processing) is taken from the "__"-separated file name.
func ParseSpectrum(name string, r io.Reader) (*core.SpectrumRecord, error) {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	rec := &core.SpectrumRecord{Key: stem}
	applyFileName(rec, stem)

	scanner := bufio.NewScanner(core.NewTextReader(r))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "##") {
			key, value, _ := strings.Cut(strings.TrimPrefix(line, "##"), "=")
			key = strings.ToUpper(strings.TrimSpace(key))
			if key == "END" {
				break
			}
			applyHeader(rec, key, strings.TrimSpace(value))
			continue
		}

		x, y, err := parsePoint(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rec.X = append(rec.X, x)
		rec.Y = append(rec.Y, y)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return rec, nil
}

func applyHeader(rec *core.SpectrumRecord, key, value string) {
	if value == "" {
		return
	}
	switch key {
	case "NAMES":
		rec.MineralName = value
	case "RRUFFID":
		rec.RRUFFID = value
	case "LOCALITY":
		rec.Locality = value
	case "OWNER":
		rec.Owner = value
	case "SOURCE":
		rec.Source = value
	case "DESCRIPTION":
		rec.Description = value
	case "STATUS":
		rec.Status = value
	case "URL":
		rec.URL = value
	}
}

// applyFileName fills metadata from names like
// "Quartz__R040031-1__Raman__532__0__unoriented__Raman_Data_Processed__13954".
func applyFileName(rec *core.SpectrumRecord, stem string) {
	parts := strings.Split(stem, "__")
	if len(parts) < 3 {
		return
	}

	rec.MineralName = strings.ReplaceAll(parts[0], "_", " ")
	if rruffIDRegex.MatchString(parts[1]) {
		rec.RRUFFID = parts[1]
	}
	rec.Technique = strings.ReplaceAll(parts[2], "_", " ")

	if len(parts) > 3 {
		if wl, ok := core.ParseFloat(parts[3]); ok && wl > 0 {
			rec.LaserWavelength = &wl
		}
	}
	if len(parts) > 5 {
		rec.Orientation = parts[5]
	}
	if len(parts) > 6 {
		rec.Processing = strings.ReplaceAll(parts[6], "_", " ")
	}
}

var errBadPoint = errors.New("invalid data point")

// parsePoint reads "x, y" or whitespace-separated "x y".
func parsePoint(line string) (float64, float64, error) {
	var fields []string
	if strings.Contains(line, ",") {
		fields = strings.Split(line, ",")
	} else {
		fields = strings.Fields(line)
	}
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w %q", errBadPoint, line)
	}

	x, okX := core.ParseFloat(fields[0])
	y, okY := core.ParseFloat(fields[1])
	if !okX || !okY {
		return 0, 0, fmt.Errorf("%w %q", errBadPoint, line)
	}
	return x, y, nil
}
