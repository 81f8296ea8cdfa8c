package core

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Scratch is a staging directory for downloaded datasets.
// Acquiring it creates the directory if needed; nothing here removes it.
type Scratch struct {
	Dir string
}

// AcquireScratch ensures dir exists and is writable.
func AcquireScratch(dir string) (*Scratch, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrScratchDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratchDir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratchDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrScratchDir, dir)
	}
	return &Scratch{Dir: dir}, nil
}

// Path returns the staging path for the i-th dataset fetched from rawURL.
// The index prefix keeps same-named artifacts from different sources apart.
func (s *Scratch) Path(i int, key, rawURL string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
		if u.Scheme == "" {
			base = filepath.Base(rawURL)
		}
	}
	if base == "" || base == "." || base == "/" {
		base = key
	}
	return filepath.Join(s.Dir, fmt.Sprintf("%02d-%s", i, base))
}
