// Package source fetches dataset artifacts from http(s), s3 and local
// file locations.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/JonMunkholm/mineralkb/internal/config"
)

// ErrUnsupportedScheme is returned for URLs no fetcher handles.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// Fetcher copies the artifact at rawURL into w and returns the byte count.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Mux dispatches to a Fetcher by URL scheme. A URL without a scheme is
// treated as a local path.
type Mux struct {
	fetchers map[string]Fetcher
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{fetchers: make(map[string]Fetcher)}
}

// Handle registers f for the given schemes.
func (m *Mux) Handle(f Fetcher, schemes ...string) {
	for _, s := range schemes {
		m.fetchers[strings.ToLower(s)] = f
	}
}

// New returns a Mux wired with the HTTP, S3 and file fetchers.
func New(cfg config.SourceConfig) *Mux {
	m := NewMux()
	m.Handle(NewHTTPFetcher(cfg.HTTPTimeout, cfg.UserAgent), "http", "https")
	m.Handle(NewS3Fetcher(S3Options{
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		UsePathStyle: cfg.S3UsePathStyle,
	}), "s3")
	m.Handle(FileFetcher{}, "file", "")
	return m
}

// Fetch implements Fetcher.
func (m *Mux) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	scheme := Scheme(rawURL)
	f, ok := m.fetchers[scheme]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return f.Fetch(ctx, rawURL, w)
}

// Scheme returns the lowercased scheme of rawURL, or "" for plain paths.
// Windows drive letters ("C:\data") are treated as paths.
func Scheme(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || len(u.Scheme) <= 1 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
