// Package config provides centralized configuration management for the importer.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Store    StoreConfig
	Source   SourceConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required when STORE_DRIVER=postgres)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is the sink implementation: postgres or sqlite (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// SQLitePath is the database file used when Driver is sqlite
	SQLitePath string `env:"SQLITE_PATH" default:"data/mineralkb.db"`
}

// SourceConfig holds the remote dataset locations.
type SourceConfig struct {
	// MineralsURL is the RRUFF IMA mineral list export (CSV)
	MineralsURL string `env:"RRUFF_MINERALS_URL" default:"https://rruff.info/mineral_list/MED/exporting/tbl_mineral.csv"`

	// SpectraURLs is a comma-separated list of zipped RRUFF spectrum archives
	SpectraURLs []string `env:"RRUFF_SPECTRA_URLS" default:"https://rruff.info/zipped_data_files/raman/excellent_unoriented.zip"`

	// HTTPTimeout bounds a single HTTP download (default: 10m)
	HTTPTimeout time.Duration `env:"RRUFF_HTTP_TIMEOUT" default:"10m"`

	// UserAgent is sent with HTTP downloads
	UserAgent string `env:"RRUFF_USER_AGENT" default:"mineralkb-rruff-import/1.0"`

	// S3Region is the region used for s3:// sources
	S3Region string `env:"S3_REGION" envAlt:"AWS_REGION" default:"us-east-1"`

	// S3Endpoint overrides the S3 endpoint (MinIO and friends)
	S3Endpoint string `env:"S3_ENDPOINT"`

	// S3UsePathStyle forces path-style addressing for s3:// sources
	S3UsePathStyle bool `env:"S3_USE_PATH_STYLE" default:"false"`
}

// ImportConfig holds import run settings.
type ImportConfig struct {
	// ScratchDir stages downloaded artifacts; created if missing, never removed
	ScratchDir string `env:"SCRATCH_DIR" default:"data/rruff"`

	// Timeout bounds the whole run; 0 disables the limit (default: 0s)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"0s"`

	// ProgressEvery reports progress every N records (default: 500)
	ProgressEvery int `env:"IMPORT_PROGRESS_EVERY" default:"500"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
