package core

// error_messages.go maps technical errors to short operator-facing hints
// with a code that can be quoted in bug reports.
//
// Codes are grouped by category:
//
//	SRC001-SRC099  dataset sources (network, HTTP status, S3)
//	SCR001-SCR099  scratch directory
//	PAR001-PAR099  dataset parsing
//	DB001-DB099    persistence sink
//	RUN001-RUN099  run lifecycle
//	ERR000         fallback
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage describes an error for the operator.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Sources
	{"no such host", UserMessage{"Dataset host could not be resolved", "Check the dataset URL and network/DNS access", "SRC001"}},
	{"connection refused", UserMessage{"Connection refused", "Check that the dataset host or database is reachable", "SRC002"}},
	{"unexpected status 404", UserMessage{"Dataset URL not found (404)", "The RRUFF export may have moved; update RRUFF_MINERALS_URL or RRUFF_SPECTRA_URLS", "SRC003"}},
	{"unexpected status 403", UserMessage{"Dataset download forbidden (403)", "Check RRUFF_USER_AGENT or use a mirror", "SRC004"}},
	{"object not found", UserMessage{"S3 object not found", "Check the bucket and key of the s3:// URL", "SRC005"}},
	{"load aws config", UserMessage{"AWS configuration could not be loaded", "Check AWS credentials and S3_REGION", "SRC006"}},
	{"unsupported url scheme", UserMessage{"Unsupported dataset URL scheme", "Use http(s)://, s3://, file:// or a local path", "SRC007"}},

	// Scratch directory
	{"permission denied", UserMessage{"Permission denied", "Check write access to SCRATCH_DIR (or the SQLite path)", "SCR001"}},
	{"no space left", UserMessage{"Disk full", "Free space in SCRATCH_DIR", "SCR002"}},
	{"not a directory", UserMessage{"Scratch path is not a directory", "Point SCRATCH_DIR at a directory", "SCR003"}},

	// Parsing
	{"header not found", UserMessage{"Mineral list header row not found", "The export format may have changed; check the first rows of the CSV", "PAR001"}},
	{"not a valid zip", UserMessage{"Spectra archive is not a zip file", "The server may have returned an error page; check the spectra URL", "PAR002"}},

	// Sink
	{"sqlstate 42p01", UserMessage{"Database schema missing", "Run 'rruff-import migrate' or pass --migrate", "DB001"}},
	{"no such table", UserMessage{"Database schema missing", "Run 'rruff-import migrate' or pass --migrate", "DB001"}},
	{"database is locked", UserMessage{"SQLite database is locked", "Stop other processes using SQLITE_PATH", "DB002"}},
	{"deadlock", UserMessage{"Database deadlock", "Run the import again", "DB003"}},
	{"password authentication failed", UserMessage{"Database authentication failed", "Check the credentials in DATABASE_URL", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Run the import again", "DB005"}},

	// Lifecycle
	{"context canceled", UserMessage{"Import cancelled", "Run the import again when ready", "RUN001"}},
	{"context deadline exceeded", UserMessage{"Import timed out", "Raise IMPORT_TIMEOUT or RRUFF_HTTP_TIMEOUT", "RUN002"}},
	{"timeout", UserMessage{"Operation timed out", "Raise RRUFF_HTTP_TIMEOUT or try again later", "RUN003"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for details",
	Code:    "ERR000",
}

// MapError returns the first matching hint for err, or the ERR000 fallback.
// Fatal run errors that match no pattern fall back to their sentinel.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	switch {
	case errors.Is(err, ErrSourceUnreachable):
		return UserMessage{"Dataset source unreachable", "Check the dataset URLs and network access", "SRC000"}
	case errors.Is(err, ErrScratchDir):
		return UserMessage{"Scratch directory unavailable", "Check SCRATCH_DIR", "SCR000"}
	case errors.Is(err, ErrParse):
		return UserMessage{"Dataset could not be parsed", "Check the downloaded file in SCRATCH_DIR", "PAR000"}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
