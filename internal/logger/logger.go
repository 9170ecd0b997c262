// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Initialize sets up the global logger writing to stderr.
func Initialize(level, format string) error {
	return InitializeWriter(os.Stderr, level, format)
}

// InitializeWriter sets up the global logger writing to w. An empty level means info and an
// empty format means console.
func InitializeWriter(w io.Writer, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var out io.Writer
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case FormatJSON:
		out = w
	default:
		return fmt.Errorf("unknown log format %q (want %s or %s)", format, FormatConsole, FormatJSON)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q: %w", level, err)
	}
	return lvl, nil
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}
