// Package logging configures the global zerolog logger. While the terminal
// UI owns the screen, logs go to a file in the data directory; in plain mode
// they go to stderr through a console writer.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fakeyudi/duelword/internal/session"
)

// Setup points the global logger at w with the given level. It returns the
// parsed level.
func Setup(level string, w io.Writer) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return lvl, nil
}

// Console returns a human-readable writer on stderr.
func Console() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
}

// OpenFile opens path for appending, defaulting to duelword.log in the data
// directory. The caller closes it.
func OpenFile(path string) (*os.File, error) {
	if path == "" {
		dir, err := session.DataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "duelword.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
