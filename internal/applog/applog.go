// Package applog configures the application's structured logger.
package applog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to stderr. Verbose enables
// debug-level output.
func New(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}
