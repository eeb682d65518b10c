// Package logging builds the application's structured loggers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// NewLogger creates a new [log.Logger] writing to w with timestamps enabled.
//
// The writer defaults to [os.Stderr]. level is parsed with [log.ParseLevel];
// an empty or unknown level selects info. Debug loggers also report the
// caller.
func NewLogger(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    lvl == log.DebugLevel,
		Level:           lvl,
	})
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
