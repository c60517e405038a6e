// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the charmbracelet/log loggers injected into every
// docxify component.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options configures a logger.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string

	// JSON selects JSON output instead of the human-readable text format.
	JSON bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a logger prefixed "docxify". DEBUG=1 in the environment forces
// debug level and adds caller information.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	lo := log.Options{
		ReportTimestamp: true,
		Prefix:          "docxify",
		Level:           parseLevel(opts.Level),
	}
	if opts.JSON {
		lo.Formatter = log.JSONFormatter
	}
	if os.Getenv("DEBUG") == "1" {
		lo.Level = log.DebugLevel
		lo.ReportCaller = true
	}
	return log.NewWithOptions(out, lo)
}

// Discard returns a logger that writes nothing. Used by tests and by
// components constructed without a logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func parseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
