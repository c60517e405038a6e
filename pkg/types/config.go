// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"runtime"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ConverterBackend identifies how pandoc is executed.
type ConverterBackend string

const (
	// BackendLocal runs the pandoc binary found on PATH (or at Binary).
	BackendLocal ConverterBackend = "local"
	// BackendContainer runs pandoc inside a docker or podman container.
	BackendContainer ConverterBackend = "container"
)

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxUploadBytes caps the size of a POST /convert request body.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Workers bounds the number of conversions running at the same time
	// (default: number of CPUs).
	Workers int `json:"workers" yaml:"workers"`

	// ShutdownTimeout is how long in-flight requests get on SIGTERM.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// SecretsDir holds the session-key file used to sign flash cookies.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir"`
}

// ConverterConfig holds settings for the pandoc invocation.
type ConverterConfig struct {
	// Backend selects local or container execution.
	Backend ConverterBackend `json:"backend" yaml:"backend"`

	// Binary is the pandoc executable name or path for the local backend.
	Binary string `json:"binary" yaml:"binary"`

	// Image is the container image for the container backend. Its
	// entrypoint must be pandoc.
	Image string `json:"image" yaml:"image"`

	// Timeout bounds a single pandoc run. Zero disables the limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// WorkspaceConfig holds settings for per-request scratch directories.
type WorkspaceConfig struct {
	// Root is the parent directory for workspaces (default: os.TempDir()).
	Root string `json:"root" yaml:"root"`
}

// ArchiveConfig bounds zip extraction.
type ArchiveConfig struct {
	// MaxBytes caps the total uncompressed size of an uploaded project.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`

	// MaxEntries caps the number of entries in an uploaded project.
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// JournalConfig holds settings for the conversion journal.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `json:"path" yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// JSON switches the logger to JSON output.
	JSON bool `json:"json" yaml:"json"`
}

// Config groups every setting of the service. It is built once at startup
// and passed explicitly to the components that need it.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Converter ConverterConfig `json:"converter" yaml:"converter"`
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadBytes:  50 << 20,
			Workers:         runtime.NumCPU(),
			ShutdownTimeout: 15 * time.Second,
			SecretsDir:      ".secrets/",
		},
		Converter: ConverterConfig{
			Backend: BackendLocal,
			Binary:  "pandoc",
			Image:   "pandoc/latex:latest",
			Timeout: 2 * time.Minute,
		},
		Archive: ArchiveConfig{
			MaxBytes:   200 << 20,
			MaxEntries: 10000,
		},
		Journal: JournalConfig{
			Path: "data/journal.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var errNegative = errors.New("must not be negative")

func nonNegativeDuration(value interface{}) error {
	if d, _ := value.(time.Duration); d < 0 {
		return errNegative
	}
	return nil
}

// Validate reports configuration values the service cannot run with.
func (c Config) Validate() error {
	return validation.Errors{
		"server":    c.Server.validate(),
		"converter": c.Converter.validate(),
		"archive":   c.Archive.validate(),
		"log":       c.Log.validate(),
	}.Filter()
}

func (s ServerConfig) validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
		validation.Field(&s.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&s.Workers, validation.Required, validation.Min(1)),
		validation.Field(&s.ShutdownTimeout, validation.By(nonNegativeDuration)),
	)
}

func (c ConverterConfig) validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendLocal, BackendContainer)),
		validation.Field(&c.Binary, validation.When(c.Backend == BackendLocal, validation.Required)),
		validation.Field(&c.Image, validation.When(c.Backend == BackendContainer, validation.Required)),
		validation.Field(&c.Timeout, validation.By(nonNegativeDuration)),
	)
}

func (a ArchiveConfig) validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.MaxBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&a.MaxEntries, validation.Required, validation.Min(1)),
	)
}

func (l LogConfig) validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}
