// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a SQLite log of conversions. Only metadata is stored
// (formats, outcome, sizes, timings); documents never are.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docxify/pkg/types"
)

// Entry is one journaled conversion.
type Entry struct {
	ID          string                 `json:"id" yaml:"id"`
	StartedAt   time.Time              `json:"started_at" yaml:"started_at"`
	Source      string                 `json:"source" yaml:"source"`
	InputExt    string                 `json:"input_ext" yaml:"input_ext"`
	Format      types.FormatID         `json:"format" yaml:"format"`
	Status      types.ConversionStatus `json:"status" yaml:"status"`
	ErrorKind   types.ErrorKind        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Duration    time.Duration          `json:"duration" yaml:"duration"`
	InputBytes  int64                  `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int64                  `json:"output_bytes" yaml:"output_bytes"`
}

// Stats summarises the journal.
type Stats struct {
	Total       int                            `json:"total" yaml:"total"`
	ByStatus    map[types.ConversionStatus]int `json:"by_status" yaml:"by_status"`
	ByFormat    map[types.FormatID]int         `json:"by_format" yaml:"by_format"`
	AvgDuration time.Duration                  `json:"avg_duration" yaml:"avg_duration"`
	OutputBytes int64                          `json:"output_bytes" yaml:"output_bytes"`
}

// Journal manages the conversion journal database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path, creating the parent
// directory and the schema when needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			source TEXT NOT NULL,
			input_ext TEXT,
			format TEXT,
			status TEXT NOT NULL,
			error_kind TEXT,
			duration_ms INTEGER NOT NULL,
			input_bytes INTEGER NOT NULL,
			output_bytes INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_started_at ON conversions(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts e, assigning an ID when it has none.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO conversions
			(id, started_at, source, input_ext, format, status, error_kind, duration_ms, input_bytes, output_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StartedAt.UnixNano(), e.Source, e.InputExt, string(e.Format),
		string(e.Status), string(e.ErrorKind), e.Duration.Milliseconds(), e.InputBytes, e.OutputBytes,
	)
	if err != nil {
		return fmt.Errorf("recording conversion %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, source, input_ext, format, status, error_kind, duration_ms, input_bytes, output_bytes
		FROM conversions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			started    int64
			format     sql.NullString
			inputExt   sql.NullString
			status     string
			errorKind  sql.NullString
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &started, &e.Source, &inputExt, &format, &status, &errorKind,
			&durationMs, &e.InputBytes, &e.OutputBytes); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		e.StartedAt = time.Unix(0, started).UTC()
		e.InputExt = inputExt.String
		e.Format = types.FormatID(format.String)
		e.Status = types.ConversionStatus(status)
		e.ErrorKind = types.ErrorKind(errorKind.String)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats computes totals over the whole journal.
func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	s := Stats{
		ByStatus: make(map[types.ConversionStatus]int),
		ByFormat: make(map[types.FormatID]int),
	}

	var avgMs sql.NullFloat64
	var outBytes sql.NullInt64
	if err := j.db.QueryRowContext(ctx,
		`SELECT count(*), avg(duration_ms), sum(output_bytes) FROM conversions`,
	).Scan(&s.Total, &avgMs, &outBytes); err != nil {
		return s, fmt.Errorf("computing totals: %w", err)
	}
	s.AvgDuration = time.Duration(avgMs.Float64 * float64(time.Millisecond))
	s.OutputBytes = outBytes.Int64

	if err := j.countBy(ctx, "status", func(k string, n int) { s.ByStatus[types.ConversionStatus(k)] = n }); err != nil {
		return s, err
	}
	if err := j.countBy(ctx, "format", func(k string, n int) {
		if k != "" {
			s.ByFormat[types.FormatID(k)] = n
		}
	}); err != nil {
		return s, err
	}
	return s, nil
}

// countBy groups conversions by column, which must be a trusted identifier.
func (j *Journal) countBy(ctx context.Context, column string, add func(string, int)) error {
	rows, err := j.db.QueryContext(ctx,
		`SELECT coalesce(`+column+`, ''), count(*) FROM conversions GROUP BY 1`)
	if err != nil {
		return fmt.Errorf("counting by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning %s count: %w", column, err)
		}
		add(key, n)
	}
	return rows.Err()
}
