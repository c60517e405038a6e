// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace manages the disposable scratch directories that hold one
// request's input, extracted project and output. A workspace belongs to a
// single request and is removed when that request is done with it, whatever
// the outcome.
package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pdiddy/docxify/internal/logging"
)

const prefix = "docxify-"

// Workspace is an exclusively owned scratch directory.
type Workspace struct {
	// ID uniquely identifies the workspace; it is part of Dir.
	ID string

	// Dir is the absolute path of the directory.
	Dir string

	fs      afero.Fs
	logger  *log.Logger
	created time.Time
	once    sync.Once
}

// Path joins elem onto the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Close removes the workspace and everything in it. Only the first call does
// any work. Removal failures are logged and otherwise ignored.
func (w *Workspace) Close() {
	w.once.Do(func() {
		if err := w.fs.RemoveAll(w.Dir); err != nil {
			w.logger.Warn("workspace cleanup failed", "dir", w.Dir, "err", err)
			return
		}
		w.logger.Debug("workspace removed", "id", w.ID, "age", time.Since(w.created).Round(time.Millisecond))
	})
}

// Manager creates workspaces under a root directory.
type Manager struct {
	fs     afero.Fs
	root   string
	logger *log.Logger
}

// NewManager returns a Manager creating workspaces in root on fs. An empty
// root means the system temporary directory. A nil logger discards output.
func NewManager(fs afero.Fs, root string, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving workspace root %s: %w", root, err)
		}
		if err := fs.MkdirAll(abs, 0o700); err != nil {
			return nil, fmt.Errorf("creating workspace root %s: %w", abs, err)
		}
		root = abs
	}
	return &Manager{fs: fs, root: root, logger: logger}, nil
}

// Fs returns the filesystem workspaces live on.
func (m *Manager) Fs() afero.Fs { return m.fs }

// Open creates a new workspace. The caller must Close it.
func (m *Manager) Open(ctx context.Context) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	dir, err := afero.TempDir(m.fs, m.root, prefix+id+"-")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}

	m.logger.Debug("workspace created", "id", id, "dir", dir)
	return &Workspace{
		ID:      id,
		Dir:     dir,
		fs:      m.fs,
		logger:  m.logger,
		created: time.Now(),
	}, nil
}

// With creates a workspace, runs fn with it and removes the workspace
// afterwards, including when fn returns an error or panics. The error
// returned is fn's; cleanup problems are only logged.
func (m *Manager) With(ctx context.Context, fn func(*Workspace) error) error {
	ws, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	return fn(ws)
}
