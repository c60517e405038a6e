// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/docxify/internal/container"
	"github.com/pdiddy/docxify/internal/convert"
	"github.com/pdiddy/docxify/internal/journal"
	"github.com/pdiddy/docxify/internal/materialize"
	"github.com/pdiddy/docxify/internal/pandoc"
	"github.com/pdiddy/docxify/internal/workspace"
	"github.com/pdiddy/docxify/pkg/types"
)

// app holds the components shared by serve and convert.
type app struct {
	fs      afero.Fs
	service *convert.Service
	journal *journal.Journal
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warn("closing journal", "err", err)
		}
	}
}

// newApp wires the conversion pipeline described by c.
func newApp(ctx context.Context, c types.Config, logger *log.Logger) (*app, error) {
	fs := afero.NewOsFs()

	mgr, err := workspace.NewManager(fs, c.Workspace.Root, logger.WithPrefix("workspace"))
	if err != nil {
		return nil, err
	}
	mat := materialize.New(fs, materialize.Limits{
		MaxBytes:   c.Archive.MaxBytes,
		MaxEntries: c.Archive.MaxEntries,
	}, logger.WithPrefix("materialize"))

	conv, err := newConverter(ctx, c.Converter, logger.WithPrefix("pandoc"))
	if err != nil {
		return nil, err
	}

	a := &app{fs: fs}
	var rec convert.Recorder
	if c.Journal.Path != "" {
		j, err := journal.Open(c.Journal.Path)
		if err != nil {
			return nil, err
		}
		a.journal = j
		rec = j
	}

	a.service = convert.NewService(mgr, mat, conv, rec, logger.WithPrefix("convert"))
	return a, nil
}

func newConverter(ctx context.Context, c types.ConverterConfig, logger *log.Logger) (pandoc.Converter, error) {
	exec := container.NewExecutor()
	switch c.Backend {
	case types.BackendContainer:
		rt, err := container.DetectRuntime(ctx, exec)
		if err != nil {
			return nil, fmt.Errorf("container backend: %w", err)
		}
		return pandoc.NewImage(rt, c.Image, c.Timeout, exec, logger), nil
	default:
		return pandoc.NewLocal(c.Binary, c.Timeout, exec, logger), nil
	}
}
