// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs one conversion end to end: it opens a workspace,
// stages the input, invokes pandoc and hands the result to the caller while
// the workspace still exists. The workspace is removed afterwards on every
// path.
package convert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/docxify/internal/filename"
	"github.com/pdiddy/docxify/internal/journal"
	"github.com/pdiddy/docxify/internal/logging"
	"github.com/pdiddy/docxify/internal/materialize"
	"github.com/pdiddy/docxify/internal/pandoc"
	"github.com/pdiddy/docxify/internal/workspace"
	"github.com/pdiddy/docxify/pkg/types"
)

// outputFile is the name pandoc writes to inside the workspace. It never
// collides with staged inputs, which are all named input_data.* or live in
// the project directory.
const outputFile = "output.docx"

// ErrPanic wraps a panic raised while staging or converting.
var ErrPanic = errors.New("conversion panicked")

// Emitter receives a finished document. The file at OutputPath is removed
// as soon as the emitter returns.
type Emitter func(*types.ConversionResult) error

// Recorder stores journal entries. *journal.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Service wires the conversion steps together. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	workspaces   *workspace.Manager
	materializer *materialize.Materializer
	converter    pandoc.Converter
	recorder     Recorder
	logger       *log.Logger
}

// NewService builds a Service. recorder may be nil to disable journaling;
// a nil logger discards output.
func NewService(ws *workspace.Manager, m *materialize.Materializer, c pandoc.Converter, recorder Recorder, logger *log.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		workspaces:   ws,
		materializer: m,
		converter:    c,
		recorder:     recorder,
		logger:       logger,
	}
}

// Converter returns the converter the service runs.
func (s *Service) Converter() pandoc.Converter { return s.converter }

// Run converts req and calls emit with the result. Run returns emit's error,
// or the error of whichever step failed first; emit is not called then.
func (s *Service) Run(ctx context.Context, req types.ConversionRequest, emit Emitter) error {
	started := time.Now()
	entry := journal.Entry{StartedAt: started, Source: req.Source}

	err := s.workspaces.With(ctx, func(ws *workspace.Workspace) error {
		entry.ID = ws.ID

		var in *types.MaterializedInput
		err := recovered(func() (err error) {
			in, err = s.materializer.Materialize(ctx, req, ws)
			return err
		})
		if err != nil {
			return err
		}
		entry.InputExt = in.Ext
		entry.Format = in.Format
		entry.InputBytes = in.Size

		out := ws.Path(outputFile)
		t0 := time.Now()
		if err := recovered(func() error { return s.converter.Convert(ctx, in, out) }); err != nil {
			return err
		}
		elapsed := time.Since(t0)

		info, err := s.workspaces.Fs().Stat(out)
		if err != nil {
			return fmt.Errorf("pandoc reported success but wrote no output: %w", err)
		}
		entry.OutputBytes = info.Size()

		return emit(&types.ConversionResult{
			OutputPath: out,
			Filename:   filename.Sanitize(req.OutputName),
			Format:     in.Format,
			Duration:   elapsed,
		})
	})

	entry.Duration = time.Since(started)
	entry.ErrorKind = types.KindOf(err)
	entry.Status = statusOf(entry.ErrorKind)
	s.finish(ctx, entry, err)
	return err
}

// recovered runs fn and turns a panic into an error, so the workspace is
// still removed and the failure is reported like any other.
func recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

func statusOf(kind types.ErrorKind) types.ConversionStatus {
	switch {
	case kind == types.KindNone:
		return types.ConversionDone
	case kind.Rejected():
		return types.ConversionRejected
	default:
		return types.ConversionFailed
	}
}

func (s *Service) finish(ctx context.Context, e journal.Entry, err error) {
	fields := []interface{}{
		"id", e.ID, "source", e.Source, "format", e.Format,
		"status", e.Status, "elapsed", e.Duration.Round(time.Millisecond),
	}
	switch e.Status {
	case types.ConversionDone:
		s.logger.Info("conversion done", append(fields, "bytes", e.OutputBytes)...)
	case types.ConversionRejected:
		s.logger.Info("conversion rejected", append(fields, "kind", e.ErrorKind, "err", err)...)
	default:
		s.logger.Error("conversion failed", append(fields, "kind", e.ErrorKind, "err", err)...)
	}

	if s.recorder == nil {
		return
	}
	// The request context may already be cancelled; the journal entry is
	// still wanted.
	if rerr := s.recorder.Record(context.WithoutCancel(ctx), e); rerr != nil {
		s.logger.Warn("journal write failed", "err", rerr)
	}
}
