// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pandoc invokes the pandoc document converter, either from the host
// PATH or inside a container image whose entrypoint is pandoc. Both backends
// pass exactly the same argument vector and run in the directory holding the
// input, so relative includes in LaTeX projects resolve.
package pandoc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/docxify/internal/container"
	"github.com/pdiddy/docxify/pkg/types"
)

// Converter turns a staged input into a .docx file. Different backends
// (local binary, container) implement this interface.
type Converter interface {
	// Name identifies the backend in logs ("pandoc", "docker:pandoc/latex").
	Name() string

	// Convert writes the .docx for in to outputPath. It blocks until pandoc
	// exits or ctx ends.
	Convert(ctx context.Context, in *types.MaterializedInput, outputPath string) error

	// Check verifies that the converter can run, returning a short
	// description of what was found.
	Check(ctx context.Context) (string, error)
}

// Args returns pandoc's argument vector for converting inputPath, read as
// format f, into a standalone .docx at outputPath with MathML equations.
func Args(inputPath string, f types.FormatID, outputPath string) []string {
	return []string{
		inputPath,
		"-s",
		"-f" + string(f),
		"-tdocx",
		"-o", outputPath,
		"--mathml",
	}
}

// run executes task with the optional timeout and maps its outcome onto the
// converter error kinds.
func run(ctx context.Context, ex container.Executor, task container.Task, timeout time.Duration, in *types.MaterializedInput, logger *log.Logger) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Debug("running converter", "cmd", task.Name, "args", strings.Join(task.Args, " "), "dir", task.Dir)
	start := time.Now()
	res, err := ex.Run(runCtx, task)
	elapsed := time.Since(start)

	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("running pandoc: %w", ctx.Err())
	case runCtx.Err() != nil:
		return fmt.Errorf("%w after %s", types.ErrConverterTimeout, timeout)
	case err != nil && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)):
		return fmt.Errorf("%w: %s: %w", types.ErrConverterNotFound, task.Name, err)
	case err != nil:
		return fmt.Errorf("running pandoc: %w", err)
	}

	if res.ExitCode != 0 {
		diag := res.Stderr
		if strings.TrimSpace(diag) == "" {
			diag = res.Stdout
		}
		logger.Warn("converter failed", "code", res.ExitCode, "format", in.Format, "elapsed", elapsed.Round(time.Millisecond))
		return &types.ExecutionError{
			ExitCode:   res.ExitCode,
			Diagnostic: diag,
			Format:     in.Format,
			Ext:        in.Ext,
		}
	}

	if w := strings.TrimSpace(res.Stderr); w != "" {
		logger.Debug("converter warnings", "stderr", w)
	}
	logger.Debug("converter finished", "format", in.Format, "elapsed", elapsed.Round(time.Millisecond))
	return nil
}
