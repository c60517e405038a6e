// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/docxify/internal/container"
	"github.com/pdiddy/docxify/internal/logging"
	"github.com/pdiddy/docxify/pkg/types"
)

// Local runs a pandoc binary on the host.
type Local struct {
	binary  string
	timeout time.Duration
	exec    container.Executor
	logger  *log.Logger
}

// NewLocal returns a converter running binary (a name looked up on PATH, or
// a path). A zero timeout lets pandoc run until it exits.
func NewLocal(binary string, timeout time.Duration, exec container.Executor, logger *log.Logger) *Local {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Local{binary: binary, timeout: timeout, exec: exec, logger: logger}
}

func (l *Local) Name() string { return l.binary }

// Convert implements Converter.
func (l *Local) Convert(ctx context.Context, in *types.MaterializedInput, outputPath string) error {
	path, err := l.lookup()
	if err != nil {
		return err
	}
	task := container.Task{
		Name: path,
		Args: Args(in.Path, in.Format, outputPath),
		Dir:  in.WorkDir,
	}
	return run(ctx, l.exec, task, l.timeout, in, l.logger)
}

// Check runs "pandoc --version" and returns its first line.
func (l *Local) Check(ctx context.Context) (string, error) {
	path, err := l.lookup()
	if err != nil {
		return "", err
	}
	res, err := l.exec.Run(ctx, container.Task{Name: path, Args: []string{"--version"}})
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", path, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s --version exited with code %d: %s", path, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	first, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	return first, nil
}

func (l *Local) lookup() (string, error) {
	path, err := l.exec.LookPath(l.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", types.ErrConverterNotFound, l.binary, err)
	}
	return path, nil
}
