// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/docxify/internal/container"
	"github.com/pdiddy/docxify/internal/logging"
	"github.com/pdiddy/docxify/pkg/types"
)

// Image runs pandoc inside a container. The directory holding the output
// file (the request workspace) is bind-mounted at the same path, so the
// argument vector is identical to the local backend's.
type Image struct {
	rt      container.Runtime
	image   string
	timeout time.Duration
	exec    container.Executor
	logger  *log.Logger
}

// NewImage returns a converter running image through rt.
func NewImage(rt container.Runtime, image string, timeout time.Duration, exec container.Executor, logger *log.Logger) *Image {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Image{rt: rt, image: image, timeout: timeout, exec: exec, logger: logger}
}

func (c *Image) Name() string { return c.rt.Name() + ":" + c.image }

// Convert implements Converter. outputPath must lie in the workspace root
// and in.Path somewhere below it.
func (c *Image) Convert(ctx context.Context, in *types.MaterializedInput, outputPath string) error {
	hostDir := filepath.Dir(outputPath)
	task := c.rt.Task(c.image, hostDir, in.WorkDir, Args(in.Path, in.Format, outputPath))
	return run(ctx, c.exec, task, c.timeout, in, c.logger)
}

// Check verifies the image is present locally.
func (c *Image) Check(ctx context.Context) (string, error) {
	if err := c.rt.ImageExists(ctx, c.image); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrConverterNotFound, err)
	}
	return c.Name(), nil
}
