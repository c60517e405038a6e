// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/pdiddy/docxify/internal/filename"
	"github.com/pdiddy/docxify/pkg/types"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertFile converts the file at path and writes <base>.docx into outDir.
// An existing output is left alone and reported as skipped. Per-file status
// goes to w.
func (s *Service) ConvertFile(ctx context.Context, path, outDir string, w io.Writer) types.ConversionStatus {
	fs := s.workspaces.Fs()
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := filename.Sanitize(base)
	dest := filepath.Join(outDir, name)

	if _, err := fs.Stat(dest); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
		return types.ConversionSkipped
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(path), err)
		return types.ConversionFailed
	}
	if err := fs.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(path), err)
		return types.ConversionFailed
	}

	req := types.ConversionRequest{
		Upload:     &types.UploadedFile{Filename: filepath.Base(path), Data: data},
		OutputName: name,
		Source:     "cli",
	}
	var size int64
	err = s.Run(ctx, req, func(res *types.ConversionResult) error {
		out, err := afero.ReadFile(fs, res.OutputPath)
		if err != nil {
			return err
		}
		size = int64(len(out))
		return afero.WriteFile(fs, dest, out, 0o644)
	})
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%s)\n", filepath.Base(path), Message(err))
		return types.ConversionFailed
	}

	fmt.Fprintf(w, "converted: %s (%s)\n", name, humanize.Bytes(uint64(size)))
	return types.ConversionDone
}

// ConvertPaths converts each path in order, printing per-file status to w
// and returning a summary. A cancelled context stops the run; files not yet
// reached are not counted.
func (s *Service) ConvertPaths(ctx context.Context, paths []string, outDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		switch s.ConvertFile(ctx, p, outDir, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
