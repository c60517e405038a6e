// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package materialize stages the document to convert inside a workspace.
// A request yields exactly one source file: pasted text, a single uploaded
// file, or the main.tex of an uploaded zip project.
package materialize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/pdiddy/docxify/internal/format"
	"github.com/pdiddy/docxify/internal/logging"
	"github.com/pdiddy/docxify/internal/workspace"
	"github.com/pdiddy/docxify/pkg/types"
)

const (
	// inputBase is the file name (without extension) of staged single files.
	inputBase = "input_data"
	// archiveName is where an uploaded zip is saved before extraction.
	archiveName = "uploaded_project.zip"
	// projectDir is the subdirectory a zip project is extracted into.
	projectDir = "project_content"
	// entryPoint must exist at the root of an uploaded project.
	entryPoint = "main.tex"
	// defaultUploadExt is used for uploads whose name has no extension.
	defaultUploadExt = "txt"
)

// User-facing messages for rejected input.
const (
	MsgNothingToConvert = "Please paste text or upload a file before converting."
	MsgNotAnArchive     = "The uploaded file is not a valid ZIP archive."
	MsgMissingEntry     = `ZIP extracted, but "main.tex" not found in root of archive. Please rename your main file to "main.tex" before zipping.`
)

// Limits bounds archive extraction.
type Limits struct {
	// MaxBytes caps the total uncompressed size of all entries.
	MaxBytes int64
	// MaxEntries caps the number of entries.
	MaxEntries int
}

// Materializer writes request payloads into workspaces.
type Materializer struct {
	fs     afero.Fs
	limits Limits
	logger *log.Logger
}

// New returns a Materializer writing to fs. It must be the filesystem the
// workspaces are created on. A nil logger discards output.
func New(fs afero.Fs, limits Limits, logger *log.Logger) *Materializer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Materializer{fs: fs, limits: limits, logger: logger}
}

// Materialize stages the request's document inside ws. Uploads take
// precedence over pasted text; zip uploads are extracted and their main.tex
// becomes the input.
func (m *Materializer) Materialize(ctx context.Context, req types.ConversionRequest, ws *workspace.Workspace) (*types.MaterializedInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		in  *types.MaterializedInput
		err error
	)
	switch {
	case req.HasUpload() && format.Ext(req.Upload.Filename, defaultUploadExt) == "zip":
		in, err = m.archive(ctx, req.Upload, ws)
	case req.HasUpload():
		in, err = m.upload(req.Upload, ws)
	case strings.TrimSpace(req.Content) != "":
		in, err = m.pasted(req, ws)
	default:
		return nil, types.NewUserError(types.ErrInvalidInput, MsgNothingToConvert)
	}
	if err != nil {
		return nil, err
	}

	m.logger.Debug("input materialized",
		"workspace", ws.ID, "path", in.Path, "format", in.Format, "mime", in.MIME, "bytes", in.Size)
	return in, nil
}

func (m *Materializer) upload(up *types.UploadedFile, ws *workspace.Workspace) (*types.MaterializedInput, error) {
	ext := format.Ext(up.Filename, defaultUploadExt)
	path := ws.Path(inputBase + "." + ext)
	if err := afero.WriteFile(m.fs, path, up.Data, 0o600); err != nil {
		return nil, fmt.Errorf("saving upload %s: %w", up.Filename, err)
	}
	return staged(path, ext, up.Data), nil
}

func (m *Materializer) pasted(req types.ConversionRequest, ws *workspace.Workspace) (*types.MaterializedInput, error) {
	sel := strings.ToLower(strings.TrimSpace(req.FormatSelector))
	if sel == "" {
		sel = format.DefaultSelector
	}
	if !format.IsSelector(sel) {
		return nil, types.NewUserError(types.ErrInvalidInput,
			fmt.Sprintf("Unsupported input format %q. Choose one of: %s.", req.FormatSelector, strings.Join(format.Selectors(), ", ")))
	}

	data := []byte(strings.TrimSpace(req.Content))
	path := ws.Path(inputBase + "." + sel)
	if err := afero.WriteFile(m.fs, path, data, 0o600); err != nil {
		return nil, fmt.Errorf("saving pasted text: %w", err)
	}
	return staged(path, sel, data), nil
}

func staged(path, ext string, data []byte) *types.MaterializedInput {
	return &types.MaterializedInput{
		Path:    path,
		WorkDir: filepath.Dir(path),
		Ext:     ext,
		Format:  format.Resolve(ext),
		MIME:    mimetype.Detect(data).String(),
		Size:    int64(len(data)),
	}
}
