// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package materialize

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/pdiddy/docxify/internal/workspace"
	"github.com/pdiddy/docxify/pkg/types"
)

// archive saves an uploaded zip, extracts it under projectDir and returns
// its main.tex as a LaTeX input running in the project root.
func (m *Materializer) archive(ctx context.Context, up *types.UploadedFile, ws *workspace.Workspace) (*types.MaterializedInput, error) {
	mt := mimetype.Detect(up.Data)
	if !isZip(mt) {
		return nil, corrupt(fmt.Errorf("%s sniffed as %s", up.Filename, mt))
	}

	zipPath := ws.Path(archiveName)
	if err := afero.WriteFile(m.fs, zipPath, up.Data, 0o600); err != nil {
		return nil, fmt.Errorf("saving archive %s: %w", up.Filename, err)
	}

	root := ws.Path(projectDir)
	if err := m.fs.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	total, err := m.extract(ctx, zipPath, root)
	if err != nil {
		return nil, err
	}

	mainPath := filepath.Join(root, entryPoint)
	info, err := m.fs.Stat(mainPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, types.NewUserError(types.ErrMissingEntryPoint, MsgMissingEntry)
	}

	m.logger.Debug("archive extracted", "workspace", ws.ID, "bytes", humanize.IBytes(uint64(total)))
	return &types.MaterializedInput{
		Path:    mainPath,
		WorkDir: root,
		Ext:     "tex",
		Format:  types.FormatLaTeX,
		MIME:    mt.String(),
		Size:    info.Size(),
	}, nil
}

// extract unpacks the zip at zipPath into root and returns the number of
// bytes written. Entries escaping root are treated as a corrupt archive;
// symlinks are skipped.
func (m *Materializer) extract(ctx context.Context, zipPath, root string) (int64, error) {
	f, err := m.fs.Open(zipPath)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("reading archive size: %w", err)
	}

	// zip.ErrInsecurePath also lands here; such archives are refused.
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return 0, corrupt(err)
	}

	if m.limits.MaxEntries > 0 && len(zr.File) > m.limits.MaxEntries {
		return 0, m.tooLarge(fmt.Sprintf("more than %s entries", humanize.Comma(int64(m.limits.MaxEntries))))
	}

	var written int64
	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		name := filepath.FromSlash(strings.TrimSuffix(zf.Name, "/"))
		if name == "" || name == "." {
			continue
		}
		if !filepath.IsLocal(name) {
			return written, corrupt(fmt.Errorf("entry %q escapes the project directory", zf.Name))
		}

		mode := zf.Mode()
		if mode&fs.ModeSymlink != 0 {
			m.logger.Debug("skipping symlink in archive", "entry", zf.Name)
			continue
		}

		dest := filepath.Join(root, name)
		if zf.FileInfo().IsDir() {
			if err := m.fs.MkdirAll(dest, 0o700); err != nil {
				return written, fmt.Errorf("creating %s: %w", zf.Name, err)
			}
			continue
		}

		n, err := m.extractFile(zf, dest, m.remaining(written))
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// extractFile writes one entry to dest, refusing to write more than budget
// bytes (budget < 0 means unlimited).
func (m *Materializer) extractFile(zf *zip.File, dest string, budget int64) (int64, error) {
	if err := m.fs.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", zf.Name, err)
	}

	rc, err := zf.Open()
	if err != nil {
		return 0, corrupt(fmt.Errorf("opening entry %s: %w", zf.Name, err))
	}
	defer rc.Close()

	out, err := m.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", zf.Name, err)
	}
	defer out.Close()

	var src io.Reader = rc
	if budget >= 0 {
		src = io.LimitReader(rc, budget+1)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		return n, corrupt(fmt.Errorf("extracting %s: %w", zf.Name, err))
	}
	if budget >= 0 && n > budget {
		return n, m.tooLarge(fmt.Sprintf("more than %s uncompressed", humanize.IBytes(uint64(m.limits.MaxBytes))))
	}
	return n, nil
}

func (m *Materializer) remaining(written int64) int64 {
	if m.limits.MaxBytes <= 0 {
		return -1
	}
	return m.limits.MaxBytes - written
}

func (m *Materializer) tooLarge(detail string) error {
	return types.NewUserError(types.ErrArchiveTooLarge,
		fmt.Sprintf("The uploaded ZIP archive is too large to extract (%s).", detail))
}

// isZip reports whether mt is a zip archive or a zip-based format.
func isZip(mt *mimetype.MIME) bool {
	for ; mt != nil; mt = mt.Parent() {
		if mt.Is("application/zip") {
			return true
		}
	}
	return false
}

func corrupt(cause error) error {
	return fmt.Errorf("%w: %w", types.NewUserError(types.ErrCorruptArchive, MsgNotAnArchive), cause)
}
