// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP response helpers used by the web front
// end: file attachments, signed flash messages, and security headers.
package httputil

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/spf13/afero"
)

// DocxContentType is the media type of Word documents.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrPartialWrite marks a failure after the response headers were sent.
var ErrPartialWrite = errors.New("response partially written")

// SendAttachment streams the file at path as a download named filename.
// Headers are only written once the file is open, so a failure before that
// leaves the response untouched for the caller to report.
func SendAttachment(w http.ResponseWriter, fs afero.Fs, path, filename, contentType string) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	// The status line is gone; a copy error can only be logged by the caller.
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: %w", ErrPartialWrite, err)
	}
	return nil
}
