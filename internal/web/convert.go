// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/docxify/internal/convert"
	"github.com/pdiddy/docxify/internal/filename"
	"github.com/pdiddy/docxify/internal/format"
	"github.com/pdiddy/docxify/internal/httputil"
	"github.com/pdiddy/docxify/pkg/types"
)

// Form field names.
const (
	fieldContent  = "content"
	fieldFile     = "file"
	fieldSelector = "input_format_selector"
	fieldOutput   = "output_filename"
)

// memoryLimit is how much of a multipart body is kept in memory before
// parts spill to temporary files.
const memoryLimit = 8 << 20

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	req, err := s.parseRequest(r)
	if err != nil {
		msg := "The submitted form could not be read."
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = fmt.Sprintf("The upload exceeds the %s limit.", humanize.IBytes(uint64(tooBig.Limit)))
		}
		s.fail(w, r, fmt.Errorf("%w: %w", types.ErrInvalidInput, err), msg)
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		// Client gave up while queued.
		s.logger.Debug("conversion abandoned in queue", "id", middleware.GetReqID(r.Context()), "err", err)
		return
	}
	defer s.sem.Release(1)

	err = s.cfg.Service.Run(r.Context(), req, func(res *types.ConversionResult) error {
		return httputil.SendAttachment(w, s.cfg.Fs, res.OutputPath, res.Filename, httputil.DocxContentType)
	})
	switch {
	case err == nil:
	case errors.Is(err, httputil.ErrPartialWrite):
		s.logger.Warn("download interrupted", "id", middleware.GetReqID(r.Context()), "err", err)
	default:
		s.fail(w, r, err, convert.Message(err))
	}
}

// parseRequest reads the form into a ConversionRequest. Missing fields take
// their defaults.
func (s *Server) parseRequest(r *http.Request) (types.ConversionRequest, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(memoryLimit)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return types.ConversionRequest{}, fmt.Errorf("reading form: %w", err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := types.ConversionRequest{
		Content:        r.FormValue(fieldContent),
		FormatSelector: format.DefaultSelector,
		OutputName:     filename.DefaultBase,
		Source:         "web",
	}
	if _, ok := r.Form[fieldSelector]; ok {
		req.FormatSelector = r.FormValue(fieldSelector)
	}
	if _, ok := r.Form[fieldOutput]; ok {
		req.OutputName = r.FormValue(fieldOutput)
	}

	f, hdr, err := r.FormFile(fieldFile)
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return req, nil
	case err != nil:
		return req, fmt.Errorf("reading upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return req, fmt.Errorf("reading upload %s: %w", hdr.Filename, err)
	}
	req.Upload = &types.UploadedFile{Filename: hdr.Filename, Data: data}
	return req, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	s.logger.Debug("redirecting with flash",
		"id", middleware.GetReqID(r.Context()), "kind", types.KindOf(err), "message", message)
	s.cfg.Flasher.Redirect(w, r, "/", httputil.FlashError, message)
}
