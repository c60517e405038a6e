// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the conversion form and the POST /convert endpoint.
// Successful conversions are answered with the .docx attachment; every
// failure redirects back to the form with a flash message.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/docxify/internal/convert"
	"github.com/pdiddy/docxify/internal/filename"
	"github.com/pdiddy/docxify/internal/format"
	"github.com/pdiddy/docxify/internal/httputil"
	"github.com/pdiddy/docxify/internal/logging"
	"github.com/pdiddy/docxify/pkg/types"
)

//go:embed templates/index.html
var templates embed.FS

var indexTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

// Config holds what the HTTP front end needs. Everything is passed in;
// the package keeps no globals.
type Config struct {
	// Service runs conversions.
	Service *convert.Service

	// Fs is the filesystem workspaces live on, used to stream results.
	Fs afero.Fs

	// Flasher signs flash cookies.
	Flasher *httputil.Flasher

	// MaxUploadBytes caps the request body of POST /convert.
	MaxUploadBytes int64

	// Workers bounds concurrent conversions.
	Workers int

	Logger *log.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	sem    *semaphore.Weighted
	router chi.Router
	logger *log.Logger
}

// NewServer builds the router and middleware stack.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = types.DefaultConfig().Server.MaxUploadBytes
	}
	s := &Server{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.Workers)),
		logger: cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(httputil.SecurityHeaders)
	r.Use(cfg.Flasher.Middleware)

	r.Get("/", s.handleIndex)
	r.With(s.recoverToFlash).Post("/convert", s.handleConvert)
	r.Get("/healthz", s.handleHealth)
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "workers", s.cfg.Workers,
			"max_upload", humanize.IBytes(uint64(s.cfg.MaxUploadBytes)))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type indexData struct {
	Flash           *httputil.FlashMessage
	Selectors       []string
	DefaultSelector string
	DefaultName     string
	MaxUpload       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := indexTmpl.Execute(w, indexData{
		Flash:           httputil.GetFlash(r.Context()),
		Selectors:       format.Selectors(),
		DefaultSelector: format.DefaultSelector,
		DefaultName:     filename.DefaultBase,
		MaxUpload:       humanize.IBytes(uint64(s.cfg.MaxUploadBytes)),
	})
	if err != nil {
		s.logger.Error("rendering index", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	version, err := s.cfg.Service.Converter().Check(ctx)
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "unavailable: %v\n", err)
		return
	}
	fmt.Fprintf(w, "ok %s\n", version)
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"elapsed", time.Since(start).Round(time.Millisecond),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// recoverToFlash turns a panic in a form handler into the usual error
// redirect. Once the response has started the panic is passed on to
// middleware.Recoverer.
func (s *Server) recoverToFlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler || ww.Status() != 0 {
				panic(rec)
			}
			s.logger.Error("panic in handler",
				"id", middleware.GetReqID(r.Context()), "panic", rec, "stack", string(debug.Stack()))
			err := fmt.Errorf("%w: %v", convert.ErrPanic, rec)
			s.fail(ww, r, err, convert.Message(err))
		}()
		next.ServeHTTP(ww, r)
	})
}
