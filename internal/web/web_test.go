// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docxify/internal/convert"
	"github.com/pdiddy/docxify/internal/httputil"
	"github.com/pdiddy/docxify/internal/materialize"
	"github.com/pdiddy/docxify/internal/workspace"
	"github.com/pdiddy/docxify/pkg/types"
)

// stubConverter writes "DOCX:<format>" to the output path, returns err or
// panics with panicMsg.
type stubConverter struct {
	err      error
	checkErr error
	panicMsg string

	mu   sync.Mutex
	seen []*types.MaterializedInput
}

func (c *stubConverter) Name() string { return "stub" }

func (c *stubConverter) Check(context.Context) (string, error) {
	return "pandoc 3.1", c.checkErr
}

func (c *stubConverter) Convert(_ context.Context, in *types.MaterializedInput, out string) error {
	c.mu.Lock()
	c.seen = append(c.seen, in)
	c.mu.Unlock()
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.err != nil {
		return c.err
	}
	return os.WriteFile(out, []byte("DOCX:"+string(in.Format)), 0o644)
}

type fixture struct {
	server  *httptest.Server
	client  *http.Client
	root    string
	conv    *stubConverter
	flasher *httputil.Flasher
}

func newFixture(t *testing.T, conv *stubConverter, maxUpload int64) *fixture {
	t.Helper()
	fs := afero.NewOsFs()
	root := t.TempDir()
	mgr, err := workspace.NewManager(fs, root, nil)
	require.NoError(t, err)
	mat := materialize.New(fs, materialize.Limits{MaxBytes: 1 << 20, MaxEntries: 100}, nil)
	flasher := httputil.NewFlasher([]byte("0123456789abcdef0123456789abcdef"))

	s := NewServer(Config{
		Service:        convert.NewService(mgr, mat, conv, nil, nil),
		Fs:             fs,
		Flasher:        flasher,
		MaxUploadBytes: maxUpload,
		Workers:        2,
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &fixture{server: srv, client: client, root: root, conv: conv, flasher: flasher}
}

func (f *fixture) postForm(t *testing.T, values url.Values) *http.Response {
	t.Helper()
	resp, err := f.client.PostForm(f.server.URL+"/convert", values)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) postMultipart(t *testing.T, fields map[string]string, fileName string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := f.client.Post(f.server.URL+"/convert", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// followFlash replays the redirect's cookie against GET / and returns the
// rendered page.
func (f *fixture) followFlash(t *testing.T, resp *http.Response) string {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/", nil)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	page, err := f.client.Do(req)
	require.NoError(t, err)
	defer page.Body.Close()
	b, err := io.ReadAll(page.Body)
	require.NoError(t, err)
	return string(b)
}

func (f *fixture) assertNoWorkspaces(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertPastedMarkdownDefaults(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1<<20)

	resp := f.postForm(t, url.Values{"content": {"# Hello"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, httputil.DocxContentType, resp.Header.Get("Content-Type"))

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "converted_document.docx", params["filename"])

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "DOCX:commonmark", string(body))
	f.assertNoWorkspaces(t)
}

func TestConvertUploadWithOutputName(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1<<20)

	resp := f.postMultipart(t, map[string]string{"output_filename": "My Report"}, "page.HTML", []byte("<h1>x</h1>"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "My_Report.docx", params["filename"])
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "DOCX:html", string(body))
	f.assertNoWorkspaces(t)
}

func TestConvertZipProject(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1<<20)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("main.tex")
	require.NoError(t, err)
	_, err = w.Write([]byte(`\documentclass{article}\begin{document}\input{intro}\end{document}`))
	require.NoError(t, err)
	w, err = zw.Create("intro.tex")
	require.NoError(t, err)
	_, err = w.Write([]byte("Intro"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	resp := f.postMultipart(t, nil, "thesis.zip", buf.Bytes())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "DOCX:latex", string(body))

	require.Len(t, f.conv.seen, 1)
	assert.True(t, strings.HasSuffix(f.conv.seen[0].WorkDir, "project_content"))
	f.assertNoWorkspaces(t)
}

func TestConvertFailuresFlash(t *testing.T) {
	tests := []struct {
		name    string
		conv    *stubConverter
		post    func(f *fixture, t *testing.T) *http.Response
		want    string
		invoked bool
	}{
		{
			name: "empty submission",
			conv: &stubConverter{},
			post: func(f *fixture, t *testing.T) *http.Response {
				return f.postForm(t, url.Values{"content": {"   "}})
			},
			want: "Please paste text or upload a file before converting.",
		},
		{
			name: "pandoc failure",
			conv: &stubConverter{err: &types.ExecutionError{ExitCode: 64, Diagnostic: "bad input\n", Format: types.FormatCommonMark, Ext: "md"}},
			post: func(f *fixture, t *testing.T) *http.Response {
				return f.postForm(t, url.Values{"content": {"# x"}, "input_format_selector": {"md"}})
			},
			want:    "Conversion failed (Input format: MD). Error: bad input",
			invoked: true,
		},
		{
			name: "long pandoc diagnostic",
			conv: &stubConverter{err: &types.ExecutionError{
				ExitCode:   64,
				Diagnostic: strings.Repeat("[WARNING] Could not fetch resource 'figures/missing.png'\n", 80) + "bad input",
				Format:     types.FormatCommonMark,
				Ext:        "md",
			}},
			post: func(f *fixture, t *testing.T) *http.Response {
				resp := f.postForm(t, url.Values{"content": {"# x"}, "input_format_selector": {"md"}})
				for _, c := range resp.Cookies() {
					assert.Less(t, len(c.Name)+len(c.Value), 4096)
				}
				return resp
			},
			want:    "missing.png&#39; bad input",
			invoked: true,
		},
		{
			name: "converter panics",
			conv: &stubConverter{panicMsg: "index out of range"},
			post: func(f *fixture, t *testing.T) *http.Response {
				return f.postForm(t, url.Values{"content": {"# x"}})
			},
			want:    "An unexpected server error occurred: conversion panicked: index out of range",
			invoked: true,
		},
		{
			name: "pandoc missing",
			conv: &stubConverter{err: types.ErrConverterNotFound},
			post: func(f *fixture, t *testing.T) *http.Response {
				return f.postForm(t, url.Values{"content": {"# x"}})
			},
			want:    "Pandoc is not installed or not found in system PATH.",
			invoked: true,
		},
		{
			name: "not a zip",
			conv: &stubConverter{},
			post: func(f *fixture, t *testing.T) *http.Response {
				return f.postMultipart(t, nil, "project.zip", []byte("definitely not a zip"))
			},
			want: "The uploaded file is not a valid ZIP archive.",
		},
		{
			name: "zip without main.tex",
			conv: &stubConverter{},
			post: func(f *fixture, t *testing.T) *http.Response {
				var buf bytes.Buffer
				zw := zip.NewWriter(&buf)
				w, _ := zw.Create("paper.tex")
				w.Write([]byte("x"))
				zw.Close()
				return f.postMultipart(t, nil, "project.zip", buf.Bytes())
			},
			want: "main.tex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.conv, 1<<20)
			page := f.followFlash(t, tt.post(f, t))
			assert.Contains(t, page, `class="flash flash-error"`)
			assert.Contains(t, page, escaped(tt.want))
			assert.Equal(t, tt.invoked, len(tt.conv.seen) > 0)
			f.assertNoWorkspaces(t)
		})
	}
}

// escaped renders quotes the way html/template does.
func escaped(s string) string {
	return strings.ReplaceAll(s, `"`, "&#34;")
}

func TestConvertUploadTooLarge(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1024)

	resp := f.postMultipart(t, nil, "big.md", bytes.Repeat([]byte("a"), 4096))
	page := f.followFlash(t, resp)
	assert.Contains(t, page, "The upload exceeds the 1.0 KiB limit.")
	assert.Empty(t, f.conv.seen)
}

func TestIndexWithoutFlash(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1<<20)

	resp, err := f.client.Get(f.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), `class="flash`)
	assert.Contains(t, string(body), `<option value="md" selected>md</option>`)
	assert.Contains(t, string(body), `value="converted_document"`)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestForgedFlashIgnored(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1<<20)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: httputil.FlashCookie, Value: "ZXJyb3I6cHduZWQ.forged"})
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "pwned")
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newFixture(t, &stubConverter{}, 1<<20)
		resp, err := f.client.Get(f.server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok pandoc 3.1\n", string(body))
	})
	t.Run("converter missing", func(t *testing.T) {
		f := newFixture(t, &stubConverter{checkErr: types.ErrConverterNotFound}, 1<<20)
		resp, err := f.client.Get(f.server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestConcurrentRequests(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1<<20)

	var wg sync.WaitGroup
	codes := make(chan int, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.client.PostForm(f.server.URL+"/convert", url.Values{"content": {"text"}, "input_format_selector": {"txt"}})
			if err != nil {
				codes <- 0
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	f.assertNoWorkspaces(t)
}

func TestListenAndServeShutdown(t *testing.T) {
	fs := afero.NewOsFs()
	mgr, err := workspace.NewManager(fs, t.TempDir(), nil)
	require.NoError(t, err)
	s := NewServer(Config{
		Service: convert.NewService(mgr, materialize.New(fs, materialize.Limits{MaxBytes: 1, MaxEntries: 1}, nil), &stubConverter{}, nil, nil),
		Fs:      fs,
		Flasher: httputil.NewFlasher([]byte("k")),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0", time.Second) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestRecoverToFlash(t *testing.T) {
	f := newFixture(t, &stubConverter{}, 1<<20)
	s := NewServer(Config{Flasher: f.flasher})

	t.Run("before response", func(t *testing.T) {
		h := s.recoverToFlash(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("form parser exploded")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", nil))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		page := f.followFlash(t, rec.Result())
		assert.Contains(t, page, "An unexpected server error occurred: conversion panicked: form parser exploded")
	})

	t.Run("after response started", func(t *testing.T) {
		h := s.recoverToFlash(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			panic("mid stream")
		}))
		assert.PanicsWithValue(t, "mid stream", func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/convert", nil))
		})
	})
}
