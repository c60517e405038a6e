// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the request-scoped values shared by the docxify
// components: the incoming request, the staged input, the conversion result,
// and the service configuration.
package types

import "time"

// FormatID is a pandoc input format identifier (the value passed to -f).
type FormatID string

const (
	FormatCommonMark FormatID = "commonmark"
	FormatLaTeX      FormatID = "latex"
	FormatHTML       FormatID = "html"
	FormatPlain      FormatID = "plain"
)

// ConversionStatus records the outcome of one conversion.
type ConversionStatus string

const (
	// ConversionDone means a .docx was produced.
	ConversionDone ConversionStatus = "converted"
	// ConversionFailed means pandoc ran (or was attempted) and failed.
	ConversionFailed ConversionStatus = "failed"
	// ConversionRejected means the input was refused before pandoc ran.
	ConversionRejected ConversionStatus = "rejected"
	// ConversionSkipped means the output already existed (batch mode only).
	ConversionSkipped ConversionStatus = "skipped"
)

// UploadedFile is a file received from the caller.
type UploadedFile struct {
	// Filename is the client-supplied name, used only for its extension.
	Filename string

	// Data holds the raw uploaded bytes.
	Data []byte
}

// ConversionRequest is one conversion ask: pasted text or an uploaded file,
// plus the requested output name. When both Content and Upload are set the
// upload takes precedence.
type ConversionRequest struct {
	// Content is pasted text.
	Content string

	// Upload is the uploaded file, nil when none was sent.
	Upload *UploadedFile

	// FormatSelector is the format tag chosen for pasted text (default "md").
	FormatSelector string

	// OutputName is the raw requested download name, sanitized before use.
	OutputName string

	// Source labels where the request came from ("web", "cli") for the journal.
	Source string
}

// HasUpload reports whether the request carries a named, uploaded file.
func (r ConversionRequest) HasUpload() bool {
	return r.Upload != nil && r.Upload.Filename != ""
}

// MaterializedInput is the single source document staged inside a workspace.
type MaterializedInput struct {
	// Path is the absolute path of the document to convert.
	Path string

	// WorkDir is the directory pandoc runs in. For zipped projects this is the
	// extracted project root so relative includes resolve.
	WorkDir string

	// Ext is the extension the format was resolved from (e.g. "md", "tex").
	Ext string

	// Format is the resolved pandoc input format.
	Format FormatID

	// MIME is the sniffed content type of the staged bytes. Diagnostic only.
	MIME string

	// Size is the number of bytes staged at Path.
	Size int64
}

// ConversionResult describes a produced .docx file.
type ConversionResult struct {
	// OutputPath is where pandoc wrote the document, inside the workspace.
	OutputPath string

	// Filename is the sanitized download name.
	Filename string

	// Format is the input format the document was converted from.
	Format FormatID

	// Duration is the wall-clock time pandoc took.
	Duration time.Duration
}
