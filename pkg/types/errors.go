// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds a conversion can end in. Components
// wrap them with context; callers classify with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrCorruptArchive    = errors.New("corrupt archive")
	ErrMissingEntryPoint = errors.New("missing main.tex")
	ErrArchiveTooLarge   = errors.New("archive too large")
	ErrConverterNotFound = errors.New("converter not found")
	ErrConverterTimeout  = errors.New("converter timed out")
	ErrConverterFailed   = errors.New("converter failed")
)

// ExecutionError reports a converter run that exited non-zero.
type ExecutionError struct {
	// ExitCode is the process exit status.
	ExitCode int

	// Diagnostic is the captured standard error (standard output when stderr
	// was empty).
	Diagnostic string

	// Format is the input format pandoc was asked to read.
	Format FormatID

	// Ext is the extension the format was resolved from.
	Ext string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("pandoc exited with code %d reading %s: %s", e.ExitCode, e.Format, e.FlatDiagnostic())
}

// Is makes errors.Is(err, ErrConverterFailed) match.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrConverterFailed
}

// FlatDiagnostic returns the diagnostic trimmed, with line breaks replaced by
// spaces.
func (e *ExecutionError) FlatDiagnostic() string {
	s := strings.TrimSpace(e.Diagnostic)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// ErrorKind is a stable label for a failure, used in logs and the journal.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindInvalidInput      ErrorKind = "invalid_input"
	KindCorruptArchive    ErrorKind = "corrupt_archive"
	KindMissingEntryPoint ErrorKind = "missing_entry_point"
	KindArchiveTooLarge   ErrorKind = "archive_too_large"
	KindConverterNotFound ErrorKind = "converter_not_found"
	KindConverterTimeout  ErrorKind = "converter_timeout"
	KindConverterFailed   ErrorKind = "converter_failed"
	KindInternal          ErrorKind = "internal"
)

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrCorruptArchive):
		return KindCorruptArchive
	case errors.Is(err, ErrMissingEntryPoint):
		return KindMissingEntryPoint
	case errors.Is(err, ErrArchiveTooLarge):
		return KindArchiveTooLarge
	case errors.Is(err, ErrConverterNotFound):
		return KindConverterNotFound
	case errors.Is(err, ErrConverterTimeout):
		return KindConverterTimeout
	case errors.Is(err, ErrConverterFailed):
		return KindConverterFailed
	default:
		return KindInternal
	}
}

// Rejected reports whether the kind means the input was refused before the
// converter ran.
func (k ErrorKind) Rejected() bool {
	switch k {
	case KindInvalidInput, KindCorruptArchive, KindMissingEntryPoint, KindArchiveTooLarge:
		return true
	}
	return false
}

// UserError carries a message meant for the person who submitted the request.
type UserError struct {
	Err     error
	Message string
}

// NewUserError wraps kind with a user-facing message.
func NewUserError(kind error, message string) *UserError {
	return &UserError{Err: kind, Message: message}
}

func (e *UserError) Error() string { return e.Err.Error() + ": " + e.Message }
func (e *UserError) Unwrap() error { return e.Err }
