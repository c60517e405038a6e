// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filename turns user-supplied download names into safe .docx file
// names.
package filename

import (
	"strings"
	"unicode"
)

const (
	// DefaultBase is used when nothing usable is left of the requested name.
	DefaultBase = "converted_document"

	// Extension is appended to every sanitized name.
	Extension = ".docx"
)

// forbidden are the characters stripped from requested names.
const forbidden = `\/:*?"<>|`

// Sanitize returns a file name safe for the local filesystem and for a
// Content-Disposition header. Forbidden characters and control characters
// are removed, whitespace becomes '_', an empty result becomes DefaultBase,
// and ".docx" is appended unless already present (in any case).
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + len(Extension))
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case strings.ContainsRune(forbidden, r):
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsControl(r), r == unicode.ReplacementChar:
		default:
			b.WriteRune(r)
		}
	}

	name := b.String()
	if name == "" {
		name = DefaultBase
	}
	if !strings.HasSuffix(strings.ToLower(name), Extension) {
		name += Extension
	}
	return name
}
