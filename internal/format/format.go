// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format maps file extensions and form selector tags to pandoc
// input formats.
package format

import (
	"path"
	"strings"

	"github.com/pdiddy/docxify/pkg/types"
)

// DefaultSelector is used for pasted text when no selector was sent.
const DefaultSelector = "md"

// selectors are the tags offered for pasted text, in display order.
var selectors = []string{"md", "tex", "html", "txt"}

// Resolve returns the pandoc input format for an extension or selector tag.
// Matching ignores case, surrounding whitespace and a leading dot. Anything
// unrecognised is treated as plain text.
func Resolve(extOrTag string) types.FormatID {
	switch normalize(extOrTag) {
	case "md", "markdown":
		return types.FormatCommonMark
	case "tex", "latex":
		return types.FormatLaTeX
	case "html", "htm":
		return types.FormatHTML
	default:
		return types.FormatPlain
	}
}

// Selectors returns the tags accepted for pasted text.
func Selectors() []string {
	out := make([]string, len(selectors))
	copy(out, selectors)
	return out
}

// IsSelector reports whether tag is one of Selectors.
func IsSelector(tag string) bool {
	tag = normalize(tag)
	for _, s := range selectors {
		if s == tag {
			return true
		}
	}
	return false
}

// Ext returns the lower-cased extension of the base of name without the dot.
// It returns fallback when there is no extension or when the extension holds
// anything other than ASCII letters and digits, so the result is always safe
// to use in a file name.
func Ext(name, fallback string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return fallback
	}
	ext := strings.ToLower(name[i+1:])
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fallback
		}
	}
	return ext
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
}
