// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filename

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "converted_document.docx"},
		{"only forbidden", `\/:*?"<>|`, "converted_document.docx"},
		{"only spaces", "   ", "converted_document.docx"},
		{"spaces become underscores", "My Report.docx", "My_Report.docx"},
		{"extension appended", "report", "report.docx"},
		{"extension kept in any case", "Report.DOCX", "Report.DOCX"},
		{"forbidden stripped", `a/b\c:d*e?f"g<h>i|j`, "abcdefghij.docx"},
		{"path traversal", "../../etc/passwd", "....etcpasswd.docx"},
		{"surrounding whitespace trimmed", "  notes  ", "notes.docx"},
		{"tabs and newlines", "a\tb\nc", "a_b_c.docx"},
		{"control characters dropped", "a\x00b\x7fc", "abc.docx"},
		{"unicode kept", "Ünïcödé résumé", "Ünïcödé_résumé.docx"},
		{"docx without dot", "mydocx", "mydocx.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeProperties(t *testing.T) {
	inputs := []string{
		"", " ", "a b c", `C:\Users\me\doc`, "x.docx.docx", "\u00a0nbsp\u2003em",
		strings.Repeat("?", 100), "report.pdf", "漢字 テスト", "\xff\xfe invalid utf8",
	}
	for _, in := range inputs {
		got := Sanitize(in)
		assert.NotContainsf(t, got, " ", "input %q", in)
		for _, r := range `\/:*?"<>|` {
			assert.NotContainsf(t, got, string(r), "input %q", in)
		}
		assert.Truef(t, strings.HasSuffix(strings.ToLower(got), ".docx"), "input %q gave %q", in, got)
		assert.Equal(t, got, Sanitize(in), "sanitize must be deterministic")
	}
}
