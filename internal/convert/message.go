// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/docxify/pkg/types"
)

// maxDiagnostic bounds the converter diagnostic quoted in a message. The
// message travels in a cookie, and pandoc reports the fatal error last.
const maxDiagnostic = 1500

// Message returns the single human-readable sentence shown to the person
// whose conversion failed with err.
func Message(err error) string {
	var (
		ue *types.UserError
		ee *types.ExecutionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ue):
		return ue.Message
	case errors.As(err, &ee):
		return fmt.Sprintf("Conversion failed (Input format: %s). Error: %s",
			strings.ToUpper(inputLabel(ee)), tail(ee.FlatDiagnostic(), maxDiagnostic))
	case errors.Is(err, types.ErrConverterNotFound):
		return "Pandoc is not installed or not found in system PATH. Please check the setup instructions."
	case errors.Is(err, types.ErrConverterTimeout):
		return "Conversion timed out. Try a smaller document or split it into parts."
	default:
		return "An unexpected server error occurred: " + err.Error()
	}
}

func inputLabel(ee *types.ExecutionError) string {
	if ee.Ext != "" {
		return ee.Ext
	}
	return string(ee.Format)
}

// tail keeps the last n bytes of s, cut on a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return "…" + s[i:]
}
