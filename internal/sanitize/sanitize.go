// Package sanitize normalizes spreadsheet cell text so that filters and
// exporters see the same clean value.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// crArtifact matches the escaped carriage return some xlsx writers leave
// behind in shared strings.
var crArtifact = regexp.MustCompile(`(?i)_x000D_`)

// controlChars matches C0 controls except TAB and LF, plus DEL.
var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// Text returns the cleaned form of a cell value.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = crArtifact.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	s = controlChars.ReplaceAllString(s, "")
	s = norm.NFC.String(s)
	// TrimSpace also covers NBSP and NEL
	return strings.TrimSpace(s)
}

// Row sanitizes every cell of a row in place and returns it.
func Row(cells []string) []string {
	for i, c := range cells {
		cells[i] = Text(c)
	}
	return cells
}
