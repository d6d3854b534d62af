// Package textnorm cleans up text returned by the AI provider before it is
// handed to clients with tiny displays and naive JSON parsers.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	spaceRun   = regexp.MustCompile(`[ \x{00A0}]{2,}`)
)

// Clean strips ANSI color sequences and control characters (newline and tab
// survive), collapses runs of spaces and non-breaking spaces, and trims the
// result. Clean(Clean(s)) == Clean(s) for every s.
func Clean(s string) string {
	if s == "" {
		return s
	}
	s = ansiEscape.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
