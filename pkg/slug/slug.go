// Package slug turns free-form paste titles into names that are safe to use
// as file stems on every common filesystem.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var separatorRun = regexp.MustCompile(`[/\\()]+`)

// asciiFold decomposes compatibility characters and drops everything outside
// the ASCII range, so "é" becomes "e" and "✓" disappears.
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// Make returns a filesystem-friendly version of s.
//
// When allowUnicode is false the input is NFKD-normalized and reduced to
// ASCII; otherwise it is NFKC-normalized and letters from any script survive.
// Characters other than word characters, whitespace, '-', '/', '\', '(' and
// ')' are stripped, the result is trimmed, and runs of '/', '\', '(' or ')'
// collapse into a single '_'. The result may be empty.
func Make(s string, allowUnicode bool) string {
	if allowUnicode {
		s = norm.NFKC.String(s)
	} else {
		folded, _, err := transform.String(asciiFold, s)
		if err != nil {
			folded = ""
		}
		s = folded
	}

	s = strings.Map(keep, s)
	s = strings.TrimSpace(s)
	return separatorRun.ReplaceAllString(s, "_")
}

// keep drops any rune that is not a word character, whitespace, or one of the
// separator characters handled by Make.
func keep(r rune) rune {
	switch {
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
		return r
	case unicode.IsSpace(r):
		return r
	case r == '-' || r == '/' || r == '\\' || r == '(' || r == ')':
		return r
	}
	return -1
}
