package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacritics is the Combining Diacritical Marks block, U+0300 to U+036F.
var combiningDiacritics = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}}}

// shortTitleCut marks where a subtitle, edition note or series suffix begins.
const shortTitleCut = ":-–—(["

// NormalizeTitle folds a title into its comparison key: lowercase, without
// diacritics or punctuation, dashes read as spaces, single-spaced and trimmed.
// The result is stable under repeated application.
func NormalizeTitle(s string) string {
	s = strings.ToLower(s)

	// Transformers carry state, so a fresh chain is built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningDiacritics)))
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == '–' || r == '—':
			return ' '
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// ShortTitle returns the normalized key of the part of s before the first
// colon, dash, opening parenthesis or opening bracket.
func ShortTitle(s string) string {
	if i := strings.IndexAny(s, shortTitleCut); i >= 0 {
		s = s[:i]
	}
	return NormalizeTitle(s)
}
