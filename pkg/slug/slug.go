// Package slug derives URL slugs from display names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLen = 120

// Make lowercases name, strips diacritics and joins word runs with single dashes.
// "Café Crème 2x" becomes "cafe-creme-2x".
func Make(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		alnum := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case alnum && r < unicode.MaxASCII:
			b.WriteRune(r)
			dash = false
		case alnum:
			// non-latin letters without an ASCII fold are dropped
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > maxLen {
		out = strings.TrimSuffix(out[:maxLen], "-")
	}
	return out
}

// Valid reports whether s is already a normalized slug.
func Valid(s string) bool {
	return s != "" && Make(s) == s
}
