// Package textnorm canonicalizes free-text movie fields before field
// weighting and embedding.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// portugueseAccents are accented Latin letters kept explicitly so that
// Portuguese titles and overviews survive cleaning untouched.
const portugueseAccents = "áéíóúÁÉÍÓÚâêîôÂÊÎÔãõÃÕçÇ"

// Normalize cleans a raw text field for embedding.
//
// The input is NFKC-normalized so visually identical characters compare
// equal, every character that is not a letter, digit, underscore,
// whitespace, hyphen, or accented Latin letter is dropped, and internal
// whitespace runs collapse to single spaces. Empty or all-whitespace
// input yields the empty string.
//
// Normalize is pure and idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keepRune(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// keepRune reports whether r survives cleaning.
func keepRune(r rune) bool {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
		return true
	case unicode.IsSpace(r):
		return true
	case r == '-':
		return true
	}
	return strings.ContainsRune(portugueseAccents, r)
}
