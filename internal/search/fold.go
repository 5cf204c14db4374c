package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks so that "Éric" and "eric" index alike.
// It is applied to text both when indexing and when querying.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// foldKeyword normalizes exact-match values such as tags.
func foldKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(foldAccents(s)))
}

// normalizeISBN removes separators so hyphenated and bare ISBNs compare equal.
func normalizeISBN(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}
