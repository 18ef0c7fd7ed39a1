package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle folds title into a lower-case, accent-free, single-spaced
// form. Punctuation never distinguishes two titles: "Spider-Man" and
// "spider man" normalize identically.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	stripper := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, title)
	if err != nil {
		stripped = title
	}
	// Casers carry state and are not safe for concurrent use.
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’' || r == '`':
			// "director's" and "directors" share a key
			continue
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// TitleTokens splits a title into normalized tokens.
func TitleTokens(title string) []string {
	normalized := NormalizeTitle(title)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// NormalizeYear returns the leading four-digit year in value, or "" when
// value does not start with one. Dates such as "2023-07-21" yield "2023".
func NormalizeYear(value string) string {
	value = strings.TrimSpace(value)
	if len(value) < 4 {
		return ""
	}
	for _, r := range value[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return value[:4]
}
