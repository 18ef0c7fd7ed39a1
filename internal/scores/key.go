package scores

import "nrw/internal/textutil"

// CacheKey returns the normalized identity for a title and year, for example
// "tehran/2025". Casing, surrounding whitespace, punctuation and accents do
// not affect the key.
func CacheKey(title, year string) string {
	return textutil.NormalizeTitle(title) + "/" + textutil.NormalizeYear(year)
}
