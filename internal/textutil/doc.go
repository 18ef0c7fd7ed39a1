// Package textutil provides the title normalization and similarity helpers
// shared by the score cache and the provider adapters.
//
// The primary use cases are:
//   - Folding a movie title into the canonical form used for cache keys
//   - Computing cosine similarity between titles so adapters can pick the
//     best candidate out of a search result list
//
// Normalization folds case with golang.org/x/text/cases, decomposes accented
// characters and drops combining marks, removes apostrophes, turns any other
// punctuation into a separator and collapses runs of whitespace.
package textutil
