package textutil

import "math"

// termVector counts the normalized tokens of a title.
type termVector map[string]int

func newTermVector(title string) termVector {
	tokens := TitleTokens(title)
	if len(tokens) == 0 {
		return nil
	}
	v := make(termVector, len(tokens))
	for _, token := range tokens {
		v[token]++
	}
	return v
}

func (v termVector) norm() float64 {
	var sum int
	for _, n := range v {
		sum += n * n
	}
	return math.Sqrt(float64(sum))
}

// cosine is 0 when either vector is empty.
func cosine(a, b termVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot int
	for token, n := range a {
		dot += n * b[token]
	}
	if dot == 0 {
		return 0
	}
	return float64(dot) / (a.norm() * b.norm())
}

// TitleSimilarity scores how closely candidate matches want on a 0..1 scale.
// Identical normalized titles score 1; otherwise token-count cosine
// similarity is used, so word order does not matter.
func TitleSimilarity(want, candidate string) float64 {
	a := NormalizeTitle(want)
	b := NormalizeTitle(candidate)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return cosine(newTermVector(a), newTermVector(b))
}
