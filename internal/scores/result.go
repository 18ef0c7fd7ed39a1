package scores

import (
	"context"
	"strconv"
	"strings"
)

// Result is the answer from exactly one provider call. It is treated as
// immutable once returned; use Clone before handing it to another owner.
type Result struct {
	CriticScore   *int   `json:"critic_score,omitempty"`
	AudienceScore *int   `json:"audience_score,omitempty"`
	URL           string `json:"url,omitempty"`
	Source        string `json:"source"`
	// Method names the adapter that produced the result. The resolver stamps
	// it so cached results keep their provenance.
	Method string `json:"method,omitempty"`
	Error  string `json:"error,omitempty"`
	// Err carries the classified failure for in-process callers and is not
	// persisted.
	Err error `json:"-"`
}

// Provider resolves a title and year into a score result. Implementations
// must return instead of blocking past their own transport timeout and must
// report not-found and transport failures through Result.Err rather than
// panicking.
type Provider interface {
	// Name identifies the adapter. It doubles as the rate limiter channel
	// and the rt_method tag written to the catalog.
	Name() string
	Resolve(ctx context.Context, title, year string) Result
}

// HasCritic reports whether the result carries a usable critic score.
func (r Result) HasCritic() bool {
	return r.CriticScore != nil && ValidScore(*r.CriticScore)
}

// Clone returns a deep copy so callers never share score pointers.
func (r Result) Clone() Result {
	out := r
	if r.CriticScore != nil {
		v := *r.CriticScore
		out.CriticScore = &v
	}
	if r.AudienceScore != nil {
		v := *r.AudienceScore
		out.AudienceScore = &v
	}
	return out
}

// Sanitized drops scores outside 0..100.
func (r Result) Sanitized() Result {
	out := r.Clone()
	if out.CriticScore != nil && !ValidScore(*out.CriticScore) {
		out.CriticScore = nil
	}
	if out.AudienceScore != nil && !ValidScore(*out.AudienceScore) {
		out.AudienceScore = nil
	}
	return out
}

// ValidScore reports whether v is a percentage in [0,100].
func ValidScore(v int) bool {
	return v >= 0 && v <= 100
}

// Score returns a pointer to v, or nil when v is out of range.
func Score(v int) *int {
	if !ValidScore(v) {
		return nil
	}
	return &v
}

// ParsePercent parses provider score strings such as "91%", "91", "91/100"
// or "9.1/10" into a 0..100 integer.
func ParsePercent(raw string) (*int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.EqualFold(value, "N/A") {
		return nil, false
	}
	value = strings.TrimSuffix(value, "%")
	scale := 1.0
	if num, den, ok := strings.Cut(value, "/"); ok {
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil || d <= 0 {
			return nil, false
		}
		value = num
		scale = 100 / d
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, false
	}
	n := int(f*scale + 0.5)
	if f < 0 {
		return nil, false
	}
	score := Score(n)
	return score, score != nil
}

// NotFound builds the result adapters return when they have no data.
func NotFound(source, detail string) Result {
	err := ErrNotFound
	if detail = strings.TrimSpace(detail); detail != "" {
		err = &ProviderError{Kind: ErrNotFound, Detail: detail}
	}
	return Result{Source: source, Error: err.Error(), Err: err}
}

// Failure builds a result for a transport, auth or parse failure. The error is
// classified before being stored.
func Failure(source string, err error) Result {
	classified := Classify(err)
	return Result{Source: source, Error: classified.Error(), Err: classified}
}
