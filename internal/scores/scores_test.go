package scores_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"nrw/internal/scores"
)

func TestCacheKeyDeterminism(t *testing.T) {
	want := scores.CacheKey("Oppenheimer", "2023")
	for _, title := range []string{" oppenheimer ", "OPPENHEIMER", "Oppenheimer!", "  Oppenheimer\t"} {
		if got := scores.CacheKey(title, "2023"); got != want {
			t.Fatalf("CacheKey(%q) = %q, want %q", title, got, want)
		}
	}
	if want != "oppenheimer/2023" {
		t.Fatalf("unexpected key format %q", want)
	}
	if scores.CacheKey("Tehran", "2025-03-01") != "tehran/2025" {
		t.Fatal("expected year to be truncated to four digits")
	}
	if scores.CacheKey("Oppenheimer", "2024") == want {
		t.Fatal("different years must produce different keys")
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"91%", 91, true},
		{" 74 ", 74, true},
		{"8.8/10", 88, true},
		{"45/100", 45, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"120%", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := scores.ParsePercent(tt.raw)
		if ok != tt.ok {
			t.Fatalf("ParsePercent(%q) ok=%v, want %v", tt.raw, ok, tt.ok)
		}
		if ok && *got != tt.want {
			t.Fatalf("ParsePercent(%q) = %d, want %d", tt.raw, *got, tt.want)
		}
	}
}

func TestResultHelpers(t *testing.T) {
	r := scores.Result{CriticScore: scores.Score(91), AudienceScore: intPtr(140), Source: "omdb"}
	if !r.HasCritic() {
		t.Fatal("expected critic score")
	}
	clean := r.Sanitized()
	if clean.AudienceScore != nil {
		t.Fatal("expected out-of-range audience score dropped")
	}
	clone := r.Clone()
	*clone.CriticScore = 10
	if *r.CriticScore != 91 {
		t.Fatal("clone must not share pointers")
	}
	if (scores.Result{CriticScore: intPtr(101)}).HasCritic() {
		t.Fatal("out-of-range critic score must not count")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &scores.StatusError{Code: 401}, scores.ErrAuth},
		{"forbidden", &scores.StatusError{Code: 403}, scores.ErrAuth},
		{"missing", &scores.StatusError{Code: 404}, scores.ErrNotFound},
		{"throttled", &scores.StatusError{Code: 429}, scores.ErrTransport},
		{"server", fmt.Errorf("wrapped: %w", &scores.StatusError{Code: 502}), scores.ErrTransport},
		{"deadline", context.DeadlineExceeded, scores.ErrTransport},
		{"plain", errors.New("connection refused"), scores.ErrTransport},
		{"already", scores.ErrNotFound, scores.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scores.Classify(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOutcomeFailed(t *testing.T) {
	notFound := scores.Outcome{Status: scores.StatusUnresolved, Attempts: []scores.Attempt{
		{Provider: "a", Err: scores.ErrNotFound},
	}}
	if notFound.Failed() {
		t.Fatal("all not-found attempts should not count as failed")
	}
	transport := scores.Outcome{Status: scores.StatusUnresolved, Attempts: []scores.Attempt{
		{Provider: "a", Err: scores.ErrNotFound},
		{Provider: "b", Err: scores.Failure("b", errors.New("reset")).Err},
	}}
	if !transport.Failed() {
		t.Fatal("transport attempt should mark outcome failed")
	}
	nf := scores.NotFound("omdb", "Movie not found!")
	if !errors.Is(nf.Err, scores.ErrNotFound) || nf.Error == "" {
		t.Fatalf("unexpected not-found result %+v", nf)
	}
}

func intPtr(v int) *int { return &v }
