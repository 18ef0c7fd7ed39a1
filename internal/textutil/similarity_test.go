package textutil

import (
	"math"
	"testing"
)

func TestCosineEmptyVectors(t *testing.T) {
	full := newTermVector("hello world")
	for name, pair := range map[string][2]termVector{
		"both empty": {nil, nil},
		"a empty":    {nil, full},
		"b empty":    {full, nil},
	} {
		if got := cosine(pair[0], pair[1]); got != 0 {
			t.Errorf("%s: cosine = %v, want 0", name, got)
		}
	}
}

func TestCosineIdenticalAndDisjoint(t *testing.T) {
	if got := cosine(newTermVector("The Quick Brown Fox"), newTermVector("the quick brown fox")); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical titles: cosine = %v, want 1", got)
	}
	if got := cosine(newTermVector("apple banana cherry"), newTermVector("dog elephant frog")); got != 0 {
		t.Errorf("disjoint titles: cosine = %v, want 0", got)
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("Spider-Man: No Way Home", "spider man no way home"); got != 1 {
		t.Fatalf("expected exact match after normalization, got %v", got)
	}
	partial := TitleSimilarity("The Home", "The Home Alone")
	if partial <= 0 || partial >= 1 {
		t.Fatalf("expected partial similarity, got %v", partial)
	}
	if got := TitleSimilarity("", "anything"); got != 0 {
		t.Fatalf("expected 0 for empty title, got %v", got)
	}
	if a, b := TitleSimilarity("Blade Runner", "Runner Blade"), 1.0; math.Abs(a-b) > 1e-9 {
		t.Fatalf("word order should not matter, got %v", a)
	}
}

func TestTermVectorCountsRepeats(t *testing.T) {
	if newTermVector("   ") != nil {
		t.Fatal("expected nil vector for blank text")
	}
	v := newTermVector("red red sonja")
	if len(v) != 2 || v["red"] != 2 {
		t.Fatalf("unexpected vector %v", v)
	}
}
