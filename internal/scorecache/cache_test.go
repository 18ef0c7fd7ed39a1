package scorecache_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"nrw/internal/fileutil"
	"nrw/internal/scorecache"
	"nrw/internal/scores"
)

func TestCachePutPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "rt_cache.json")
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := scorecache.Open(path, scorecache.WithClock(func() time.Time { return fixed }))

	if _, ok := cache.Get("tehran/2025"); ok {
		t.Fatal("expected cold cache miss")
	}
	result := scores.Result{CriticScore: scores.Score(74), URL: "https://www.rottentomatoes.com/m/tehran", Source: "search_agent", Method: "SearchAgentAdapter"}
	if err := cache.Put("tehran/2025", result); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reloaded := scorecache.Open(path)
	got, ok := reloaded.Get("tehran/2025")
	if !ok {
		t.Fatal("expected entry after reload")
	}
	if got.CriticScore == nil || *got.CriticScore != 74 || got.Method != "SearchAgentAdapter" {
		t.Fatalf("unexpected result %+v", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("cache file is not a JSON object: %v", err)
	}
	if decoded["tehran/2025"]["stored_at"] != "2025-05-01T12:00:00Z" {
		t.Fatalf("expected stored_at timestamp, got %v", decoded["tehran/2025"])
	}
}

func TestCacheGetReturnsCopy(t *testing.T) {
	cache := scorecache.Open("")
	if err := cache.Put("k/2020", scores.Result{CriticScore: scores.Score(50), Source: "omdb"}); err != nil {
		t.Fatal(err)
	}
	first, _ := cache.Get("k/2020")
	*first.CriticScore = 1
	second, _ := cache.Get("k/2020")
	if *second.CriticScore != 50 {
		t.Fatal("mutating a returned result must not affect the cache")
	}
}

func TestCorruptCacheTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := scorecache.Open(path)
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Count())
	}
	if err := cache.Put("a/2001", scores.Result{CriticScore: scores.Score(10), Source: "omdb"}); err != nil {
		t.Fatalf("Put over corrupt file: %v", err)
	}
	if _, ok := scorecache.Open(path).Get("a/2001"); !ok {
		t.Fatal("expected entry after rewriting corrupt file")
	}
}

func TestPutMergesEntriesWrittenByOthers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt_cache.json")
	a := scorecache.Open(path)
	b := scorecache.Open(path)
	if err := a.Put("a/2001", scores.Result{CriticScore: scores.Score(10), Source: "omdb"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Put("b/2002", scores.Result{CriticScore: scores.Score(20), Source: "omdb"}); err != nil {
		t.Fatal(err)
	}
	merged := scorecache.Open(path)
	if merged.Count() != 2 {
		t.Fatalf("expected read-modify-write merge, got %d entries", merged.Count())
	}
}

func TestPutRenameFailureLeavesFileIntact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt_cache.json")
	if err := scorecache.Open(path).Put("a/2001", scores.Result{CriticScore: scores.Score(10), Source: "omdb"}); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("disk full")
	cache := scorecache.Open(path, scorecache.WithWriter(fileutil.AtomicWriter{Rename: func(string, string) error { return boom }}))
	if err := cache.Put("b/2002", scores.Result{CriticScore: scores.Score(20), Source: "omdb"}); !errors.Is(err, boom) {
		t.Fatalf("expected rename error, got %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("failed put must not alter the cache file")
	}
	if _, ok := cache.Get("b/2002"); ok {
		t.Fatal("failed put must not be visible in memory")
	}
}

func TestConcurrentPuts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt_cache.json")
	cache := scorecache.Open(path)
	keys := []string{"a/2001", "b/2002", "c/2003", "d/2004", "e/2005", "f/2006"}

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(key string, score int) {
			defer wg.Done()
			if err := cache.Put(key, scores.Result{CriticScore: scores.Score(score), Source: "omdb"}); err != nil {
				t.Errorf("Put %s: %v", key, err)
			}
		}(key, i*10)
	}
	wg.Wait()

	if got := scorecache.Open(path).Count(); got != len(keys) {
		t.Fatalf("expected %d entries on disk, got %d", len(keys), got)
	}
}

func TestRemoveClearAndEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt_cache.json")
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	cache := scorecache.Open(path, scorecache.WithClock(clock))
	for _, key := range []string{"old/2000", "new/2001"} {
		if err := cache.Put(key, scores.Result{Source: "omdb", Error: "not found"}); err != nil {
			t.Fatal(err)
		}
	}
	entries := cache.Entries()
	if len(entries) != 2 || entries[0].Key != "new/2001" {
		t.Fatalf("expected newest first, got %+v", entries)
	}

	if err := cache.Remove("missing/1999"); err == nil {
		t.Fatal("expected error removing unknown key")
	}
	if err := cache.Remove("old/2000"); err != nil {
		t.Fatal(err)
	}
	if scorecache.Open(path).Count() != 1 {
		t.Fatal("expected remove to persist")
	}
	if err := cache.Clear(); err != nil {
		t.Fatal(err)
	}
	if scorecache.Open(path).Count() != 0 {
		t.Fatal("expected clear to persist")
	}
}
