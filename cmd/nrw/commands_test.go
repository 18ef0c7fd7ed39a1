package main

import (
	"encoding/json"
	"strings"
	"testing"

	"nrw/internal/catalog"
	"nrw/internal/scorecache"
	"nrw/internal/scores"
)

func TestEligibleListsOnlyStaleUnscoredMovies(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"eligible", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	var entries []eligibleJSON
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode eligible output: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Title != "Tehran" || entries[0].Year != "2025" {
		t.Fatalf("unexpected eligible set: %+v", entries)
	}

	out, _, err = runCLI(t, []string{"eligible", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("eligible --all: %v", err)
	}
	requireContains(t, out, scores.SkipTooRecent)
	requireContains(t, out, scores.SkipHasScore)
}

func TestRunOfflineLeavesMoviesUnresolved(t *testing.T) {
	env := setupCLITestEnv(t)
	before, err := catalog.Load(env.cfg.Paths.CatalogPath)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	original, _ := before.Marshal()

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runJSON
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode run output: %v\n%s", err, out)
	}
	if summary.Resolved != 0 || summary.Unresolved != 1 || summary.Skipped != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Changed) != 0 {
		t.Fatalf("expected no changed records, got %v", summary.Changed)
	}

	after, err := catalog.Load(env.cfg.Paths.CatalogPath)
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	written, _ := after.Marshal()
	if string(written) != string(original) {
		t.Fatalf("catalog changed by an unresolved run:\n%s", written)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, shortID(summary.RunID))

	out, _, err = runCLI(t, []string{"history", "show", summary.RunID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Tehran")
	requireContains(t, out, string(scores.StatusUnresolved))
}

func TestRunUsesCachedScore(t *testing.T) {
	env := setupCLITestEnv(t)
	cache := scorecache.Open(env.cfg.Paths.CachePath)
	if err := cache.Put("tehran/2025", scores.Result{
		CriticScore: scores.Score(74),
		URL:         "https://www.rottentomatoes.com/m/tehran_2025",
		Source:      "SearchAgentAdapter",
		Method:      "SearchAgentAdapter",
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "74")

	doc, err := catalog.Load(env.cfg.Paths.CatalogPath)
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	for _, m := range doc.Movies() {
		if m.Title() != "Tehran" {
			continue
		}
		if score, ok := m.RTScore(); !ok || score != 74 {
			t.Fatalf("expected rt_score 74, got %d %v", score, ok)
		}
		if m.Method() != "SearchAgentAdapter" {
			t.Fatalf("expected rt_method SearchAgentAdapter, got %q", m.Method())
		}
	}
}

func TestDryRunDoesNotWrite(t *testing.T) {
	env := setupCLITestEnv(t)
	cache := scorecache.Open(env.cfg.Paths.CachePath)
	if err := cache.Put("tehran/2025", scores.Result{CriticScore: scores.Score(74), Source: "SearchAgentAdapter"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	out, _, err := runCLI(t, []string{"run", "--dry-run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	var summary runJSON
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode run output: %v", err)
	}
	if !summary.DryRun || summary.Resolved != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	doc, err := catalog.Load(env.cfg.Paths.CatalogPath)
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	for _, m := range doc.Movies() {
		if m.Title() == "Tehran" && m.HasScore() {
			t.Fatal("dry run wrote a score into the catalog")
		}
	}
}

func TestRunRejectsNegativeLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run", "--limit", "-1"}, env.configPath); err == nil {
		t.Fatal("expected error for negative --limit")
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	cache := scorecache.Open(env.cfg.Paths.CachePath)
	if err := cache.Put("tehran/2025", scores.Result{CriticScore: scores.Score(74), Source: "SearchAgentAdapter", Method: "SearchAgentAdapter"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	if err := cache.Put("arrival/2016", scores.Result{CriticScore: scores.Score(94), Source: "PrimaryAPIAdapter", Method: "PrimaryAPIAdapter"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "tehran/2025")
	requireContains(t, out, "2 entries")

	out, _, err = runCLI(t, []string{"cache", "show", "Tehran", "2025"}, env.configPath)
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, out, `"critic_score": 74`)

	if _, _, err := runCLI(t, []string{"cache", "show", "Unknown"}, env.configPath); err == nil {
		t.Fatal("expected error for missing cache entry")
	}

	if _, _, err := runCLI(t, []string{"cache", "remove", "Arrival", "2016"}, env.configPath); err != nil {
		t.Fatalf("cache remove: %v", err)
	}
	out, _, err = runCLI(t, []string{"cache", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list --json: %v", err)
	}
	var entries []cacheEntryJSON
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode cache list: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "tehran/2025" {
		t.Fatalf("unexpected entries after remove: %+v", entries)
	}

	if _, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	out, _, err = runCLI(t, []string{"cache", "clear", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 entries")
	out, _, err = runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "empty") {
		t.Fatalf("expected empty cache, got %q", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestLogsFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runJSON
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode run output: %v", err)
	}

	out, _, err = runCLI(t, []string{"logs", "--run", summary.RunID, "-n", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected log records for the run")
	}

	out, _, err = runCLI(t, []string{"logs", "--run", "no-such-run"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Fatalf("expected no records, got %q", out)
	}
}

func TestResolveSingleTitle(t *testing.T) {
	env := setupCLITestEnv(t)
	cache := scorecache.Open(env.cfg.Paths.CachePath)
	if err := cache.Put("tehran/2025", scores.Result{CriticScore: scores.Score(74), Source: "SearchAgentAdapter", Method: "SearchAgentAdapter"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	out, _, err := runCLI(t, []string{"resolve", "Tehran", "2025", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var got outcomeDetailJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode resolve output: %v\n%s", err, out)
	}
	if got.Status != string(scores.StatusResolved) || !got.FromCache || got.Result.CriticScore == nil || *got.Result.CriticScore != 74 {
		t.Fatalf("unexpected outcome %+v", got)
	}

	out, _, err = runCLI(t, []string{"resolve", "Nobody Knows This Film", "1999"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, string(scores.StatusUnresolved))
	requireContains(t, out, "SearchAgentAdapter")
}
