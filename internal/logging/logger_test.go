package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nrw/internal/config"
	"nrw/internal/logging"
	"nrw/internal/services"
)

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message", logging.String("catalog", "data.json"),
		logging.Duration("duration", 1500*time.Millisecond))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", content, err)
	}
	if record["msg"] != "file message" || record["catalog"] != "data.json" {
		t.Fatalf("unexpected record %v", record)
	}
	if record["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
	if record["duration_ms"] != float64(1500) {
		t.Fatalf("expected duration in milliseconds, got %v", record)
	}
	ts, _ := record["ts"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil || !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC RFC3339 ts, got %q (%v)", ts, err)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")

	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithMovieID(context.Background(), "42")
	ctx = services.WithProvider(ctx, "omdb")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "resolver"))
	logger.Info("provider attempt", logging.String("title", "Tehran"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO [resolver] Movie #42 (omdb) – provider attempt", "title=Tehran"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "movie_id=") {
		t.Fatalf("movie id should move into the subject, got %q", line)
	}
}

func TestConsoleLoggerShortensRunIDAndScores(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-run.log")

	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "0f8e2a41-5b1c-4d2e-9a77-1c2d3e4f5a6b")
	critic := 94
	logging.WithContext(ctx, base).Info("score resolved",
		logging.Decision("provider_chain", "resolved", "omdb",
			logging.Score("critic_score", &critic),
			logging.Score("audience_score", nil),
			logging.Duration("elapsed", 1234567*time.Microsecond))...)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{
		"decision_type=provider_chain",
		"decision_result=resolved",
		"critic_score=94",
		"audience_score=none",
		"elapsed=1.23s",
		"run=0f8e2a41\n",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "run_id=") {
		t.Fatalf("run id should render in short form, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithMovieID(ctx, "7")
	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldRunID || fields[1].Key != logging.FieldMovieID {
		t.Fatalf("unexpected field order %v", fields)
	}
}

func TestPruneArchivesRemovesOnlyExpiredArchives(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, logging.LogFileName)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expired := logging.ArchiveName(live, now.AddDate(0, 0, -40))
	recent := logging.ArchiveName(live, now.AddDate(0, 0, -2))
	unrelated := filepath.Join(dir, "nrw-notes.log")
	for _, p := range []string{live, expired, recent, unrelated} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	removed := logging.PruneArchives(logging.NewNop(), live, 30, now)

	if len(removed) != 1 || removed[0] != expired {
		t.Fatalf("expected only %s removed, got %v", expired, removed)
	}
	for _, p := range []string{live, recent, unrelated} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if got := logging.PruneArchives(logging.NewNop(), live, 0, now); got != nil {
		t.Fatalf("retention 0 should disable pruning, got %v", got)
	}
}

func TestRotateLogFileArchivesLargeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logging.LogFileName)
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if archive, err := logging.RotateLogFile(path, 128, now); err != nil || archive != "" {
		t.Fatalf("small file should stay put, got %q err=%v", archive, err)
	}
	archive, err := logging.RotateLogFile(path, 32, now)
	if err != nil {
		t.Fatalf("RotateLogFile: %v", err)
	}
	if want := filepath.Join(dir, "nrw-20250601-120000.log"); archive != want {
		t.Fatalf("archive = %q, want %q", archive, want)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected live log moved aside, stat err=%v", err)
	}
	if archive, err := logging.RotateLogFile(path, 32, now); err != nil || archive != "" {
		t.Fatalf("missing file should be a no-op, got %q err=%v", archive, err)
	}
}
