package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nrw/internal/config"
	"nrw/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("MDBLIST_API_KEY", "")

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	testsupport.WriteCatalog(t, cfg.Paths.CatalogPath, tehranCatalog(time.Now()))
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func tehranCatalog(now time.Time) string {
	digital := now.AddDate(0, 0, -20).Format("2006-01-02")
	recent := now.AddDate(0, 0, -2).Format("2006-01-02")
	return `[
  {"id": 101, "title": "Tehran", "theatrical_date": "2025-05-01", "digital_date": "` + digital + `"},
  {"id": 102, "title": "Fresh Release", "theatrical_date": "2025-05-01", "digital_date": "` + recent + `"},
  {"id": 103, "title": "Scored", "theatrical_date": "2024-01-01", "digital_date": "2024-03-01", "rt_score": 88}
]
`
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ncatalog_path = %q\ncache_path = %q\nstate_dir = %q\nlog_dir = %q\n\n"+
			"[resolver]\nrate_limit_ms = 0\nmin_age_days = %d\n\n"+
			"[network]\ndisable = true\n\n"+
			"[logging]\nformat = \"json\"\nlevel = \"info\"\n",
		cfg.Paths.CatalogPath,
		cfg.Paths.CachePath,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Resolver.MinAgeDays,
	)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
