package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	CatalogPath string `toml:"catalog_path"`
	CachePath   string `toml:"cache_path"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Resolver contains the knobs copied into every batch run.
type Resolver struct {
	// Providers lists adapter names in priority order. The first adapter that
	// yields a critic score wins.
	Providers             []string `toml:"providers"`
	MinAgeDays            int      `toml:"min_age_days"`
	RateLimitMillis       int      `toml:"rate_limit_ms"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	Workers               int      `toml:"workers"`
	CacheNegativeResults  bool     `toml:"cache_negative_results"`
	Limit                 int      `toml:"limit"`
}

// OMDb contains configuration for the primary structured score API.
type OMDb struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// MDBList contains configuration for the secondary structured score API.
type MDBList struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// SearchAgent contains configuration for the web search adapter.
type SearchAgent struct {
	SearchURL string `toml:"search_url"`
	UserAgent string `toml:"user_agent"`
}

// Wikidata contains configuration for the knowledge graph adapter.
type Wikidata struct {
	Endpoint  string `toml:"endpoint"`
	UserAgent string `toml:"user_agent"`
}

// Network controls the outbound network gate.
type Network struct {
	Disable      bool     `toml:"disable"`
	BlockedHosts []string `toml:"blocked_hosts"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Notifications contains configuration for ntfy run summaries.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// OnlyOnChange suppresses the summary when a run changed no records and
	// nothing failed.
	OnlyOnChange bool `toml:"only_on_change"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	// MaxFileMB is the size at which nrw.log is archived before a new run
	// appends to it. Zero disables rotation.
	MaxFileMB int `toml:"max_file_mb"`
}

// Config encapsulates all configuration values for nrw.
//
// Configuration sections by subsystem:
//   - Paths: catalog, cache, state and log locations
//   - Resolver: provider order, staleness window, rate limits
//   - OMDb, MDBList, SearchAgent, Wikidata: per-provider endpoints and credentials
//   - Network: the outbound network gate
//   - Metrics: Prometheus textfile output
//   - Notifications: ntfy run summaries
//   - Logging: log format, level, rotation, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Resolver      Resolver      `toml:"resolver"`
	OMDb          OMDb          `toml:"omdb"`
	MDBList       MDBList       `toml:"mdblist"`
	SearchAgent   SearchAgent   `toml:"search_agent"`
	Wikidata      Wikidata      `toml:"wikidata"`
	Network       Network       `toml:"network"`
	Metrics       Metrics       `toml:"metrics"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nrw.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories plus the parent of
// the cache file.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if c.Paths.CachePath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CachePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-writer lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "nrw.lock")
}

// RunLogPath returns the run history database location.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// RateLimitInterval returns the minimum spacing between calls to one provider.
func (c *Config) RateLimitInterval() time.Duration {
	return time.Duration(c.Resolver.RateLimitMillis) * time.Millisecond
}

// RequestTimeout returns the per-request transport timeout for adapters.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Resolver.RequestTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
