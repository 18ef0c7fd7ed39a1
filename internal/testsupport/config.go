package testsupport

import (
	"path/filepath"
	"testing"

	"nrw/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Rate limiting is off and the network gate is closed so nothing leaves the
// machine unless a test opts in.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CatalogPath = filepath.Join(base, "output", "data.json")
	cfgVal.Paths.CachePath = filepath.Join(base, "cache", "rt_cache.json")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Resolver.RateLimitMillis = 0
	cfgVal.Network.Disable = true

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProviders sets the provider order.
func WithProviders(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolver.Providers = names
	}
}

// WithMinAgeDays overrides the staleness window.
func WithMinAgeDays(days int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolver.MinAgeDays = days
	}
}

// WithMetricsTextfile enables the metrics export under the temp directory.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, "metrics", "nrw.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
