package preflight

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"nrw/internal/config"
	"nrw/internal/logging"
	"nrw/internal/providers"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes every applicable check for cfg. A nil transport uses
// http.DefaultTransport for the network checks.
func RunAll(ctx context.Context, cfg *config.Config, transport http.RoundTripper) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Cache directory", filepath.Dir(cfg.Paths.CachePath)),
		CheckCatalog(cfg.Paths.CatalogPath),
		CheckRunLock(cfg.LockPath()),
		CheckProviderChain(cfg),
	}

	client := providers.HTTPClient(cfg, transport)
	if strings.TrimSpace(cfg.OMDb.APIKey) != "" {
		if cfg.Network.Disable {
			results = append(results, Result{Name: "OMDb", Skipped: true, Detail: "network disabled"})
		} else {
			results = append(results, CheckOMDb(ctx, client, cfg.OMDb.BaseURL, cfg.OMDb.APIKey))
		}
	}
	return results
}

// CheckProviderChain verifies that the configured chain yields at least one
// usable adapter.
func CheckProviderChain(cfg *config.Config) Result {
	const name = "Provider chain"
	chain, err := providers.Build(cfg, nil, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(names, " → ")}
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}
