// Package providers builds the ordered adapter chain from configuration.
package providers

import (
	"fmt"
	"log/slog"
	"net/http"

	"nrw/internal/config"
	"nrw/internal/logging"
	"nrw/internal/netgate"
	"nrw/internal/providers/mdblist"
	"nrw/internal/providers/omdb"
	"nrw/internal/providers/searchagent"
	"nrw/internal/providers/wikidata"
	"nrw/internal/scores"
	"nrw/internal/services"
)

// HTTPClient returns the shared client every adapter uses: the configured
// request timeout over the network gate.
func HTTPClient(cfg *config.Config, base http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   cfg.RequestTimeout(),
		Transport: netgate.New(base, cfg.Network.Disable, cfg.Network.BlockedHosts),
	}
}

// Build returns the adapters named in resolver.providers, in order. Adapters
// that need a missing credential are left out with a warning. A nil base
// transport means http.DefaultTransport.
func Build(cfg *config.Config, base http.RoundTripper, logger *slog.Logger) ([]scores.Provider, error) {
	logger = logging.NewComponentLogger(logger, "providers")
	client := HTTPClient(cfg, base)

	chain := make([]scores.Provider, 0, len(cfg.Resolver.Providers))
	for _, name := range cfg.Resolver.Providers {
		var (
			provider scores.Provider
			err      error
		)
		switch name {
		case config.ProviderOMDb:
			if cfg.OMDb.APIKey == "" {
				warnSkipped(logger, name, "set omdb.api_key or OMDB_API_KEY")
				continue
			}
			provider, err = omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL, omdb.WithHTTPClient(client))
		case config.ProviderSearchAgent:
			provider, err = searchagent.New(cfg.SearchAgent.SearchURL,
				searchagent.WithHTTPClient(client),
				searchagent.WithUserAgent(cfg.SearchAgent.UserAgent))
		case config.ProviderMDBList:
			if cfg.MDBList.APIKey == "" {
				warnSkipped(logger, name, "set mdblist.api_key or MDBLIST_API_KEY")
				continue
			}
			provider, err = mdblist.New(cfg.MDBList.APIKey, cfg.MDBList.BaseURL, mdblist.WithHTTPClient(client))
		case config.ProviderWikidata:
			provider, err = wikidata.New(cfg.Wikidata.Endpoint,
				wikidata.WithHTTPClient(client),
				wikidata.WithUserAgent(cfg.Wikidata.UserAgent))
		default:
			return nil, services.Wrap(services.ErrConfiguration, "providers", "build", fmt.Sprintf("unknown provider %q", name), nil)
		}
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "providers", "build", name, err)
		}
		chain = append(chain, provider)
	}
	if len(chain) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "providers", "build", "no usable providers configured", nil)
	}
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.Name()
	}
	logger.Debug("provider chain ready",
		logging.Any("providers", names),
		logging.Bool("network_disabled", cfg.Network.Disable))
	return chain, nil
}

func warnSkipped(logger *slog.Logger, name, hint string) {
	logging.WarnWithContext(logger, "provider skipped; credential missing", "provider_skipped",
		logging.String(logging.FieldProvider, name),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "chain runs without this provider"))
}
