package config

const (
	defaultConfigPath            = "~/.config/nrw/config.toml"
	defaultCatalogPath           = "output/data.json"
	defaultCachePath             = "~/.cache/nrw/rt_cache.json"
	defaultStateDir              = "~/.local/share/nrw"
	defaultLogDir                = "~/.local/share/nrw/logs"
	defaultLogRetentionDays      = 30
	defaultLogMaxFileMB          = 8
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultMinAgeDays            = 7
	defaultRateLimitMillis       = 1000
	defaultRequestTimeoutSeconds = 15
	defaultWorkers               = 1
	defaultOMDbBaseURL           = "https://www.omdbapi.com/"
	defaultMDBListBaseURL        = "https://api.mdblist.com"
	defaultSearchURL             = "https://html.duckduckgo.com/html/"
	defaultWikidataEndpoint      = "https://query.wikidata.org/sparql"
	defaultUserAgent             = "nrw/dev (+https://github.com/nrw)"
	defaultNtfyTimeoutSeconds    = 10
)

// Provider names accepted in resolver.providers.
const (
	ProviderOMDb        = "omdb"
	ProviderSearchAgent = "search_agent"
	ProviderMDBList     = "mdblist"
	ProviderWikidata    = "wikidata"
)

// KnownProviders lists every adapter name in the default priority order.
var KnownProviders = []string{ProviderOMDb, ProviderSearchAgent, ProviderMDBList, ProviderWikidata}

// DefaultBlockedHosts are the provider hosts answered locally when the network
// gate is active.
var DefaultBlockedHosts = []string{
	"rottentomatoes.com",
	"omdbapi.com",
	"query.wikidata.org",
	"mdblist.com",
	"duckduckgo.com",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogPath: defaultCatalogPath,
			CachePath:   defaultCachePath,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Resolver: Resolver{
			Providers:             append([]string(nil), KnownProviders...),
			MinAgeDays:            defaultMinAgeDays,
			RateLimitMillis:       defaultRateLimitMillis,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			Workers:               defaultWorkers,
		},
		OMDb: OMDb{
			BaseURL: defaultOMDbBaseURL,
		},
		MDBList: MDBList{
			BaseURL: defaultMDBListBaseURL,
		},
		SearchAgent: SearchAgent{
			SearchURL: defaultSearchURL,
			UserAgent: defaultUserAgent,
		},
		Wikidata: Wikidata{
			Endpoint:  defaultWikidataEndpoint,
			UserAgent: defaultUserAgent,
		},
		Network: Network{
			BlockedHosts: append([]string(nil), DefaultBlockedHosts...),
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxFileMB:     defaultLogMaxFileMB,
		},
	}
}
