package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeResolver()
	c.normalizeProviders()
	c.normalizeNetwork()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		c.Paths.CatalogPath = defaultCatalogPath
	}
	if c.Paths.CatalogPath, err = expandPath(c.Paths.CatalogPath); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.CachePath) == "" {
		c.Paths.CachePath = defaultCachePath
	}
	if c.Paths.CachePath, err = expandPath(c.Paths.CachePath); err != nil {
		return fmt.Errorf("paths.cache_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeResolver() {
	providers := make([]string, 0, len(c.Resolver.Providers))
	seen := make(map[string]struct{}, len(c.Resolver.Providers))
	for _, name := range c.Resolver.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		name = strings.ReplaceAll(name, "-", "_")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		providers = append(providers, name)
	}
	c.Resolver.Providers = providers
	if c.Resolver.Workers == 0 {
		c.Resolver.Workers = defaultWorkers
	}
	if c.Resolver.RequestTimeoutSeconds == 0 {
		c.Resolver.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeProviders() {
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	if value, ok := os.LookupEnv("OMDB_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.OMDb.APIKey = strings.TrimSpace(value)
	}
	c.OMDb.BaseURL = strings.TrimSpace(c.OMDb.BaseURL)
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = defaultOMDbBaseURL
	}

	c.MDBList.APIKey = strings.TrimSpace(c.MDBList.APIKey)
	if value, ok := os.LookupEnv("MDBLIST_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.MDBList.APIKey = strings.TrimSpace(value)
	}
	c.MDBList.BaseURL = strings.TrimRight(strings.TrimSpace(c.MDBList.BaseURL), "/")
	if c.MDBList.BaseURL == "" {
		c.MDBList.BaseURL = defaultMDBListBaseURL
	}

	c.SearchAgent.SearchURL = strings.TrimSpace(c.SearchAgent.SearchURL)
	if c.SearchAgent.SearchURL == "" {
		c.SearchAgent.SearchURL = defaultSearchURL
	}
	c.SearchAgent.UserAgent = strings.TrimSpace(c.SearchAgent.UserAgent)
	if c.SearchAgent.UserAgent == "" {
		c.SearchAgent.UserAgent = defaultUserAgent
	}

	c.Wikidata.Endpoint = strings.TrimSpace(c.Wikidata.Endpoint)
	if c.Wikidata.Endpoint == "" {
		c.Wikidata.Endpoint = defaultWikidataEndpoint
	}
	c.Wikidata.UserAgent = strings.TrimSpace(c.Wikidata.UserAgent)
	if c.Wikidata.UserAgent == "" {
		c.Wikidata.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeNetwork() {
	if value, ok := os.LookupEnv("NRW_NO_RT"); ok && strings.TrimSpace(value) == "1" {
		c.Network.Disable = true
	}
	hosts := make([]string, 0, len(c.Network.BlockedHosts))
	for _, host := range c.Network.BlockedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		host = strings.TrimPrefix(host, ".")
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	if len(hosts) == 0 {
		hosts = append(hosts, DefaultBlockedHosts...)
	}
	c.Network.BlockedHosts = hosts
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.TextfilePath) == "" {
		c.Metrics.TextfilePath = ""
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
