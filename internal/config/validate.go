package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: expected an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CatalogPath == "" {
		return errors.New("paths.catalog_path must be set")
	}
	if c.Paths.CachePath == "" {
		return errors.New("paths.cache_path must be set")
	}
	if c.Paths.CachePath == c.Paths.CatalogPath {
		return errors.New("paths.cache_path must differ from paths.catalog_path")
	}
	return nil
}

func (c *Config) validateResolver() error {
	if len(c.Resolver.Providers) == 0 {
		return errors.New("resolver.providers must list at least one provider")
	}
	for _, name := range c.Resolver.Providers {
		if !slices.Contains(KnownProviders, name) {
			return fmt.Errorf("resolver.providers: unknown provider %q (known: %v)", name, KnownProviders)
		}
	}
	if c.Resolver.MinAgeDays < 0 {
		return errors.New("resolver.min_age_days must be >= 0")
	}
	if c.Resolver.RateLimitMillis < 0 {
		return errors.New("resolver.rate_limit_ms must be >= 0")
	}
	if c.Resolver.RequestTimeoutSeconds <= 0 {
		return errors.New("resolver.request_timeout_seconds must be positive")
	}
	if c.Resolver.Workers <= 0 {
		return errors.New("resolver.workers must be positive")
	}
	if c.Resolver.Limit < 0 {
		return errors.New("resolver.limit must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	if c.Logging.MaxFileMB < 0 {
		return errors.New("logging.max_file_mb must be >= 0")
	}
	return nil
}
