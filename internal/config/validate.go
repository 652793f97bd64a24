package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Upstream.validate(); err != nil {
		return err
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Scheduler.Interval < 0 {
		return errors.New("scheduler.interval must be positive")
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, err := c.Server.Location(); err != nil {
		return fmt.Errorf("server.timezone %q is invalid: %w", c.Server.Timezone, err)
	}

	if c.Metrics.IsEnabled() && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (u *UpstreamConfig) validate() error {
	if u.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	parsed, err := url.Parse(u.BaseURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not a valid URL", u.BaseURL)
	}
	if parsed.Scheme != "https" && !(u.AllowInsecureHTTP && parsed.Scheme == "http") {
		return fmt.Errorf("upstream.base_url must use https, got %q", parsed.Scheme)
	}
	if u.RequestTimeout < 0 {
		return errors.New("upstream.request_timeout must be positive")
	}
	if len(u.Instruments) == 0 {
		return errors.New("upstream.instruments must not be empty")
	}

	seen := make(map[string]bool, len(u.Instruments))
	for i, inst := range u.Instruments {
		if inst.IndexName == "" {
			return fmt.Errorf("upstream.instruments[%d].index_name is required", i)
		}
		if inst.Ticker == "" {
			return fmt.Errorf("upstream.instruments[%d].ticker is required", i)
		}
		if seen[inst.IndexName] {
			return fmt.Errorf("upstream.instruments[%d].index_name %q is duplicated", i, inst.IndexName)
		}
		seen[inst.IndexName] = true
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
