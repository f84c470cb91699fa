package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the giftdesk CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the HTTP API.
//   - CacheDSN: sqlite database holding the persisted session.
//   - RecheckInterval: how often the client re-confirms its session.
//   - ExpiryWarning: lead time of the expiring-soon notice.
//   - RequestTimeout: deadline applied to every API call.
type Config struct {
	ServerEndpointAddr string        `koanf:"server_endpoint_addr"`
	CacheDSN           string        `koanf:"cache_dsn"`
	RecheckInterval    time.Duration `koanf:"recheck_interval"`
	ExpiryWarning      time.Duration `koanf:"expiry_warning"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
	LogLevel           string        `koanf:"log_level"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.CacheDSN = "giftdesk.db"
	c.RecheckInterval = 30 * time.Second
	c.ExpiryWarning = 5 * time.Minute
	c.RequestTimeout = 5 * time.Second
	c.LogLevel = "warn"
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ServerEndpointAddr == "":
		return fmt.Errorf("server_endpoint_addr must not be empty")
	case c.CacheDSN == "":
		return fmt.Errorf("cache_dsn must not be empty")
	case c.RecheckInterval <= 0:
		return fmt.Errorf("recheck_interval must be positive, got %s", c.RecheckInterval)
	case c.ExpiryWarning < 0:
		return fmt.Errorf("expiry_warning must not be negative, got %s", c.ExpiryWarning)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Load constructs a Config from defaults, the optional YAML file, the
// environment and args, in that order of precedence.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
