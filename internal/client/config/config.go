package config

import "time"

// Config holds runtime settings for the Inkpad CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - QuietPeriod: how long edits must stay quiet before an automatic save.
//   - CallTimeout: per-request deadline for store calls.
//   - CacheDSN: sqlite DSN of the local read cache.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	QuietPeriod         time.Duration
	CallTimeout         time.Duration
	CacheDSN            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.QuietPeriod = 1000 * time.Millisecond
	c.CallTimeout = 10 * time.Second
	c.CacheDSN = "file:inkpad.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
