// Package config defines the service configuration and its loader.
package config

import (
	"time"
)

// Store drivers understood by the store package.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// GitHubToken selects the authenticated quota tier when set.
	GitHubToken      string `koanf:"github_token"`
	GitHubBaseURL    string `koanf:"github_base_url"`
	GitHubGraphQLURL string `koanf:"github_graphql_url"`

	// CacheTTL is the freshness window of a stored analysis.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	StoreDriver string `koanf:"store_driver"`
	StoreDSN    string `koanf:"store_dsn"`

	// NationThreshold is the confidence below which a nation estimate is treated as absent.
	NationThreshold float64 `koanf:"nation_threshold"`

	CollectorConcurrency       int     `koanf:"collector_concurrency"`
	CollectorMaxRepoPages      int     `koanf:"collector_max_repo_pages"`
	CollectorNetworkSize       int     `koanf:"collector_network_size"`
	CollectorWindowDays        int     `koanf:"collector_window_days"`
	CollectorRequestsPerSecond float64 `koanf:"collector_requests_per_second"`

	RetryMaxAttempts  int           `koanf:"retry_max_attempts"`
	RetryInitialDelay time.Duration `koanf:"retry_initial_delay"`
	RetryMaxDelay     time.Duration `koanf:"retry_max_delay"`

	// SearchMaxLimit caps the search limit parameter.
	SearchMaxLimit int `koanf:"search_max_limit"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                   "info",
		LogFormat:                  "text",
		Addr:                       ":8000",
		CacheTTL:                   time.Hour,
		StoreDriver:                DriverMemory,
		StoreDSN:                   "talentrank.db",
		NationThreshold:            0.3,
		CollectorConcurrency:       3,
		CollectorMaxRepoPages:      3,
		CollectorNetworkSize:       50,
		CollectorWindowDays:        365,
		CollectorRequestsPerSecond: 10,
		RetryMaxAttempts:           3,
		RetryInitialDelay:          200 * time.Millisecond,
		RetryMaxDelay:              5 * time.Second,
		SearchMaxLimit:             100,
	}
}

// Authenticated reports whether a provider token is configured.
func (c *Config) Authenticated() bool { return c.GitHubToken != "" }
