// Package config loads service configuration from environment variables
// and an optional config file using viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment names recognized by the service.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ConfigError indicates required configuration is missing or invalid.
// It is fatal at startup.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (%s): %s", e.Field, e.Message)
}

// Config holds the full service configuration surface.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// Environment is "development" or "production". Webhook endpoints
	// fail closed in production when no secret is configured.
	Environment string

	// UpstreamBaseURL is the base location manifest documents are
	// fetched from. Required.
	UpstreamBaseURL string

	// ManifestTypes is the list of configured manifest types. Required.
	ManifestTypes []string

	// ManifestPaths optionally overrides the upstream path for a type.
	// Values may be absolute URLs or paths relative to UpstreamBaseURL.
	ManifestPaths map[string]string

	// AllowedOrigins is the CORS origin allow-list. Entries may be
	// exact origins, "*.domain" wildcards, or ".domain" suffixes.
	AllowedOrigins []string

	// WebhookSecret is the shared secret for purge/warm/refresh webhooks.
	WebhookSecret string

	// RedisAddr is the persistent cache store address. Empty disables
	// the persistent tier; the in-process store serves alone.
	RedisAddr string

	// CacheTTL is how long a cached manifest stays fresh.
	CacheTTL time.Duration

	// StaleWindow is the stale-while-revalidate window past CacheTTL.
	StaleWindow time.Duration

	// FetchTimeout bounds a single upstream fetch.
	FetchTimeout time.Duration

	// RateLimitCeiling is the max requests per client per window.
	RateLimitCeiling int

	// RateLimitWindow is the rate-limit window length.
	RateLimitWindow time.Duration

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string

	// LogPretty enables human-readable console logging.
	LogPretty bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("cache_ttl_seconds", 600)
	v.SetDefault("stale_window_seconds", 3600)
	v.SetDefault("fetch_timeout_seconds", 10)
	v.SetDefault("rate_limit_ceiling", 100)
	v.SetDefault("rate_limit_window_seconds", 60)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
}

// Load reads configuration from the environment (MCCAL_ prefix) and, when
// present, a mccal.yaml config file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MCCAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	v.SetConfigName("mccal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; only env is required.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:             v.GetString("port"),
		Environment:      strings.ToLower(v.GetString("environment")),
		UpstreamBaseURL:  strings.TrimRight(v.GetString("upstream_base_url"), "/"),
		ManifestTypes:    splitList(v.GetString("manifest_types")),
		ManifestPaths:    v.GetStringMapString("manifest_paths"),
		AllowedOrigins:   splitList(v.GetString("allowed_origins")),
		WebhookSecret:    v.GetString("webhook_secret"),
		RedisAddr:        v.GetString("redis_addr"),
		CacheTTL:         time.Duration(v.GetInt("cache_ttl_seconds")) * time.Second,
		StaleWindow:      time.Duration(v.GetInt("stale_window_seconds")) * time.Second,
		FetchTimeout:     time.Duration(v.GetInt("fetch_timeout_seconds")) * time.Second,
		RateLimitCeiling: v.GetInt("rate_limit_ceiling"),
		RateLimitWindow:  time.Duration(v.GetInt("rate_limit_window_seconds")) * time.Second,
		LogLevel:         v.GetString("log_level"),
		LogPretty:        v.GetBool("log_pretty"),
	}

	// Lists may also be configured natively in the yaml file.
	if len(cfg.ManifestTypes) == 0 {
		cfg.ManifestTypes = v.GetStringSlice("manifest_types")
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = v.GetStringSlice("allowed_origins")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and invariants.
func (c *Config) Validate() error {
	if c.UpstreamBaseURL == "" {
		return &ConfigError{Field: "upstream_base_url", Message: "upstream base URL is required"}
	}
	if _, err := url.Parse(c.UpstreamBaseURL); err != nil {
		return &ConfigError{Field: "upstream_base_url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if len(c.ManifestTypes) == 0 {
		return &ConfigError{Field: "manifest_types", Message: "at least one manifest type is required"}
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return &ConfigError{Field: "environment", Message: fmt.Sprintf("unknown environment %q", c.Environment)}
	}
	if c.CacheTTL <= 0 {
		return &ConfigError{Field: "cache_ttl_seconds", Message: "cache TTL must be positive"}
	}
	if c.StaleWindow < 0 {
		return &ConfigError{Field: "stale_window_seconds", Message: "stale window must not be negative"}
	}
	if c.RateLimitCeiling <= 0 {
		return &ConfigError{Field: "rate_limit_ceiling", Message: "rate limit ceiling must be positive"}
	}
	if c.RateLimitWindow <= 0 {
		return &ConfigError{Field: "rate_limit_window_seconds", Message: "rate limit window must be positive"}
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// splitList splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
