package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Builder   BuilderConfig
	Preview   PreviewConfig
	Workspace WorkspaceConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string `envconfig:"PORT" default:"8000"`
	Host         string `envconfig:"HOST" default:"0.0.0.0"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`
}

// BuilderConfig holds remote builder configuration.
type BuilderConfig struct {
	URL     string        `envconfig:"BUILDER_URL" default:"http://localhost:5000/runcode"`
	Timeout time.Duration `envconfig:"BUILDER_TIMEOUT" default:"90s"`
	// RequestsPerSecond caps outbound submissions across all workspaces; 0 disables.
	RequestsPerSecond float64 `envconfig:"BUILDER_RPS" default:"0"`
}

// PreviewConfig holds preview defaults.
type PreviewConfig struct {
	DefaultURL string `envconfig:"PREVIEW_DEFAULT_URL" default:""`
}

// WorkspaceConfig holds per-browser workspace lifetime settings.
type WorkspaceConfig struct {
	IdleTTL time.Duration `envconfig:"WORKSPACE_IDLE_TTL" default:"2h"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Builder: BuilderConfig{
			URL:     "http://localhost:5000/runcode",
			Timeout: 90 * time.Second,
		},
		Workspace: WorkspaceConfig{
			IdleTTL: 2 * time.Hour,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Builder.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid BUILDER_URL %q: must be an absolute http(s) URL", c.Builder.URL)
	}
	if c.Builder.Timeout <= 0 {
		return fmt.Errorf("invalid BUILDER_TIMEOUT %s: must be positive", c.Builder.Timeout)
	}
	if c.Preview.DefaultURL != "" {
		if u, err := url.Parse(c.Preview.DefaultURL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid PREVIEW_DEFAULT_URL %q", c.Preview.DefaultURL)
		}
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
