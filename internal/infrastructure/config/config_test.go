package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.False(t, cfg.Server.CookieSecure)

	assert.Equal(t, "http://localhost:5000/runcode", cfg.Builder.URL)
	assert.Equal(t, 90*time.Second, cfg.Builder.Timeout)
	assert.Zero(t, cfg.Builder.RequestsPerSecond)

	assert.Empty(t, cfg.Preview.DefaultURL)
	assert.Equal(t, 2*time.Hour, cfg.Workspace.IdleTTL)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                "9000",
		"HOST":                "127.0.0.1",
		"COOKIE_SECURE":       "true",
		"BUILDER_URL":         "https://builder.example.com/runcode",
		"BUILDER_TIMEOUT":     "15s",
		"BUILDER_RPS":         "2.5",
		"PREVIEW_DEFAULT_URL": "https://preview.example.com",
		"WORKSPACE_IDLE_TTL":  "30m",
		"LOG_LEVEL":           "debug",
		"LOG_DEV":             "true",
		"RATE_LIMIT_RPS":      "500",
		"RATE_LIMIT_BURST":    "1000",
		"RATE_LIMIT_ENABLED":  "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.True(t, cfg.Server.CookieSecure)
	assert.Equal(t, "https://builder.example.com/runcode", cfg.Builder.URL)
	assert.Equal(t, 15*time.Second, cfg.Builder.Timeout)
	assert.Equal(t, 2.5, cfg.Builder.RequestsPerSecond)
	assert.Equal(t, "https://preview.example.com", cfg.Preview.DefaultURL)
	assert.Equal(t, 30*time.Minute, cfg.Workspace.IdleTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "http://localhost:5000/runcode", cfg.Builder.URL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "relative builder url", key: "BUILDER_URL", value: "/runcode"},
		{name: "non-http builder url", key: "BUILDER_URL", value: "ftp://builder/runcode"},
		{name: "zero timeout", key: "BUILDER_TIMEOUT", value: "0s"},
		{name: "unparseable timeout", key: "BUILDER_TIMEOUT", value: "soon"},
		{name: "hostless preview url", key: "PREVIEW_DEFAULT_URL", value: "preview"},
		{name: "bad rate limit", key: "RATE_LIMIT_RPS", value: "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			// LoadOrDefault never fails
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}
