// Package config provides 12-factor configuration management for the
// playground backend.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP listener and identity cookie settings
//   - Builder: remote builder endpoint, per-build timeout, outbound rate
//   - Preview: URL shown before the first successful build
//   - Workspace: idle lifetime of per-browser workspaces
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, COOKIE_SECURE
//   - BUILDER_URL, BUILDER_TIMEOUT, BUILDER_RPS
//   - PREVIEW_DEFAULT_URL, WORKSPACE_IDLE_TTL
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
