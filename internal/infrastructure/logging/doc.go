// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Components take a *zap.Logger (or the Logger wrapper) by injection; there
// is no package-level global. Tests use NewNop.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Build failed", zap.Error(err))
package logging
