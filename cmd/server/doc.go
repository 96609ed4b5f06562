// Package main is the entry point for the reactnative-pad web server.
//
// The server hosts the playground: a landing page, the editor with its
// device frame, and the JSON and WebSocket API the editor talks to. Runs
// are forwarded to a remote bundler which answers with a preview URL.
//
// Architecture:
//
//	Browser (editor) → Go server → Builder (POST code, returns preview URL)
//	                ← WebSocket session updates
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags override the listen port, builder URL and log mode
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -builder https://builder.internal/runcode
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
