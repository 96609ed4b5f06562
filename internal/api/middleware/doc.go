// Package middleware provides the Gin middleware stack of the playground
// server: recovery, request IDs, request logging, CORS, per-IP rate limiting
// and the anonymous browser identity cookie.
//
// Order matters. Server wires them as:
//
//	RequestID → Recovery → Logger → metrics → CORS → RateLimit → Identity (page and API groups only)
package middleware
