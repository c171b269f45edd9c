// Package middleware holds the transport middleware shared by every route:
// CORS, per-client rate limiting and response compression.
package middleware
