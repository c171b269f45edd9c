// Package config provides 12-factor configuration management for the PenBox backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout, gzip)
//   - Logging: Log level, output format and optional rotated file
//   - RateLimit: Per-IP rate limiting configuration
//   - Preview: Editor debounce quiet period
//   - Relay: Console log cap and per-mount message rate
//   - Sandbox: Headless execution timeout and VM pool size
//   - Store: Pen record store backend (memory, sqlite, remote)
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, GZIP
//   - LOG_LEVEL, LOG_DEV, LOG_FILE, LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - PREVIEW_DEBOUNCE
//   - RELAY_LOG_CAP, RELAY_RPS, RELAY_BURST
//   - SANDBOX_TIMEOUT, SANDBOX_POOL_SIZE
//   - STORE_BACKEND, STORE_FIXTURES, STORE_SQLITE_PATH, STORE_REMOTE_URL,
//     STORE_REMOTE_TOKEN, STORE_REMOTE_TABLE, STORE_TIMEOUT
package config
