// Package server assembles PenBox: logger, metrics and tracing, the pen
// store selected by configuration, the sandbox pool, the console relay,
// the editor hub and the Gin router, and runs them until shutdown.
package server
