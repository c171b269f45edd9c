// Package http holds the REST handlers: pen records, rendered previews,
// headless runs and service status.
package http
