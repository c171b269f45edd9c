// Package pen is the record store behind the pen browsing surface.
//
// A Store implements the pen operations (create, update, view and like
// counters, fork, search, trending) over a Repository. Three repositories
// exist: an in-memory map seeded from fixture files, SQLite, and a remote
// REST record API guarded by a circuit breaker. Repository errors wrap
// ErrNotFound or ErrUnavailable so the HTTP layer can map them.
//
// Tags are derived deterministically from the title and markup and merged
// with stored tags on every read.
package pen
