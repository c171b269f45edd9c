// Command penbox runs the PenBox server and its offline tools.
//
// Usage:
//
//	penbox serve [--port 8000] [--store sqlite --sqlite pens.db] [--fixtures 'fixtures/**/*.json']
//	penbox render bundle.json > preview.html
//	penbox run bundle.json
//
// serve reads its configuration from the environment (see the config
// package); flags override it. SIGINT and SIGTERM shut the server down
// gracefully, closing editor sessions first.
package main
