/*
Package monitoring provides metrics collection for the PenBox backend.

# Overview

Prometheus metrics for HTTP traffic, preview mounts, the console relay,
headless sandbox runs, pen store calls and editor websocket sessions.
Every Metrics value owns a private registry exposed by Handler.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "search")
	results, err := store.Search(ctx, query, opts)
	timer.Stop(monitoring.Status(err))
*/
package monitoring
