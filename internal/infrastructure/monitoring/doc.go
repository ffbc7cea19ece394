/*
Package monitoring provides Prometheus metrics for the session service.

# Overview

Metrics are registered on a private registry owned by Metrics, so several
instances (one per test) never collide on the global default registry.

# Features

- HTTP request metrics (latency, status)
- Session operation metrics (verb, outcome, duration)
- Restore metrics (windows and tabs re-opened)
- Browser navigation metrics
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "save")
	// ... perform operation ...
	timer.Stop("ok")
*/
package monitoring
