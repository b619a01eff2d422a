/*
Package monitoring collects Prometheus metrics for the VFS backend.

Each Metrics value owns a private registry, so several servers (or tests)
can run in one process without duplicate registration panics.

# Metrics

  - HTTP requests: count, latency, request and response size per route
  - VFS operations: count per op and outcome, latency per op
  - Logins: count per outcome
  - Change feed: open connections, events broadcast per type
  - Uptime and the standard Go and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	svc := vfs.NewService(root, store, builder, logger, vfs.WithRecorder(metrics))
*/
package monitoring
