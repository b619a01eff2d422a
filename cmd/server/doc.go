// Package main is the entry point for the xos VFS server.
//
// The server keeps one encrypted home directory per user under a single VFS
// root and exposes it over a JSON HTTP API, a websocket change feed and a
// Prometheus /metrics endpoint.
//
// Configuration, lowest precedence first:
//   - Built-in defaults
//   - A YAML or TOML file (-config or $XOS_CONFIG)
//   - Environment variables
//   - CLI flags
//
// Usage:
//
//	# Serve ./vfs on :3001
//	./server
//
//	# Custom root and port with colored debug logs
//	./server -root /srv/vfs -port 8080 -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
