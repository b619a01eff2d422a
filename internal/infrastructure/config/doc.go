// Package config loads the server configuration.
//
// Sources, lowest precedence first:
//
//  1. Default()
//  2. a YAML (.yaml, .yml) or TOML (.toml) file named by -config or XOS_CONFIG
//  3. environment variables (PORT, HOST, VFS_ROOT, LOG_LEVEL, ...)
//  4. command line flags, applied by cmd/server
//
// Example file:
//
//	server:
//	  port: "3001"
//	  shutdown_timeout: 15s
//	vfs:
//	  root: /var/lib/xos/vfs
//	rate_limit:
//	  enabled: false
package config
