// Package middleware holds the gin middleware in front of the VFS API:
// CORS, per-client rate limiting and request body caps.
package middleware
