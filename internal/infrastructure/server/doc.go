// Package server assembles the VFS backend: it creates the standard
// directory layout, wires the identity store, tree builder, VFS service,
// change feed and metrics, and serves them behind gin with compression and
// an optional connection cap.
package server
