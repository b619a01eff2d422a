// Package logging builds the zap loggers used across the VFS backend.
//
// Production mode writes JSON, development mode writes colored console
// output. Components take a plain *zap.Logger; a nil logger means no-op.
//
// Plaintext file content, passwords, hashes and keys are never logged.
//
// Example Usage:
//
//	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	defer logger.Sync()
//	logger.Info("Server starting", zap.String("addr", cfg.Server.Addr()))
package logging
