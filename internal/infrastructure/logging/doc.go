// Package logging provides structured logging for coursedb.
//
// It wraps log/slog so every component logs the same way: text output for
// interactive CLI use, JSON for machine consumption, and default fields
// (service, version) on every entry.
//
// Configuration lives in the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("database connected", "path", cfg.Database.Path)
package logging
