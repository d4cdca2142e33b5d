// Package logging provides structured logging for radmond.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire agent.
//
// # Features
//
//   - Text output for console reading (human-readable)
//   - JSON output for log shippers (machine-parsable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting agent", "url", cfg.Monitor.URL)
//	logger.Error("request failed", "error", err)
//
// Availability transitions are logged at warn (offline) and info (online)
// so a level filter of "warn" still captures outages.
package logging
