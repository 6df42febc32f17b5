// Package logging provides structured logging for the TSK Pay engine.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same handler and default fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// Logs default to stderr because the command-line front end prints
// command results as JSON on stdout.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("database ready", "path", path)
//	logger.Error("migration failed", "error", err)
//
// Never log broker credentials or record payloads containing personal data.
package logging
