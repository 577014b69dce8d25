// Package logging wraps log/slog so every part of bvmctl logs the same way:
// structured records carrying the service name and version, JSON for
// machines or text for a terminal, filtered by level.
//
// Configuration comes from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//	logger.Error("failed to connect", "error", err)
//
// Never log secrets or tokens; this node's logs are shipped off-box.
package logging
