// Package logger provides the structured logging interface used across lcscraper.
//
// It wraps zerolog behind a small Logger interface with colored console output,
// optional file output and a process-wide logger reachable through GetLogger.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.Info("Scrape started")
//	logger.WithField("index", 42).Warn("Item fetch failed")
//	logger.WithError(err).Error("Sync aborted")
//
// Components that need a logger take one as a dependency. Tests pass
// NewTestLogger to assert on captured messages, or NewNopLogger to discard them.
package logger
