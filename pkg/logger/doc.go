// Package logger wraps zerolog behind a small structured logging interface.
//
// The global logger is configured once from config.LoggingConfig:
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.GetLogger().WithField("submission", 12345).Info("Fetching submission")
//
// Components that log take a Logger explicitly so tests can pass
// NewNopLogger or a capturing NewTestLogger.
package logger
