// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Session saved", zap.String("session", "work"))
//	logger.Error("Error while deleting session!", zap.Error(err))
package logging
