// Package logging provides structured logging utilities for meetingsync.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Process logger construction (text or JSON, optional rotating file)
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//   - Adapter for the cron scheduler's logger interface
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithRun(slog.Default(), runID)
//	logger.Info("event finalized",
//	    logging.EventID(ev.ID),
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("processing calendar",
//	    logging.UserHash(email))
//
// # Security Considerations
//
//   - Calendar owner emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
