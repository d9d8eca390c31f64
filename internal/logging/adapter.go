package logging

import (
	"log/slog"
)

// SchedulerAdapter adapts an slog.Logger to the logger interface expected by
// the cron scheduler (Info with key-value pairs, Error with a leading error).
// Scheduler chatter is demoted to debug level.
type SchedulerAdapter struct {
	logger *slog.Logger
}

// NewSchedulerAdapter creates a new SchedulerAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSchedulerAdapter(logger *slog.Logger) *SchedulerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchedulerAdapter{logger: logger.With(slog.String(KeyService, "scheduler"))}
}

// Info logs routine scheduler activity.
// Arguments should be provided as alternating key-value pairs: key1, value1, key2, value2, ...
func (a *SchedulerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

// Error logs a scheduler failure.
func (a *SchedulerAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{Err(err)}, keysAndValues...)
	a.logger.Error(msg, args...)
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SchedulerAdapter) Logger() *slog.Logger {
	return a.logger
}
