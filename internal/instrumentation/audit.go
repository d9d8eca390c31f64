package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/meetingsync/internal/logging"
)

// SideEffect captures one externally visible write made during a run, such
// as a tracker task creation or a summary being filed.
//
// # Privacy Considerations
//
// Owner holds the calendar owner's address. It is hashed unless the audit
// logger is configured to include PII.
type SideEffect struct {
	Action  string
	Service string
	RunID   string
	EventID string
	Owner   string
	// Target is the external reference written to (task ID, container ID).
	Target string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewSideEffect starts timing a side effect.
func NewSideEffect(service, action string) *SideEffect {
	return &SideEffect{
		Service:   service,
		Action:    action,
		StartTime: time.Now(),
	}
}

// ForEvent sets the run, event and calendar owner the effect belongs to.
func (se *SideEffect) ForEvent(runID, eventID, owner string) *SideEffect {
	se.RunID = runID
	se.EventID = eventID
	se.Owner = owner
	return se
}

// WithTarget sets the external reference written to.
func (se *SideEffect) WithTarget(target string) *SideEffect {
	se.Target = target
	return se
}

// WithSpanContext extracts trace context from the current span.
func (se *SideEffect) WithSpanContext(ctx context.Context) *SideEffect {
	se.TraceID = GetTraceID(ctx)
	se.SpanID = GetSpanID(ctx)
	return se
}

// Complete marks the effect as finished, failed when err is non-nil.
func (se *SideEffect) Complete(err error) *SideEffect {
	se.Duration = time.Since(se.StartTime)
	se.Success = err == nil
	if err != nil {
		se.Error = err.Error()
	}
	return se
}

// Status returns "success" or "error" based on the Success field.
func (se *SideEffect) Status() string {
	if se.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the effect. The owner is included in
// full only when includePII is set.
func (se *SideEffect) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", se.Action),
		logging.Service(se.Service),
		slog.Duration("duration", se.Duration),
		slog.Bool("success", se.Success),
	}

	if se.Owner != "" {
		if includePII {
			attrs = append(attrs, slog.String("user", se.Owner))
		} else {
			attrs = append(attrs, logging.UserHash(se.Owner))
		}
	}
	if se.RunID != "" {
		attrs = append(attrs, logging.RunID(se.RunID))
	}
	if se.EventID != "" {
		attrs = append(attrs, logging.EventID(se.EventID))
	}
	if se.Target != "" {
		attrs = append(attrs, slog.String("target", se.Target))
	}
	if se.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", se.TraceID))
	}
	if se.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", se.SpanID))
	}
	if se.Error != "" {
		attrs = append(attrs, slog.String("error", se.Error))
	}
	return attrs
}

// AuditLogger writes one structured line per side effect.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. A nil logger falls back to slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("log_type", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// Log records a completed side effect. A nil AuditLogger logs nothing.
func (al *AuditLogger) Log(se *SideEffect) {
	if al == nil || !al.enabled || se == nil {
		return
	}

	attrs := se.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if se.Success {
		al.logger.Info("side_effect_applied", args...)
	} else {
		al.logger.Warn("side_effect_failed", args...)
	}
}
