package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrStatus     = "status"
	attrOperation  = "operation"
	attrService    = "service"
	attrOutcome    = "outcome"
	attrUserDomain = "user_domain"
)

// Metrics records reconciliation and collaborator metrics. A zero Metrics,
// or a nil *Metrics, records nothing.
type Metrics struct {
	runsTotal   metric.Int64Counter
	runDuration metric.Float64Histogram

	eventsTotal metric.Int64Counter

	apiOperationsTotal   metric.Int64Counter
	apiOperationDuration metric.Float64Histogram
	apiRetriesTotal      metric.Int64Counter

	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error

	m.runsTotal, err = meter.Int64Counter(
		"reconcile_runs_total",
		metric.WithDescription("Total number of reconciliation runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile_runs_total counter: %w", err)
	}

	m.runDuration, err = meter.Float64Histogram(
		"reconcile_run_duration_seconds",
		metric.WithDescription("Reconciliation run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 120, 300, 600, 1800),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile_run_duration_seconds histogram: %w", err)
	}

	m.eventsTotal, err = meter.Int64Counter(
		"reconcile_events_total",
		metric.WithDescription("Calendar events processed, by outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile_events_total counter: %w", err)
	}

	m.apiOperationsTotal, err = meter.Int64Counter(
		"api_operations_total",
		metric.WithDescription("Total number of collaborator API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api_operations_total counter: %w", err)
	}

	m.apiOperationDuration, err = meter.Float64Histogram(
		"api_operation_duration_seconds",
		metric.WithDescription("Collaborator API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api_operation_duration_seconds histogram: %w", err)
	}

	m.apiRetriesTotal, err = meter.Int64Counter(
		"api_retries_total",
		metric.WithDescription("Retries issued by the bounded retry policy"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api_retries_total counter: %w", err)
	}

	return m, nil
}

// RecordRun records a finished reconciliation run.
func (m *Metrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.runsTotal == nil || m.runDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.runsTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordEvent records the outcome of processing one event. The calendar
// owner's domain is attached only with detailed labels enabled.
func (m *Metrics) RecordEvent(ctx context.Context, outcome, owner string) {
	if m == nil || m.eventsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(attrOutcome, outcome)}
	if m.detailedLabels && owner != "" {
		attrs = append(attrs, attribute.String(attrUserDomain, ExtractUserDomain(owner)))
	}
	m.eventsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAPIOperation records one collaborator call.
//
// Parameters:
//   - service: collaborator (graph, google, clickup, openai, store)
//   - operation: operation name (list_events, create_task, summarize, ...)
//   - status: "success" or "error"
//   - duration: time taken, retries included
func (m *Metrics) RecordAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.apiOperationsTotal == nil || m.apiOperationDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.apiOperationsTotal.Add(ctx, 1, attrs)
	m.apiOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRetry records a retry of a collaborator operation.
func (m *Metrics) RecordRetry(ctx context.Context, operation string) {
	if m == nil || m.apiRetriesTotal == nil {
		return
	}
	m.apiRetriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOperation, operation)))
}

// StatusOf maps an error to a status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// TrackAPI starts a client span for a collaborator call. The returned func
// ends the span and records the call against m; pass it the call's error.
//
//	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationCreateTask)
//	id, err := c.createTask(ctx, details)
//	done(err)
func TrackAPI(ctx context.Context, m *Metrics, service, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := StartAPISpan(ctx, service, operation)
	return ctx, func(err error) {
		m.RecordAPIOperation(ctx, service, operation, StatusOf(err), time.Since(start))
		EndSpan(span, err)
	}
}
