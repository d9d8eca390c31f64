// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for meetingsync.
//
// # Metrics
//
// Reconciliation:
//   - reconcile_runs_total: Counter of runs by status
//   - reconcile_run_duration_seconds: Histogram of run durations
//   - reconcile_events_total: Counter of processed events by outcome
//
// Collaborators (Graph, Google, ClickUp, OpenAI, record store):
//   - api_operations_total: Counter by service, operation and status
//   - api_operation_duration_seconds: Histogram of call durations
//   - api_retries_total: Counter of retries issued by the retry policy
//
// # Tracing
//
// Spans are created per run (reconcile.run), per event (reconcile.event)
// and per collaborator call (<service>.<operation>).
//
// # Audit
//
// Every tracker write and summary delivery is logged by AuditLogger as a
// "side_effect_applied" or "side_effect_failed" line.
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: meetingsync)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordAPIOperation(ctx, instrumentation.ServiceClickUp,
//		instrumentation.OperationCreateTask, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
