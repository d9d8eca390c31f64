// Package server exposes the operational HTTP endpoints of a long-running
// meetingsync process.
//
// # Endpoints
//
//   - /metrics: Prometheus scrape endpoint, when the prometheus exporter is active
//   - /healthz: liveness, always ok while the process serves
//   - /readyz: readiness, failing during shutdown or when a dependency check fails
//   - /healthz/detailed: uptime and the outcome of the last reconciliation run
//
// RunState records scheduled runs so probes and operators can see whether
// the job is making progress.
package server
