// Package telemetry groups the observability packages of the xacro
// processor.
//
//   - logging: structured logging on log/slog
//   - metrics: Prometheus metrics for expansions and the result cache
//   - tracing: OpenTelemetry spans per pipeline stage
//   - health: liveness and readiness endpoints served in watch mode
package telemetry
