// Package tracing provides OpenTelemetry tracing for the xacro processor.
//
// Each expansion produces a span tree:
//
//	xacro.expand
//	├── xacro.parse
//	├── xacro.expand_macros
//	└── xacro.serialize
//
// Spans are exported over OTLP gRPC when enabled; a disabled Tracer hands
// out noop spans.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanExpand)
//	defer span.End()
package tracing
