// Package xacro expands xacro documents into plain XML.
//
// The pipeline is parse, resolve includes, register macros and properties,
// expand recursively, then serialize. Each stage lives in its own
// subpackage; this package wires them together with logging, metrics,
// tracing and an optional result cache.
//
// Basic usage:
//
//	out, err := xacro.ExpandFile(ctx, "robot.urdf.xacro")
//
// With configuration and telemetry:
//
//	p := xacro.NewProcessor(
//		xacro.WithConfig(cfg),
//		xacro.WithLogger(logger),
//		xacro.WithMetrics(collector),
//		xacro.WithTracer(tracer),
//	)
//	result, err := p.ExpandFile(ctx, "robot.urdf.xacro")
//
// On error no output is produced. Errors are *errors.Error values (package
// mercator-hq/xacro/pkg/xacro/errors) carrying a kind, a location and the
// macro and include stacks active at the failure.
package xacro
