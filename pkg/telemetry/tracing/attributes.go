package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanExpand       = "xacro.expand"
	SpanParse        = "xacro.parse"
	SpanExpandMacros = "xacro.expand_macros"
	SpanSerialize    = "xacro.serialize"
	SpanCacheLookup  = "xacro.cache.lookup"
)

// Attribute keys.
const (
	AttrFile             = "xacro.file"
	AttrRunID            = "xacro.run_id"
	AttrMacroInvocations = "xacro.macro_invocations"
	AttrIncludes         = "xacro.includes"
	AttrMaxDepth         = "xacro.max_depth"
	AttrOutputBytes      = "xacro.output_bytes"
	AttrCacheHit         = "xacro.cache.hit"
	AttrErrorKind        = "xacro.error.kind"
	AttrErrorMessage     = "error.message"
)

// SetDocumentAttributes records the document and run on span.
func SetDocumentAttributes(span trace.Span, file, runID string) {
	span.SetAttributes(
		attribute.String(AttrFile, file),
		attribute.String(AttrRunID, runID),
	)
}

// SetExpansionAttributes records expansion statistics on span.
func SetExpansionAttributes(span trace.Span, macroInvocations, includes, maxDepth int) {
	span.SetAttributes(
		attribute.Int(AttrMacroInvocations, macroInvocations),
		attribute.Int(AttrIncludes, includes),
		attribute.Int(AttrMaxDepth, maxDepth),
	)
}

// SetCacheAttributes records a cache lookup result on span.
func SetCacheAttributes(span trace.Span, hit bool) {
	span.SetAttributes(attribute.Bool(AttrCacheHit, hit))
}

// SetErrorAttributes records err and its kind on span.
func SetErrorAttributes(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorKind, kind))
	SetError(span, err)
}

// SetOutputAttributes records the serialized size on span.
func SetOutputAttributes(span trace.Span, bytes int) {
	span.SetAttributes(attribute.Int(AttrOutputBytes, bytes))
}
