package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for expansion run IDs.
	RunIDKey contextKey = "run_id"

	// FileKey is the context key for the document being expanded.
	FileKey contextKey = "file"

	// MacroKey is the context key for the macro being expanded.
	MacroKey contextKey = "macro"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDKey).(string); ok {
		return v
	}
	return ""
}

// WithFile adds a document path to the context.
func WithFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, FileKey, file)
}

// GetFile retrieves the document path from the context.
func GetFile(ctx context.Context) string {
	if v, ok := ctx.Value(FileKey).(string); ok {
		return v
	}
	return ""
}

// WithMacro adds a macro name to the context.
func WithMacro(ctx context.Context, macro string) context.Context {
	return context.WithValue(ctx, MacroKey, macro)
}

// GetMacro retrieves the macro name from the context.
func GetMacro(ctx context.Context) string {
	if v, ok := ctx.Value(MacroKey).(string); ok {
		return v
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	return ""
}

// extractContextFields returns the context fields as key-value pairs.
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if v := GetRunID(ctx); v != "" {
		fields = append(fields, "run_id", v)
	}
	if v := GetFile(ctx); v != "" {
		fields = append(fields, "file", v)
	}
	if v := GetMacro(ctx); v != "" {
		fields = append(fields, "macro", v)
	}
	if v := GetTraceID(ctx); v != "" {
		fields = append(fields, "trace_id", v)
	}

	return fields
}
