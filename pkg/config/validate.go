package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "cache.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateExpansion(&cfg.Expansion)...)
	errs = append(errs, validateInclude(&cfg.Include)...)
	errs = append(errs, validateOutput(&cfg.Output)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateExpansion(cfg *ExpansionConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxRecursionDepth < 1 {
		errs = append(errs, FieldError{
			Field:   "expansion.max_recursion_depth",
			Message: "max recursion depth must be at least 1",
		})
	}

	switch cfg.FalseBranchProperties {
	case "skip", "register":
	default:
		errs = append(errs, FieldError{
			Field:   "expansion.false_branch_properties",
			Message: fmt.Sprintf("invalid value %q: must be 'skip' or 'register'", cfg.FalseBranchProperties),
		})
	}

	for name := range cfg.Args {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\n") {
			errs = append(errs, FieldError{
				Field:   "expansion.args",
				Message: fmt.Sprintf("invalid argument name %q", name),
			})
		}
	}

	if cfg.MaxFileSize < 0 {
		errs = append(errs, FieldError{
			Field:   "expansion.max_file_size",
			Message: "max file size must be non-negative",
		})
	}

	return errs
}

func validateInclude(cfg *IncludeConfig) []FieldError {
	var errs []FieldError

	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "include.concurrency",
			Message: "concurrency must be at least 1",
		})
	}
	for i, p := range cfg.SearchPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("include.search_paths[%d]", i),
				Message: "search path must not be empty",
			})
		}
	}

	return errs
}

func validateOutput(cfg *OutputConfig) []FieldError {
	if strings.Trim(cfg.Indent, " \t") != "" {
		return []FieldError{{
			Field:   "output.indent",
			Message: "indent may only contain spaces and tabs",
		}}
	}
	return nil
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.Enabled && cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "cache.sqlite.path",
				Message: "database path is required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.SQLite.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "cache.sqlite.max_open_conns",
			Message: "max open connections must be at least 1",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.sqlite.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}
	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.retention.max_age",
			Message: "max age must be non-negative",
		})
	}
	if cfg.Retention.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.retention.max_entries",
			Message: "max entries must be non-negative",
		})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "cache.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateWatch(cfg *WatchConfig) []FieldError {
	if cfg.Debounce < 0 {
		return []FieldError{{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
