package config

import "time"

// Config is the root configuration structure for the xacro processor.
type Config struct {
	// Expansion controls macro expansion semantics and limits.
	Expansion ExpansionConfig `yaml:"expansion"`

	// Include controls how <xacro:include> directives locate files.
	Include IncludeConfig `yaml:"include"`

	// Output controls serialization of the expanded document.
	Output OutputConfig `yaml:"output"`

	// Cache configures the expansion result cache.
	Cache CacheConfig `yaml:"cache"`

	// Watch configures watch mode.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ExpansionConfig contains macro expansion settings.
type ExpansionConfig struct {
	// MaxRecursionDepth is the maximum number of nested macro invocations.
	// Default: 256
	MaxRecursionDepth int `yaml:"max_recursion_depth"`

	// LenientArguments ignores call-site attributes that name no macro
	// parameter instead of failing.
	// Default: false
	LenientArguments bool `yaml:"lenient_arguments"`

	// FalseBranchProperties decides whether property declarations directly
	// inside a false conditional are registered.
	// Options: "skip", "register"
	// Default: "skip"
	FalseBranchProperties string `yaml:"false_branch_properties"`

	// Args override <xacro:arg> defaults.
	Args map[string]string `yaml:"args"`

	// Packages maps package names to directories for $(find pkg).
	Packages map[string]string `yaml:"packages"`

	// PackagePaths are searched for <dir>/<pkg>/package.xml by $(find pkg).
	PackagePaths []string `yaml:"package_paths"`

	// MaxFileSize is the largest document, in bytes, the parser accepts.
	// Default: 10485760 (10MB)
	MaxFileSize int64 `yaml:"max_file_size"`
}

// IncludeConfig contains include resolution settings.
type IncludeConfig struct {
	// SearchPaths are tried, in order, after the including file's directory.
	SearchPaths []string `yaml:"search_paths"`

	// Lenient drops includes whose file cannot be found, with a warning.
	// Default: false
	Lenient bool `yaml:"lenient"`

	// Concurrency bounds how many included files are read and parsed at once.
	// Default: 8
	Concurrency int `yaml:"concurrency"`
}

// OutputConfig contains serialization settings.
type OutputConfig struct {
	// XMLDeclaration writes <?xml version="1.0" encoding="utf-8"?> first.
	// Default: false
	XMLDeclaration bool `yaml:"xml_declaration"`

	// Indent pretty-prints the output with this indent. Empty keeps the
	// whitespace of the source.
	Indent string `yaml:"indent"`
}

// CacheConfig contains expansion result cache settings.
type CacheConfig struct {
	// Enabled turns the cache on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the store.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite store settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention controls pruning of old entries.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite store settings.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: ".xacro/cache.db"
	Path string `yaml:"path"`

	// MaxOpenConns limits open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is how long a writer waits for a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains cache retention settings.
type RetentionConfig struct {
	// MaxAge removes entries not used for longer than this.
	// Default: 168h (7 days)
	MaxAge time.Duration `yaml:"max_age"`

	// MaxEntries keeps at most this many entries (0 = unlimited).
	// Default: 0
	MaxEntries int `yaml:"max_entries"`

	// Schedule is the cron expression for background pruning.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// WatchConfig contains watch mode settings.
type WatchConfig struct {
	// Debounce is the quiet period after a change before re-expanding.
	// Default: 200ms
	Debounce time.Duration `yaml:"debounce"`

	// MetricsAddress serves /metrics while watching when set.
	// Example: "127.0.0.1:9464"
	MetricsAddress string `yaml:"metrics_address"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "xacro"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "processor"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are histogram buckets for expansion duration (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "xacro"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
