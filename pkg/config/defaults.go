package config

import "time"

// Default values for configuration fields.
const (
	// Expansion defaults
	DefaultMaxRecursionDepth     = 256
	DefaultFalseBranchProperties = "skip"
	DefaultMaxFileSize           = int64(10 << 20) // 10MB

	// Include defaults
	DefaultIncludeConcurrency = 8

	// Cache defaults
	DefaultCacheBackend           = "sqlite"
	DefaultCacheSQLitePath        = ".xacro/cache.db"
	DefaultCacheSQLiteMaxOpen     = 4
	DefaultCacheSQLiteBusyTimeout = 5 * time.Second
	DefaultCacheRetentionMaxAge   = 7 * 24 * time.Hour
	DefaultCacheRetentionSchedule = "0 3 * * *"

	// Watch defaults
	DefaultWatchDebounce = 200 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "xacro"
	DefaultMetricsSubsystem   = "processor"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "xacro"
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultDurationBuckets are the expansion duration histogram buckets.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field of cfg with its default value.
func ApplyDefaults(cfg *Config) {
	// Expansion defaults
	if cfg.Expansion.MaxRecursionDepth == 0 {
		cfg.Expansion.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if cfg.Expansion.FalseBranchProperties == "" {
		cfg.Expansion.FalseBranchProperties = DefaultFalseBranchProperties
	}
	if cfg.Expansion.MaxFileSize == 0 {
		cfg.Expansion.MaxFileSize = DefaultMaxFileSize
	}

	// Include defaults
	if cfg.Include.Concurrency == 0 {
		cfg.Include.Concurrency = DefaultIncludeConcurrency
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.SQLite.Path == "" {
		cfg.Cache.SQLite.Path = DefaultCacheSQLitePath
	}
	if cfg.Cache.SQLite.MaxOpenConns == 0 {
		cfg.Cache.SQLite.MaxOpenConns = DefaultCacheSQLiteMaxOpen
	}
	if cfg.Cache.SQLite.BusyTimeout == 0 {
		cfg.Cache.SQLite.BusyTimeout = DefaultCacheSQLiteBusyTimeout
	}
	if cfg.Cache.Retention.MaxAge == 0 {
		cfg.Cache.Retention.MaxAge = DefaultCacheRetentionMaxAge
	}
	if cfg.Cache.Retention.Schedule == "" {
		cfg.Cache.Retention.Schedule = DefaultCacheRetentionSchedule
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
