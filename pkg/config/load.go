package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides (XACRO_SECTION_FIELD). An empty path starts
// from the defaults.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Expansion overrides
	if val := os.Getenv("XACRO_EXPANSION_MAX_RECURSION_DEPTH"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Expansion.MaxRecursionDepth = i
		}
	}
	if val := os.Getenv("XACRO_EXPANSION_LENIENT_ARGUMENTS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Expansion.LenientArguments = b
		}
	}
	if val := os.Getenv("XACRO_EXPANSION_FALSE_BRANCH_PROPERTIES"); val != "" {
		cfg.Expansion.FalseBranchProperties = val
	}
	if val := os.Getenv("XACRO_EXPANSION_ARGS"); val != "" {
		if cfg.Expansion.Args == nil {
			cfg.Expansion.Args = make(map[string]string)
		}
		for name, value := range ParseAssignments(strings.Split(val, ",")) {
			cfg.Expansion.Args[name] = value
		}
	}
	if val := os.Getenv("XACRO_EXPANSION_PACKAGE_PATHS"); val != "" {
		cfg.Expansion.PackagePaths = filepath.SplitList(val)
	}
	if val := os.Getenv("XACRO_EXPANSION_MAX_FILE_SIZE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Expansion.MaxFileSize = i
		}
	}

	// Include overrides
	if val := os.Getenv("XACRO_INCLUDE_SEARCH_PATHS"); val != "" {
		cfg.Include.SearchPaths = filepath.SplitList(val)
	}
	if val := os.Getenv("XACRO_INCLUDE_LENIENT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Include.Lenient = b
		}
	}
	if val := os.Getenv("XACRO_INCLUDE_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Include.Concurrency = i
		}
	}

	// Output overrides
	if val := os.Getenv("XACRO_OUTPUT_XML_DECLARATION"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Output.XMLDeclaration = b
		}
	}
	if val, ok := os.LookupEnv("XACRO_OUTPUT_INDENT"); ok {
		cfg.Output.Indent = val
	}

	// Cache overrides
	if val := os.Getenv("XACRO_CACHE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if val := os.Getenv("XACRO_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = val
	}
	if val := os.Getenv("XACRO_CACHE_SQLITE_PATH"); val != "" {
		cfg.Cache.SQLite.Path = val
	}
	if val := os.Getenv("XACRO_CACHE_RETENTION_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.Retention.MaxAge = d
		}
	}
	if val := os.Getenv("XACRO_CACHE_RETENTION_MAX_ENTRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Cache.Retention.MaxEntries = i
		}
	}

	// Watch overrides
	if val := os.Getenv("XACRO_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = d
		}
	}
	if val := os.Getenv("XACRO_WATCH_METRICS_ADDRESS"); val != "" {
		cfg.Watch.MetricsAddress = val
	}

	// Telemetry overrides
	if val := os.Getenv("XACRO_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("XACRO_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("XACRO_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("XACRO_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("XACRO_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("XACRO_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// ParseAssignments parses name=value pairs. Entries without '=' or with an
// empty name are ignored; surrounding whitespace is trimmed.
func ParseAssignments(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}
