// Package config provides configuration management for the xacro processor.
//
// Configuration is read from a YAML file, completed with defaults, optionally
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfig("xacro.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("xacro.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention XACRO_SECTION_FIELD:
//
//   - XACRO_EXPANSION_MAX_RECURSION_DEPTH overrides expansion.max_recursion_depth
//   - XACRO_INCLUDE_SEARCH_PATHS overrides include.search_paths (list separator)
//   - XACRO_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("xacro.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer passing explicit Config instances.
//
// # Example Configuration
//
//	expansion:
//	  max_recursion_depth: 256
//	  false_branch_properties: skip
//	  args:
//	    prefix: left_
//
//	include:
//	  search_paths: ["./urdf", "/opt/ros/share"]
//
//	output:
//	  xml_declaration: true
//	  indent: "  "
//
//	cache:
//	  enabled: true
//	  backend: sqlite
//	  sqlite:
//	    path: .xacro/cache.db
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
package config
