package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// current is the process configuration. Processors built without an
// explicit configuration start from it.
var (
	current  atomic.Pointer[Config]
	initOnce sync.Once
)

// Initialize loads the configuration file at path, applies XACRO_*
// environment overrides and publishes the result. Only the first call loads
// anything; later calls return nil.
func Initialize(path string) error {
	var err error
	initOnce.Do(func() {
		err = ReloadConfig(path)
	})
	return err
}

// GetConfig returns the process configuration, or nil before Initialize or
// SetConfig.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig publishes cfg as the process configuration. The CLI calls it
// after applying flags.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads path again. A file that fails to load or validate
// leaves the published configuration untouched.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(cfg)
	return nil
}

// MustGetConfig is GetConfig for callers that cannot run unconfigured.
func MustGetConfig() *Config {
	cfg := current.Load()
	if cfg == nil {
		panic("xacro configuration not initialized")
	}
	return cfg
}
