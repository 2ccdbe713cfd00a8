package cli

import (
	"errors"
	"fmt"

	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitExpansion = 1
	ExitUsage     = 2
	ExitIO        = 3
)

// ConfigError represents an invalid flag or configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitUsage
	}

	var list *xacroErrors.ErrorList
	if errors.As(err, &list) {
		for _, e := range list.Errors {
			if e.Kind != xacroErrors.KindIO {
				return ExitExpansion
			}
		}
		return ExitIO
	}

	switch xacroErrors.KindOf(err) {
	case xacroErrors.KindIO, xacroErrors.KindIncludeNotFound:
		return ExitIO
	case "":
		return ExitUsage
	default:
		return ExitExpansion
	}
}
