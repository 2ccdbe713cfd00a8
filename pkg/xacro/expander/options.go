package expander

import (
	"fmt"
	"os"
)

// FalseBranchProperties values.
const (
	// FalseBranchSkip ignores property declarations in a false conditional.
	FalseBranchSkip = "skip"
	// FalseBranchRegister declares the properties that are direct children
	// of a false conditional, dropping everything else in it.
	FalseBranchRegister = "register"
)

// DefaultMaxRecursionDepth bounds nested macro invocations.
const DefaultMaxRecursionDepth = 256

// Options configures expansion.
type Options struct {
	// StrictArguments rejects call-site attributes that name no parameter.
	StrictArguments bool

	// MaxRecursionDepth is the maximum number of nested macro frames.
	MaxRecursionDepth int

	// FalseBranchProperties is FalseBranchSkip or FalseBranchRegister.
	FalseBranchProperties string

	// Args override <xacro:arg> defaults for $(arg name).
	Args map[string]string

	// Packages maps package names to directories for $(find pkg).
	Packages map[string]string

	// PackagePaths are searched for <dir>/<pkg>/package.xml when a package
	// is not listed in Packages.
	PackagePaths []string

	// LookupEnv reads environment variables for $(env) and $(optenv).
	// Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		StrictArguments:       true,
		MaxRecursionDepth:     DefaultMaxRecursionDepth,
		FalseBranchProperties: FalseBranchSkip,
		LookupEnv:             os.LookupEnv,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.MaxRecursionDepth < 1 {
		return fmt.Errorf("max recursion depth must be at least 1, got %d", o.MaxRecursionDepth)
	}
	switch o.FalseBranchProperties {
	case "", FalseBranchSkip, FalseBranchRegister:
	default:
		return fmt.Errorf("false branch properties must be %q or %q, got %q",
			FalseBranchSkip, FalseBranchRegister, o.FalseBranchProperties)
	}
	return nil
}

// Stats describes one expansion.
type Stats struct {
	MacroInvocations int // macro calls expanded
	MacrosDefined    int // macro definitions registered
	Properties       int // property declarations executed
	Conditionals     int // conditionals evaluated
	Includes         int // include directives spliced
	MaxDepth         int // deepest macro frame stack reached
}
