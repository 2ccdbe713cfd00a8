package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/xacro/pkg/cli"
	"mercator-hq/xacro/pkg/config"
)

// expansionFlags are the settings shared by expand, lint and watch. Flags
// override the configuration file.
type expansionFlags struct {
	args            []string
	includePaths    []string
	packages        []string
	packagePaths    []string
	maxDepth        int
	lenientArgs     bool
	lenientIncludes bool
	falseBranch     string
	indent          string
	xmlDeclaration  bool
	noCache         bool
	gitRepo         string
	gitRev          string
}

func addExpansionFlags(cmd *cobra.Command, f *expansionFlags) {
	flags := cmd.Flags()
	flags.StringArrayVar(&f.args, "arg", nil, "set a document argument (name=value, repeatable)")
	flags.StringArrayVarP(&f.includePaths, "include-path", "I", nil, "add an include search path (repeatable)")
	flags.StringArrayVar(&f.packages, "package", nil, "map a package for $(find) (name=dir, repeatable)")
	flags.StringArrayVar(&f.packagePaths, "package-path", nil, "directory searched for packages (repeatable)")
	flags.IntVar(&f.maxDepth, "max-depth", 0, "maximum nested macro invocations (default from config)")
	flags.BoolVar(&f.lenientArgs, "lenient-args", false, "ignore call-site attributes that name no parameter")
	flags.BoolVar(&f.lenientIncludes, "lenient-includes", false, "drop includes whose file cannot be found")
	flags.StringVar(&f.falseBranch, "false-branch-properties", "", "properties in false conditionals: skip or register")
	flags.StringVar(&f.indent, "indent", "", "pretty-print with this indent (e.g. two spaces)")
	flags.BoolVar(&f.xmlDeclaration, "xml-declaration", false, "emit an XML declaration")
	flags.BoolVar(&f.noCache, "no-cache", false, "bypass the result cache")
	flags.StringVar(&f.gitRepo, "git-repo", ".", "repository used with --git-rev")
	flags.StringVar(&f.gitRev, "git-rev", "", "read documents from this Git revision instead of the working tree")
}

// apply writes the flags that were set into cfg.
func (f *expansionFlags) apply(cfg *config.Config) error {
	if len(f.args) > 0 {
		args, err := parseAssignments("arg", f.args)
		if err != nil {
			return err
		}
		if cfg.Expansion.Args == nil {
			cfg.Expansion.Args = make(map[string]string, len(args))
		}
		for k, v := range args {
			cfg.Expansion.Args[k] = v
		}
	}
	if len(f.packages) > 0 {
		pkgs, err := parseAssignments("package", f.packages)
		if err != nil {
			return err
		}
		if cfg.Expansion.Packages == nil {
			cfg.Expansion.Packages = make(map[string]string, len(pkgs))
		}
		for k, v := range pkgs {
			cfg.Expansion.Packages[k] = v
		}
	}
	cfg.Include.SearchPaths = append(cfg.Include.SearchPaths, f.includePaths...)
	cfg.Expansion.PackagePaths = append(cfg.Expansion.PackagePaths, f.packagePaths...)

	if f.maxDepth != 0 {
		cfg.Expansion.MaxRecursionDepth = f.maxDepth
	}
	if f.lenientArgs {
		cfg.Expansion.LenientArguments = true
	}
	if f.lenientIncludes {
		cfg.Include.Lenient = true
	}
	if f.falseBranch != "" {
		cfg.Expansion.FalseBranchProperties = f.falseBranch
	}
	if f.indent != "" {
		cfg.Output.Indent = unescapeIndent(f.indent)
	}
	if f.xmlDeclaration {
		cfg.Output.XMLDeclaration = true
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	return nil
}

// parseAssignments parses name=value flags, rejecting malformed entries.
func parseAssignments(flag string, pairs []string) (map[string]string, error) {
	for _, pair := range pairs {
		name, _, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, cli.NewConfigError(flag, fmt.Sprintf("expected name=value, got %q", pair))
		}
	}
	return config.ParseAssignments(pairs), nil
}

// unescapeIndent accepts "\t" on the command line.
func unescapeIndent(s string) string {
	return strings.ReplaceAll(s, `\t`, "\t")
}
