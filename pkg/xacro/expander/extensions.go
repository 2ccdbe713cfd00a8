package expander

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

var extensionNames = []string{"arg", "find", "env", "optenv"}

// extensions resolves $(...) substitutions for one expansion.
type extensions struct {
	ctx          context.Context
	reader       source.Reader
	overrides    map[string]string
	declared     map[string]string
	packages     map[string]string
	packagePaths []string
	lookupEnv    func(string) (string, bool)
}

func newExtensions(ctx context.Context, reader source.Reader, opts Options) *extensions {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &extensions{
		ctx:          ctx,
		reader:       reader,
		overrides:    opts.Args,
		declared:     make(map[string]string),
		packages:     opts.Packages,
		packagePaths: opts.PackagePaths,
		lookupEnv:    lookup,
	}
}

// declare records the default of an <xacro:arg>. The first declaration wins.
func (x *extensions) declare(name, value string) {
	if _, ok := x.declared[name]; !ok {
		x.declared[name] = value
	}
}

// hasArg reports whether $(arg name) would resolve.
func (x *extensions) hasArg(name string) bool {
	if _, ok := x.overrides[name]; ok {
		return true
	}
	_, ok := x.declared[name]
	return ok
}

// ResolveExtension implements eval.ExtensionResolver.
func (x *extensions) ResolveExtension(name string, args []string) (string, error) {
	switch name {
	case "arg":
		if len(args) != 1 {
			return "", x.errorf("$(arg) takes exactly one argument, got %d", len(args))
		}
		if v, ok := x.overrides[args[0]]; ok {
			return v, nil
		}
		if v, ok := x.declared[args[0]]; ok {
			return v, nil
		}
		e := x.errorf("undefined substitution argument %q", args[0])
		e.Suggestion = fmt.Sprintf("Declare it with <xacro:arg name=%q default=\"...\"/> or pass --arg %s=VALUE", args[0], args[0])
		return "", e

	case "find":
		if len(args) != 1 {
			return "", x.errorf("$(find) takes exactly one argument, got %d", len(args))
		}
		return x.find(args[0])

	case "env":
		if len(args) != 1 {
			return "", x.errorf("$(env) takes exactly one argument, got %d", len(args))
		}
		if v, ok := x.lookupEnv(args[0]); ok {
			return v, nil
		}
		return "", x.errorf("environment variable %q is not set", args[0])

	case "optenv":
		if len(args) < 1 {
			return "", x.errorf("$(optenv) takes at least one argument")
		}
		if v, ok := x.lookupEnv(args[0]); ok {
			return v, nil
		}
		return strings.Join(args[1:], " "), nil
	}

	e := x.errorf("unknown substitution $(%s)", name)
	e.Suggestion = xacroErrors.SuggestName(name, extensionNames)
	return "", e
}

// find locates a package directory.
func (x *extensions) find(pkg string) (string, error) {
	if dir, ok := x.packages[pkg]; ok {
		return dir, nil
	}

	paths := append([]string(nil), x.packagePaths...)
	if rpp, ok := x.lookupEnv("ROS_PACKAGE_PATH"); ok {
		paths = append(paths, filepath.SplitList(rpp)...)
	}
	for _, root := range paths {
		if root == "" {
			continue
		}
		dir := filepath.Join(root, pkg)
		_, err := x.reader.ReadFile(x.ctx, filepath.Join(dir, "package.xml"))
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, source.ErrNotFound) {
			return "", err
		}
	}
	return "", x.errorf("package %q not found", pkg)
}

func (x *extensions) errorf(format string, args ...any) *xacroErrors.Error {
	return xacroErrors.New(xacroErrors.KindEvaluation, dom.Location{}, format, args...)
}
