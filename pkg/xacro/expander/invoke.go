package expander

import (
	"strings"

	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
	"mercator-hq/xacro/pkg/xacro/eval"
	"mercator-hq/xacro/pkg/xacro/macro"
)

// call expands an invocation of the macro name at el. skip names an
// attribute that is not an argument (the macro attribute of xacro:call).
func (r *run) call(el *dom.Element, name string, en env, skip string) ([]dom.Node, error) {
	// Match
	def, ok := en.registry.Lookup(name)
	if !ok {
		known := append(en.registry.Names(), directives...)
		e := xacroErrors.New(xacroErrors.KindUnknownMacro, el.Location, "unknown macro %q", name)
		e.Macro = name
		e.Suggestion = xacroErrors.SuggestName(name, known)
		return nil, e
	}

	if len(r.frames) >= r.e.opts.MaxRecursionDepth {
		chain := append(r.macroStack(), def.Name)
		e := xacroErrors.New(xacroErrors.KindRecursionLimit, el.Location,
			"maximum recursion depth %d exceeded: %s", r.e.opts.MaxRecursionDepth, chainSummary(chain))
		e.Macro = def.Name
		e.MacroStack = chain
		return nil, e
	}

	// Bind
	scope, err := r.bind(el, def, en, skip)
	if err != nil {
		return nil, err
	}

	// Instantiate
	body := def.Instantiate()
	frameEnv := env{
		scope:    scope,
		registry: macro.NewRegistry("macro "+def.Name, def.Registry),
	}

	r.frames = append(r.frames, frame{macro: def.Name, location: el.Location})
	defer func() { r.frames = r.frames[:len(r.frames)-1] }()

	r.stats.MacroInvocations++
	if len(r.frames) > r.stats.MaxDepth {
		r.stats.MaxDepth = len(r.frames)
	}

	// Recurse; the caller splices the result.
	return r.expandNodes(body, frameEnv)
}

// bind builds the frame scope of an invocation. Every argument is evaluated
// in the caller's scope; the frame itself is layered over the scope the
// macro was defined in.
func (r *run) bind(el *dom.Element, def *macro.Definition, en env, skip string) (*eval.Scope, error) {
	caller := r.interp(en.scope)
	scope := eval.NewScope("macro "+def.Name, def.Scope)

	for _, a := range el.Attrs {
		if a.Name == skip || a.Name == "xmlns" || strings.HasPrefix(a.Name, "xmlns:") {
			continue
		}
		p, ok := def.Param(a.Name)
		if !ok || p.IsBlock() {
			if r.e.opts.StrictArguments {
				e := xacroErrors.New(xacroErrors.KindUnknownArgument, el.Location,
					"macro %q has no parameter %q", def.Name, a.Name)
				e.Macro = def.Name
				e.Property = a.Name
				e.Suggestion = xacroErrors.SuggestName(a.Name, def.ParamNames())
				if e.Suggestion == "" {
					e.Suggestion = xacroErrors.SuggestParams(def.Name, def.ParamNames())
				}
				return nil, e
			}
			r.e.logger.Debug("ignoring unknown macro argument",
				"macro", def.Name,
				"argument", a.Name,
				"location", el.Location.String(),
			)
			continue
		}

		v, err := caller.Interpolate(a.Value)
		if err != nil {
			return nil, err
		}
		scope.Declare(p.Name, eval.FinalProperty(p.Name, v, el.Location))
	}

	blocks := el.ElementChildren()
	next := 0
	for _, p := range def.Params {
		if p.IsBlock() {
			if next >= len(blocks) {
				return nil, missingArgument(el, def, p, "block parameter")
			}
			blk := blocks[next]
			next++

			content := []dom.Node{blk}
			if p.Block == macro.BlockContents {
				content = blk.Children
			}
			expanded, err := r.expandNodes(dom.CloneNodes(content), en)
			if err != nil {
				return nil, err
			}
			prop := eval.BlockProperty(p.Name, expanded, blk.Location)
			prop.Expanded = true
			scope.Declare(p.Name, prop)
			continue
		}

		if _, bound := scope.LookupLocal(p.Name); bound {
			continue
		}

		if p.InheritParent {
			if _, _, ok := en.scope.Lookup(p.Name); ok {
				v, err := caller.Evaluate(p.Name)
				if err != nil {
					return nil, err
				}
				scope.Declare(p.Name, eval.FinalProperty(p.Name, v.String(), el.Location))
				continue
			}
		}

		if !p.HasDefault {
			return nil, missingArgument(el, def, p, "parameter")
		}
		v, err := caller.Interpolate(p.Default)
		if err != nil {
			return nil, err
		}
		scope.Declare(p.Name, eval.FinalProperty(p.Name, v, def.Location))
	}
	return scope, nil
}

func missingArgument(el *dom.Element, def *macro.Definition, p macro.Param, what string) error {
	e := xacroErrors.New(xacroErrors.KindMissingArgument, el.Location,
		"macro %q requires %s %q", def.Name, what, p.Name)
	e.Macro = def.Name
	e.Property = p.Name
	if p.InheritParent {
		e.Suggestion = "Define property '" + p.Name + "' in the calling scope or pass it explicitly"
	} else {
		e.Suggestion = "Signature: " + def.Signature()
	}
	return e
}
