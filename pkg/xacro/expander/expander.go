package expander

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
	"mercator-hq/xacro/pkg/xacro/eval"
	"mercator-hq/xacro/pkg/xacro/include"
	"mercator-hq/xacro/pkg/xacro/macro"
)

// directives are the xacro element names handled by the expander itself.
var directives = []string{
	"property", "arg", "macro", "if", "unless", "include", "insert_block", "call",
}

// Expander expands documents.
type Expander struct {
	opts     Options
	reader   source.Reader
	includes *include.Resolver
	logger   *slog.Logger
}

// New creates an expander. Includes are resolved through resolver, which
// also supplies the reader used by $(find).
func New(reader source.Reader, resolver *include.Resolver, opts Options, logger *slog.Logger) *Expander {
	if opts.MaxRecursionDepth == 0 {
		opts.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if opts.FalseBranchProperties == "" {
		opts.FalseBranchProperties = FalseBranchSkip
	}
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = include.NewResolver(reader, include.WithLogger(logger))
	}
	return &Expander{
		opts:     opts,
		reader:   reader,
		includes: resolver,
		logger:   logger.With("component", "expander"),
	}
}

// env is the naming environment of the code being expanded.
type env struct {
	scope    *eval.Scope
	registry *macro.Registry
}

// frame is one active macro invocation.
type frame struct {
	macro    string
	location dom.Location
}

// run holds the state of one Expand call.
type run struct {
	ctx      context.Context
	e        *Expander
	dialect  *dom.Dialect
	ext      *extensions
	global   env
	frames   []frame
	includes []string
	stats    Stats
}

// Expand expands doc in place. On error the document is left in an
// unspecified state and must be discarded.
func (e *Expander) Expand(ctx context.Context, doc *dom.Document) (Stats, error) {
	if err := e.opts.Validate(); err != nil {
		return Stats{}, err
	}
	if doc.Root == nil {
		return Stats{}, xacroErrors.New(xacroErrors.KindSyntax, dom.Location{File: doc.Path},
			"document has no root element")
	}

	r := &run{
		ctx:     ctx,
		e:       e,
		dialect: e.includes.Dialect(),
		ext:     newExtensions(ctx, e.reader, e.opts),
		global: env{
			scope:    eval.NewScope("global", nil),
			registry: macro.NewRegistry("global", nil),
		},
		includes: e.includes.RootStack(doc),
	}
	before := e.includes.Count()

	if err := e.includes.Resolve(ctx, doc, r.interp(r.global.scope)); err != nil {
		return Stats{}, err
	}
	if r.dialect.IsXacro(doc.Root) {
		return Stats{}, xacroErrors.New(xacroErrors.KindSyntax, doc.Root.Location,
			"root element <%s> cannot be a xacro directive", doc.Root.Name)
	}

	children, err := r.build(doc.Root.Children)
	if err != nil {
		return Stats{}, err
	}

	root, err := r.expandElement(&dom.Element{
		Name:     doc.Root.Name,
		Attrs:    doc.Root.Attrs,
		Children: children,
		Location: doc.Root.Location,
	}, r.global)
	if err != nil {
		return Stats{}, err
	}
	doc.Root = root

	r.stats.Includes = e.includes.Count() - before
	e.logger.Debug("expansion complete",
		"file", doc.Path,
		"macro_invocations", r.stats.MacroInvocations,
		"includes", r.stats.Includes,
		"max_depth", r.stats.MaxDepth,
	)
	return r.stats, nil
}

func (r *run) interp(scope *eval.Scope) *eval.Interpolator {
	return eval.NewInterpolator(scope, r.ext)
}

// build registers the macro definitions reachable without entering a
// conditional or macro body and returns nodes with those definitions
// removed. Properties and args stay in place and are declared in document
// order during expansion.
func (r *run) build(nodes []dom.Node) ([]dom.Node, error) {
	out := nodes[:0]
	for _, n := range nodes {
		el, ok := n.(*dom.Element)
		if !ok {
			out = append(out, n)
			continue
		}

		var err error
		switch {
		case r.dialect.Is(el, "macro"):
			err = r.defineMacro(el, r.global)
		case r.dialect.IsXacro(el):
			out = append(out, el)
			continue
		default:
			el.Children, err = r.build(el.Children)
			out = append(out, el)
			if err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, r.annotate(err, el.Location)
		}
	}
	return out, nil
}

// expandNodes expands a sibling list and returns the replacement list.
func (r *run) expandNodes(nodes []dom.Node, en env) ([]dom.Node, error) {
	out := make([]dom.Node, 0, len(nodes))
	for _, n := range nodes {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}

		switch n := n.(type) {
		case *dom.Text:
			data, err := r.interp(en.scope).Interpolate(n.Data)
			if err != nil {
				return nil, r.annotate(err, n.Location)
			}
			out = appendText(out, &dom.Text{Data: data, Location: n.Location})

		case *dom.Element:
			if !r.dialect.IsXacro(n) {
				el, err := r.expandElement(n, en)
				if err != nil {
					return nil, err
				}
				out = append(out, el)
				continue
			}
			expanded, err := r.directive(n, en)
			if err != nil {
				return nil, r.annotate(err, n.Location)
			}
			for _, c := range expanded {
				if t, ok := c.(*dom.Text); ok {
					out = appendText(out, t)
				} else {
					out = append(out, c)
				}
			}

		default:
			out = append(out, n)
		}
	}
	return out, nil
}

// expandElement rebuilds a plain element with interpolated attribute values
// and expanded children.
func (r *run) expandElement(el *dom.Element, en env) (*dom.Element, error) {
	in := r.interp(en.scope)
	out := &dom.Element{Name: el.Name, Location: el.Location}
	if len(el.Attrs) > 0 {
		out.Attrs = make([]dom.Attr, len(el.Attrs))
		for i, a := range el.Attrs {
			v, err := in.Interpolate(a.Value)
			if err != nil {
				return nil, r.annotate(err, el.Location)
			}
			out.Attrs[i] = dom.Attr{Name: a.Name, Value: v}
		}
	}

	children, err := r.expandNodes(el.Children, en)
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		out.Children = children
	}
	return out, nil
}

// directive executes one xacro element and returns the nodes replacing it.
func (r *run) directive(el *dom.Element, en env) ([]dom.Node, error) {
	switch el.Local() {
	case "property":
		return nil, r.declareProperty(el, en)
	case "arg":
		return nil, r.declareArg(el, en)
	case "macro":
		return nil, r.defineMacro(el, en)
	case "if", "unless":
		return r.conditional(el, en)
	case "include":
		return r.include(el, en)
	case "insert_block":
		return r.insertBlock(el, en)
	case "call":
		name, err := r.requiredAttr(el, "macro", en)
		if err != nil {
			return nil, err
		}
		return r.call(el, name, en, "macro")
	}
	return r.call(el, el.Local(), en, "")
}

// requiredAttr returns the interpolated value of a mandatory attribute.
func (r *run) requiredAttr(el *dom.Element, name string, en env) (string, error) {
	raw, ok := el.LookupAttr(name)
	if !ok {
		return "", xacroErrors.New(xacroErrors.KindSyntax, el.Location,
			"<%s> requires a %s attribute", el.Name, name)
	}
	v, err := r.interp(en.scope).Interpolate(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", xacroErrors.New(xacroErrors.KindSyntax, el.Location,
			"<%s> has an empty %s attribute", el.Name, name)
	}
	return v, nil
}

func (r *run) declareProperty(el *dom.Element, en env) error {
	name, err := r.requiredAttr(el, "name", en)
	if err != nil {
		return err
	}

	var prop *eval.Property
	if value, ok := el.LookupAttr("value"); ok {
		prop = eval.RawProperty(name, value, el.Location)
	} else if def, ok := el.LookupAttr("default"); ok {
		if _, _, exists := en.scope.Lookup(name); exists {
			return nil
		}
		prop = eval.RawProperty(name, def, el.Location)
	} else {
		prop = eval.BlockProperty(name, dom.CloneNodes(el.Children), el.Location)
	}

	if en.scope.Declare(name, prop) {
		r.e.logger.Warn("property redefined",
			"property", name,
			"scope", en.scope.Name(),
			"location", el.Location.String(),
		)
	}
	r.stats.Properties++
	return nil
}

func (r *run) declareArg(el *dom.Element, en env) error {
	name, err := r.requiredAttr(el, "name", en)
	if err != nil {
		return err
	}
	if r.ext.hasArg(name) {
		return nil
	}
	if def, ok := el.LookupAttr("default"); ok {
		v, err := r.interp(en.scope).Interpolate(def)
		if err != nil {
			return err
		}
		r.ext.declare(name, v)
	}
	return nil
}

func (r *run) defineMacro(el *dom.Element, en env) error {
	def, err := macro.FromElement(el, en.scope, en.registry)
	if err != nil {
		return err
	}
	if err := en.registry.Register(def); err != nil {
		return err
	}
	r.stats.MacrosDefined++
	return nil
}

func (r *run) conditional(el *dom.Element, en env) ([]dom.Node, error) {
	raw, ok := el.LookupAttr("value")
	if !ok {
		return nil, xacroErrors.New(xacroErrors.KindSyntax, el.Location,
			"<%s> requires a value attribute", el.Name)
	}
	v, err := r.interp(en.scope).EvaluateText(raw)
	if err != nil {
		return nil, err
	}

	var cond bool
	switch v.Kind() {
	case eval.KindBool, eval.KindInt, eval.KindFloat:
		cond = v.Truth()
	default:
		return nil, xacroErrors.New(xacroErrors.KindType, el.Location,
			"conditional value %q evaluated to %q, which is not a boolean expression", raw, v.String())
	}
	if el.Local() == "unless" {
		cond = !cond
	}
	r.stats.Conditionals++

	if cond {
		return r.expandNodes(el.Children, en)
	}
	if r.e.opts.FalseBranchProperties == FalseBranchRegister {
		for _, c := range el.ElementChildren() {
			if r.dialect.Is(c, "property") {
				if err := r.declareProperty(c, en); err != nil {
					return nil, r.annotate(err, c.Location)
				}
			}
		}
	}
	return nil, nil
}

func (r *run) include(el *dom.Element, en env) ([]dom.Node, error) {
	nodes, path, err := r.e.includes.ResolveElement(r.ctx, el, r.includes, r.interp(en.scope))
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	r.includes = append(r.includes, path)
	defer func() { r.includes = r.includes[:len(r.includes)-1] }()

	return r.expandNodes(nodes, en)
}

func (r *run) insertBlock(el *dom.Element, en env) ([]dom.Node, error) {
	name, err := r.requiredAttr(el, "name", en)
	if err != nil {
		return nil, err
	}
	prop, decl, ok := en.scope.Lookup(name)
	if !ok {
		e := xacroErrors.New(xacroErrors.KindUnboundProperty, el.Location,
			"block %q is not defined (scope chain: %s)", name, strings.Join(en.scope.Chain(), " > "))
		e.Property = name
		e.Suggestion = xacroErrors.SuggestName(name, en.scope.Visible())
		return nil, e
	}
	if prop.Kind != eval.PropertyBlock {
		e := xacroErrors.New(xacroErrors.KindType, el.Location,
			"property %q is not a block and cannot be inserted", name)
		e.Property = name
		return nil, e
	}

	nodes := dom.CloneNodes(prop.Block)
	if prop.Expanded {
		return nodes, nil
	}
	return r.expandNodes(nodes, env{scope: decl, registry: en.registry})
}

// annotate attaches location and stacks to err unless a more precise site
// already did.
func (r *run) annotate(err error, loc dom.Location) error {
	xe, ok := xacroErrors.As(err)
	if !ok {
		return err
	}
	xe.WithLocation(loc)
	xe.WithMacroStack(r.macroStack())
	xe.WithIncludeStack(r.includes)
	return err
}

func (r *run) macroStack() []string {
	if len(r.frames) == 0 {
		return nil
	}
	out := make([]string, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.macro
	}
	return out
}

// appendText appends t, merging it into a preceding text node.
func appendText(out []dom.Node, t *dom.Text) []dom.Node {
	if t.Data == "" {
		return out
	}
	if n := len(out); n > 0 {
		if prev, ok := out[n-1].(*dom.Text); ok {
			out[n-1] = &dom.Text{Data: prev.Data + t.Data, Location: prev.Location}
			return out
		}
	}
	return append(out, t)
}

// chainSummary renders a macro chain, collapsing runs of the same name.
func chainSummary(chain []string) string {
	var parts []string
	for i := 0; i < len(chain); {
		j := i
		for j < len(chain) && chain[j] == chain[i] {
			j++
		}
		if n := j - i; n > 1 {
			parts = append(parts, fmt.Sprintf("%s (x%d)", chain[i], n))
		} else {
			parts = append(parts, chain[i])
		}
		i = j
	}
	return strings.Join(parts, " > ")
}
