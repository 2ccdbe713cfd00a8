package macro

import (
	"fmt"
	"strings"
	"sync"

	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
	"mercator-hq/xacro/pkg/xacro/eval"
)

// Definition is a registered macro. It is immutable once registered.
type Definition struct {
	Name     string
	Params   []Param
	Body     []dom.Node   // owned copy of the definition body
	Scope    *eval.Scope  // property scope visible at the definition site
	Registry *Registry    // macros visible at the definition site
	Location dom.Location // location of the <xacro:macro> element
}

// Param returns the named parameter.
func (d *Definition) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ParamNames returns the declared parameter names in order.
func (d *Definition) ParamNames() []string {
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return names
}

// BlockParams returns the block parameters in declaration order.
func (d *Definition) BlockParams() []Param {
	var out []Param
	for _, p := range d.Params {
		if p.IsBlock() {
			out = append(out, p)
		}
	}
	return out
}

// Instantiate returns a fresh deep copy of the body.
func (d *Definition) Instantiate() []dom.Node {
	return dom.CloneNodes(d.Body)
}

// Signature renders the definition as "name(a, b:=1)".
func (d *Definition) Signature() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", d.Name, strings.Join(parts, ", "))
}

// FromElement builds a definition from a <xacro:macro> element. The body is
// copied; el is left untouched.
func FromElement(el *dom.Element, scope *eval.Scope, reg *Registry) (*Definition, error) {
	name, ok := el.LookupAttr("name")
	if !ok || strings.TrimSpace(name) == "" {
		return nil, xacroErrors.New(xacroErrors.KindSyntax, el.Location,
			"<%s> requires a name attribute", el.Name)
	}
	// Older documents write name="xacro:foo".
	if prefix := el.Prefix(); prefix != "" {
		name = strings.TrimPrefix(name, prefix+":")
	}

	params, err := ParseParams(el.Attr("params"))
	if err != nil {
		e := xacroErrors.New(xacroErrors.KindSyntax, el.Location, "macro %q: %v", name, err)
		e.Macro = name
		return nil, e
	}

	return &Definition{
		Name:     name,
		Params:   params,
		Body:     dom.CloneNodes(el.Children),
		Scope:    scope,
		Registry: reg,
		Location: el.Location,
	}, nil
}

// Registry maps macro names to definitions. Lookups fall back to the parent
// registry; registration only checks this registry.
type Registry struct {
	name   string
	parent *Registry

	mu    sync.RWMutex
	defs  map[string]*Definition
	order []string
}

// NewRegistry creates a registry. parent may be nil.
func NewRegistry(name string, parent *Registry) *Registry {
	return &Registry{
		name:   name,
		parent: parent,
		defs:   make(map[string]*Definition),
	}
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// Parent returns the enclosing registry, or nil.
func (r *Registry) Parent() *Registry { return r.parent }

// Register adds def. A definition with the same name in this registry is a
// duplicate_macro error.
func (r *Registry) Register(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.defs[def.Name]; ok {
		e := xacroErrors.New(xacroErrors.KindDuplicateMacro, def.Location,
			"macro %q is already defined at %s", def.Name, prev.Location)
		e.Macro = def.Name
		return e
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Lookup finds name in this registry or its ancestors.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		def, ok := cur.defs[name]
		cur.mu.RUnlock()
		if ok {
			return def, true
		}
	}
	return nil, false
}

// Len returns the number of definitions in this registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Names returns every visible macro name, innermost registry first, in
// registration order.
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := r; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		for _, n := range cur.order {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
		cur.mu.RUnlock()
	}
	return out
}
