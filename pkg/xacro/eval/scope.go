package eval

import (
	"mercator-hq/xacro/pkg/xacro/dom"
)

// PropertyKind identifies how a property holds its value.
type PropertyKind int

const (
	// PropertyRaw holds source text evaluated lazily in the declaring scope.
	PropertyRaw PropertyKind = iota
	// PropertyFinal holds an already evaluated string (a bound argument).
	PropertyFinal
	// PropertyBlock holds a list of nodes for insert_block.
	PropertyBlock
)

// Property is a named binding in a Scope.
type Property struct {
	Name     string
	Kind     PropertyKind
	Raw      string     // PropertyRaw and PropertyFinal
	Block    []dom.Node // PropertyBlock
	Location dom.Location

	// Expanded marks block content that was already expanded where it was
	// bound and must be inserted as is.
	Expanded bool
}

// RawProperty creates a lazily evaluated property.
func RawProperty(name, raw string, loc dom.Location) *Property {
	return &Property{Name: name, Kind: PropertyRaw, Raw: raw, Location: loc}
}

// FinalProperty creates a property whose value is not interpolated again.
func FinalProperty(name, value string, loc dom.Location) *Property {
	return &Property{Name: name, Kind: PropertyFinal, Raw: value, Location: loc}
}

// BlockProperty creates a block property. The nodes are owned by the property.
func BlockProperty(name string, nodes []dom.Node, loc dom.Location) *Property {
	return &Property{Name: name, Kind: PropertyBlock, Block: nodes, Location: loc}
}

// Scope is one frame of the lexical scope chain.
type Scope struct {
	name   string
	parent *Scope
	props  map[string]*Property
	order  []string
}

// NewScope creates a scope. parent may be nil for the global scope.
func NewScope(name string, parent *Scope) *Scope {
	return &Scope{
		name:   name,
		parent: parent,
		props:  make(map[string]*Property),
	}
}

// Name returns the scope name.
func (s *Scope) Name() string { return s.name }

// Parent returns the enclosing scope, or nil.
func (s *Scope) Parent() *Scope { return s.parent }

// Declare binds name in this scope and reports whether an earlier binding in
// the same scope was replaced.
func (s *Scope) Declare(name string, p *Property) bool {
	_, replaced := s.props[name]
	if !replaced {
		s.order = append(s.order, name)
	}
	s.props[name] = p
	return replaced
}

// LookupLocal finds name in this scope only.
func (s *Scope) LookupLocal(name string) (*Property, bool) {
	p, ok := s.props[name]
	return p, ok
}

// Lookup finds name in this scope or its ancestors and returns the property
// together with the scope that declared it.
func (s *Scope) Lookup(name string) (*Property, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if p, ok := cur.props[name]; ok {
			return p, cur, true
		}
	}
	return nil, nil, false
}

// Names returns the locally declared names in declaration order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Chain returns the scope names from innermost to outermost.
func (s *Scope) Chain() []string {
	var chain []string
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur.name)
	}
	return chain
}

// Visible returns every name visible from this scope, innermost bindings
// first, without duplicates.
func (s *Scope) Visible() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for _, n := range cur.order {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
