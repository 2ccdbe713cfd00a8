package dom

import (
	"strings"
	"sync"
)

// XacroNamespaces are the namespace URIs that mark an element as a xacro
// directive.
var XacroNamespaces = []string{
	"http://www.ros.org/wiki/xacro",
	"http://ros.org/wiki/xacro",
}

// DefaultPrefix is always treated as the xacro prefix, bound or not.
const DefaultPrefix = "xacro"

// Dialect tracks which element prefixes denote xacro directives. Documents
// may bind the xacro namespace to any prefix; every binding seen in a
// document passed to Learn is recognised from then on.
type Dialect struct {
	mu       sync.RWMutex
	prefixes map[string]bool
}

// NewDialect creates a dialect that knows DefaultPrefix and the bindings
// declared in docs.
func NewDialect(docs ...*Document) *Dialect {
	d := &Dialect{prefixes: map[string]bool{DefaultPrefix: true}}
	for _, doc := range docs {
		d.Learn(doc)
	}
	return d
}

// Learn records the xacro namespace bindings declared anywhere in doc.
func (d *Dialect) Learn(doc *Document) {
	if doc == nil || doc.Root == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	Walk(doc.Root, func(n Node) bool {
		el, ok := n.(*Element)
		if !ok {
			return false
		}
		for _, a := range el.Attrs {
			prefix, local := SplitName(a.Name)
			if prefix == "xmlns" && isXacroNamespace(a.Value) {
				d.prefixes[local] = true
			}
		}
		return true
	})
}

// IsXacro reports whether el carries a xacro prefix.
func (d *Dialect) IsXacro(el *Element) bool {
	prefix := el.Prefix()
	if prefix == "" {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.prefixes[prefix]
}

// Is reports whether el is the xacro directive with the given local name.
func (d *Dialect) Is(el *Element, local string) bool {
	return el.Local() == local && d.IsXacro(el)
}

// Prefixes returns the known xacro prefixes.
func (d *Dialect) Prefixes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.prefixes))
	for p := range d.prefixes {
		out = append(out, p)
	}
	return out
}

func isXacroNamespace(uri string) bool {
	uri = strings.TrimSpace(uri)
	for _, ns := range XacroNamespaces {
		if uri == ns || uri == ns+"#" {
			return true
		}
	}
	return false
}
