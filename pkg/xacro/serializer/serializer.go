// Package serializer renders documents as canonical XML text.
//
// Output is deterministic: attributes keep their insertion order, empty
// elements are self-closing, and the same tree always yields the same bytes.
// Serializing a parsed serializer output reproduces it exactly.
package serializer

import (
	"strings"

	"mercator-hq/xacro/pkg/xacro/dom"
)

// Declaration is the XML declaration written when Options.XMLDeclaration is
// set.
const Declaration = `<?xml version="1.0" encoding="utf-8"?>`

// Options controls rendering.
type Options struct {
	// XMLDeclaration writes Declaration first.
	XMLDeclaration bool

	// Indent pretty-prints the tree with this indent unit. Whitespace-only
	// text is dropped; elements holding other text are written inline.
	Indent string
}

// Serialize renders doc.
func Serialize(doc *dom.Document, opts Options) string {
	var sb strings.Builder
	w := &writer{sb: &sb, indent: opts.Indent}

	if opts.XMLDeclaration {
		sb.WriteString(Declaration)
		sb.WriteByte('\n')
	}
	for _, n := range doc.Prolog {
		w.node(n, 0)
		sb.WriteByte('\n')
	}
	if doc.Root != nil {
		w.element(doc.Root, 0)
		sb.WriteByte('\n')
	}
	for _, n := range doc.Epilog {
		w.node(n, 0)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Node renders a single node without indentation.
func Node(n dom.Node) string {
	var sb strings.Builder
	(&writer{sb: &sb}).node(n, 0)
	return sb.String()
}

// Nodes renders a node list without indentation.
func Nodes(nodes []dom.Node) string {
	var sb strings.Builder
	w := &writer{sb: &sb}
	for _, n := range nodes {
		w.node(n, 0)
	}
	return sb.String()
}

type writer struct {
	sb     *strings.Builder
	indent string
}

func (w *writer) node(n dom.Node, depth int) {
	switch n := n.(type) {
	case *dom.Element:
		w.element(n, depth)
	case *dom.Text:
		w.sb.WriteString(escapeText(n.Data))
	case *dom.Comment:
		w.sb.WriteString("<!--")
		w.sb.WriteString(n.Data)
		w.sb.WriteString("-->")
	case *dom.ProcInst:
		w.sb.WriteString("<?")
		w.sb.WriteString(n.Target)
		if n.Inst != "" {
			w.sb.WriteByte(' ')
			w.sb.WriteString(n.Inst)
		}
		w.sb.WriteString("?>")
	}
}

func (w *writer) element(el *dom.Element, depth int) {
	w.sb.WriteByte('<')
	w.sb.WriteString(el.Name)
	for _, a := range el.Attrs {
		w.sb.WriteByte(' ')
		w.sb.WriteString(a.Name)
		w.sb.WriteString(`="`)
		w.sb.WriteString(escapeAttr(a.Value))
		w.sb.WriteByte('"')
	}

	children := el.Children
	pretty := w.indent != "" && !hasText(children)
	if pretty {
		children = dropWhitespace(children)
	}
	if len(children) == 0 {
		w.sb.WriteString("/>")
		return
	}
	w.sb.WriteByte('>')

	if pretty {
		for _, c := range children {
			w.newline(depth + 1)
			w.node(c, depth+1)
		}
		w.newline(depth)
	} else {
		inline := &writer{sb: w.sb}
		for _, c := range children {
			inline.node(c, 0)
		}
	}

	w.sb.WriteString("</")
	w.sb.WriteString(el.Name)
	w.sb.WriteByte('>')
}

func (w *writer) newline(depth int) {
	w.sb.WriteByte('\n')
	for i := 0; i < depth; i++ {
		w.sb.WriteString(w.indent)
	}
}

// hasText reports whether nodes contain text other than whitespace.
func hasText(nodes []dom.Node) bool {
	for _, n := range nodes {
		if t, ok := n.(*dom.Text); ok && !t.IsWhitespace() {
			return true
		}
	}
	return false
}

func dropWhitespace(nodes []dom.Node) []dom.Node {
	out := make([]dom.Node, 0, len(nodes))
	for _, n := range nodes {
		if t, ok := n.(*dom.Text); ok && t.IsWhitespace() {
			continue
		}
		out = append(out, n)
	}
	return out
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
