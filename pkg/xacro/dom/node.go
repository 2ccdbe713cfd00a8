package dom

import "strings"

// NodeType identifies the variant of a Node.
type NodeType int

const (
	NodeElement NodeType = iota
	NodeText
	NodeComment
	NodeProcInst
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case NodeElement:
		return "element"
	case NodeText:
		return "text"
	case NodeComment:
		return "comment"
	case NodeProcInst:
		return "procinst"
	default:
		return "unknown"
	}
}

// Node is a tree node. It is implemented by *Element, *Text, *Comment and
// *ProcInst only.
type Node interface {
	Type() NodeType
	Loc() Location
	// Clone returns a deep structural copy of the node.
	Clone() Node
	node()
}

// Attr is a single attribute. Name is the qualified name as written in the
// source ("xmlns:xacro", "name").
type Attr struct {
	Name  string
	Value string
}

// Element is an XML element.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []Node
	Location Location
}

// Text is character data.
type Text struct {
	Data     string
	Location Location
}

// Comment is an XML comment.
type Comment struct {
	Data     string
	Location Location
}

// ProcInst is a processing instruction such as <?xml version="1.0"?>.
type ProcInst struct {
	Target   string
	Inst     string
	Location Location
}

func (*Element) node()  {}
func (*Text) node()     {}
func (*Comment) node()  {}
func (*ProcInst) node() {}

func (*Element) Type() NodeType  { return NodeElement }
func (*Text) Type() NodeType     { return NodeText }
func (*Comment) Type() NodeType  { return NodeComment }
func (*ProcInst) Type() NodeType { return NodeProcInst }

func (e *Element) Loc() Location  { return e.Location }
func (t *Text) Loc() Location     { return t.Location }
func (c *Comment) Loc() Location  { return c.Location }
func (p *ProcInst) Loc() Location { return p.Location }

// Clone returns a deep copy of the element and its subtree.
func (e *Element) Clone() Node {
	return e.CloneElement()
}

// CloneElement is Clone with a concrete return type.
func (e *Element) CloneElement() *Element {
	out := &Element{
		Name:     e.Name,
		Location: e.Location,
	}
	if len(e.Attrs) > 0 {
		out.Attrs = make([]Attr, len(e.Attrs))
		copy(out.Attrs, e.Attrs)
	}
	out.Children = CloneNodes(e.Children)
	return out
}

func (t *Text) Clone() Node {
	c := *t
	return &c
}

func (c *Comment) Clone() Node {
	cc := *c
	return &cc
}

func (p *ProcInst) Clone() Node {
	c := *p
	return &c
}

// CloneNodes deep-copies a node list.
func CloneNodes(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// NewElement creates an element with the given name and attribute pairs.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// Prefix returns the namespace prefix of the element name, or "".
func (e *Element) Prefix() string {
	prefix, _ := SplitName(e.Name)
	return prefix
}

// Local returns the local part of the element name.
func (e *Element) Local() string {
	_, local := SplitName(e.Name)
	return local
}

// SplitName splits a qualified name into prefix and local part.
func SplitName(name string) (string, string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Attr returns the value of the named attribute, or "" if absent.
func (e *Element) Attr(name string) string {
	v, _ := e.LookupAttr(name)
	return v
}

// LookupAttr returns the value of the named attribute and whether it exists.
func (e *Element) LookupAttr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, keeping its position if it already exists and
// appending it otherwise.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// ElementChildren returns the child elements, skipping text and comments.
func (e *Element) ElementChildren() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// AppendChild appends a node to the element's children.
func (e *Element) AppendChild(n Node) {
	e.Children = append(e.Children, n)
}

// Splice replaces the child at index i with the given nodes and returns the
// index just past the inserted nodes.
func (e *Element) Splice(i int, nodes ...Node) int {
	e.Children = SpliceNodes(e.Children, i, nodes...)
	return i + len(nodes)
}

// SpliceNodes replaces list[i] with nodes, preserving sibling order.
func SpliceNodes(list []Node, i int, nodes ...Node) []Node {
	out := make([]Node, 0, len(list)-1+len(nodes))
	out = append(out, list[:i]...)
	out = append(out, nodes...)
	out = append(out, list[i+1:]...)
	return out
}

// IsWhitespace reports whether a text node contains only XML whitespace.
func (t *Text) IsWhitespace() bool {
	return strings.TrimSpace(t.Data) == ""
}
