package dom

// Document is the root of a parsed xacro document.
type Document struct {
	// Path is the file the document was read from ("" for in-memory input).
	Path string

	// Prolog holds comments and processing instructions before the root.
	Prolog []Node

	// Root is the document element.
	Root *Element

	// Epilog holds comments after the root element.
	Epilog []Node
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Path:   d.Path,
		Prolog: CloneNodes(d.Prolog),
		Epilog: CloneNodes(d.Epilog),
	}
	if d.Root != nil {
		out.Root = d.Root.CloneElement()
	}
	return out
}

// Walk calls fn for every node of the tree in document order. If fn returns
// false for an element, its children are skipped.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	if el, ok := n.(*Element); ok {
		for _, c := range el.Children {
			Walk(c, fn)
		}
	}
}

// CountElements returns the number of elements in the subtree rooted at n.
func CountElements(n Node) int {
	count := 0
	Walk(n, func(n Node) bool {
		if n.Type() == NodeElement {
			count++
		}
		return true
	})
	return count
}
