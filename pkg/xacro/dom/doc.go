// Package dom provides the in-memory tree for xacro documents.
//
// A Document owns an ordered tree of nodes. Every node is owned by exactly
// one parent; subtrees are moved between parents by value (slice splicing)
// and copied with Clone, never shared. All nodes keep the source location
// they were parsed from so that errors can point back into the original
// file even after include splicing and macro expansion.
//
// # Node Types
//
// Element: qualified name, ordered attributes, ordered children
//
// Text: character data, whitespace preserved
//
// Comment: XML comment
//
// ProcInst: processing instruction (only kept in the prolog)
//
// # Basic Usage
//
//	doc, err := parser.Parse(data, "robot.xacro")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, link := range doc.Root.ElementChildren() {
//	    fmt.Println(link.Name, link.Attr("name"))
//	}
package dom
