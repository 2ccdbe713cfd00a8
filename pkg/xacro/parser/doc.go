// Package parser reads xacro documents into the tree model of package dom.
//
// The parser keeps everything later stages need to reproduce the document:
// attribute order, namespace declarations (including the xacro prefix),
// whitespace text, comments and the processing instructions of the prolog.
// Every node carries its source location so errors raised during expansion
// can point back at the offending line.
//
// # Basic Usage
//
// Parse from memory:
//
//	doc, err := parser.Parse([]byte(`<robot xmlns:xacro="http://www.ros.org/wiki/xacro"/>`), "robot.xacro")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.Root.Name)
//
// Parse through a source.Reader:
//
//	p := parser.NewParser().WithMaxFileSize(1 << 20)
//	doc, err := p.ParseFile(ctx, source.NewOS(), "urdf/robot.urdf.xacro")
//
// # Errors
//
// Malformed markup is reported as a syntax error carrying line, column and a
// short excerpt of the surrounding source:
//
//	[syntax] element <link> closed by </joint>
//	  --> robot.xacro:4:3
//
// Documents larger than the configured limit, or that cannot be read, fail
// with an io error.
package parser
