// Package include resolves <xacro:include> directives.
//
// Resolve runs before expansion. It replaces every include it can resolve
// with the children of the included document's root element, in document
// order and depth first, so the definitions an include brings in are
// registered exactly where the include stood. Includes inside macro bodies
// and conditionals are left for the expander, which resolves them with
// ResolveElement once their scope is known. So are includes whose filename
// depends on a property that is not defined yet.
//
// The files referenced at one level of the include tree are read and parsed
// concurrently; splicing is always sequential. A file that is already on the
// active include chain is a circular_include error naming the cycle.
//
// Candidate locations for a relative filename are, in order, the directory
// of the including document and each configured search path.
package include
