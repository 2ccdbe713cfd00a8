// Package macro holds macro definitions and the registries that scope them.
//
// A Definition is built from a <xacro:macro> element. Its body is copied at
// registration, so expanding an invocation never touches the definition or
// the document it came from. Each definition remembers the property scope
// and registry that were visible where it was declared; invocations resolve
// names against those, never against the caller.
//
// Parameter lists use the xacro syntax:
//
//	name          required
//	name:=1.0     default, evaluated in the caller's scope
//	name:=^       inherit the caller's property of the same name
//	name:=^|0.5   inherit, falling back to 0.5
//	*name         the next element child of the invocation
//	**name        the children of that element
package macro
