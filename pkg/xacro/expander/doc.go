// Package expander turns a parsed xacro document into a macro-free tree.
//
// Expand runs three phases over a document:
//
//  1. include resolution: includes outside macro bodies and conditionals are
//     spliced in place (package include)
//  2. build: macro, property and arg declarations that are not inside a
//     conditional or a macro body are registered in document order and
//     removed from the tree
//  3. walk: the tree is rebuilt node by node. Directives are executed,
//     macro invocations are replaced by their instantiated bodies and
//     ${...} substitutions are evaluated
//
// Each macro invocation runs through the same steps: match the element
// against the registry, bind arguments in the caller's scope, instantiate a
// copy of the body in a fresh frame layered over the definition-time scope,
// expand that copy, splice the result in place of the call, and pop the
// frame. Frames are released when the invocation returns, also on error.
//
// Recursion is bounded by Options.MaxRecursionDepth: a chain of N nested
// invocations succeeds and the invocation that would open frame N+1 fails
// with a recursion_limit error naming the chain.
//
// Expansion of one document is sequential and deterministic.
package expander
