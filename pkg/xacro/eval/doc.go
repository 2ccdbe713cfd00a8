// Package eval implements properties, lexical scopes and the expression
// language embedded in xacro documents.
//
// Text and attribute values may contain:
//
//	${expr}        an expression evaluated against the current scope
//	$(name args)   an extension such as $(arg x) or $(find pkg)
//	$${ / $$(      a literal "${" / "$("
//
// Expressions support numeric literals, quoted strings, booleans, property
// references, arithmetic (+ - * / // % **), comparisons, and/or/not, the
// conditional form "a if c else b" and a fixed set of math builtins.
//
// # Scopes
//
// A Scope is a named frame with a parent. Lookups walk the chain outward.
// Property values declared with a raw string are evaluated lazily, in the
// scope that declared them, every time they are referenced:
//
//	global := eval.NewScope("global", nil)
//	global.Declare("width", eval.RawProperty("width", "0.5", loc))
//	global.Declare("half", eval.RawProperty("half", "${width/2}", loc))
//
//	v, err := eval.Evaluate("half * 4", global) // Float(1.0)
//
// Evaluation never mutates a scope.
package eval
