// Package errors provides the error taxonomy for xacro processing.
//
// Every failure of the pipeline is reported as an *Error carrying a Kind,
// the source location it refers to, and the macro-invocation and include
// stacks active at the point of failure. All kinds are terminal for the
// current expansion.
//
// # Kinds
//
// KindSyntax: malformed XML or macro directive
//
// KindDuplicateMacro: two macros with the same name in one scope
//
// KindMissingArgument: macro parameter without call-site value or default
//
// KindUnknownArgument: call-site attribute that is not a parameter (strict mode)
//
// KindUnboundProperty: reference to an undefined property
//
// KindType: operator applied to operands of the wrong type
//
// KindEvaluation: any other expression failure (division by zero, bad syntax)
//
// KindIncludeNotFound, KindCircularInclude: include resolution failures
//
// KindRecursionLimit: macro nesting exceeded the configured depth
//
// KindUnknownMacro: xacro element that is neither a directive nor a macro
//
// KindIO: file access failures
//
// # Matching
//
// Errors match their kind sentinel with the standard library:
//
//	if errors.Is(err, xacroErrors.ErrCircularInclude) {
//	    ...
//	}
//
// # Error Format
//
//	[unbound_property] Property 'length' is not defined (scopes: macro link > global)
//	  --> robot.xacro:12:5
//	  = macro stack: wheel > link
//	  |
//	->  12 |     <link length="${length}"/>
//	  |
//	  = suggestion: Did you mean 'lenght'?
package errors
