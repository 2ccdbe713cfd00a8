package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"mercator-hq/xacro/pkg/xacro/dom"
)

// Kind categorizes an error.
type Kind string

const (
	KindSyntax          Kind = "syntax"
	KindDuplicateMacro  Kind = "duplicate_macro"
	KindMissingArgument Kind = "missing_argument"
	KindUnknownArgument Kind = "unknown_argument"
	KindUnboundProperty Kind = "unbound_property"
	KindType            Kind = "type"
	KindEvaluation      Kind = "evaluation"
	KindIncludeNotFound Kind = "include_not_found"
	KindCircularInclude Kind = "circular_include"
	KindRecursionLimit  Kind = "recursion_limit"
	KindUnknownMacro    Kind = "unknown_macro"
	KindIO              Kind = "io"
)

// Sentinels for errors.Is.
var (
	ErrSyntax          = &Error{Kind: KindSyntax}
	ErrDuplicateMacro  = &Error{Kind: KindDuplicateMacro}
	ErrMissingArgument = &Error{Kind: KindMissingArgument}
	ErrUnknownArgument = &Error{Kind: KindUnknownArgument}
	ErrUnboundProperty = &Error{Kind: KindUnboundProperty}
	ErrType            = &Error{Kind: KindType}
	ErrEvaluation      = &Error{Kind: KindEvaluation}
	ErrIncludeNotFound = &Error{Kind: KindIncludeNotFound}
	ErrCircularInclude = &Error{Kind: KindCircularInclude}
	ErrRecursionLimit  = &Error{Kind: KindRecursionLimit}
	ErrUnknownMacro    = &Error{Kind: KindUnknownMacro}
	ErrIO              = &Error{Kind: KindIO}
)

// Error is a processing error with location, stacks, context and an
// optional suggestion.
type Error struct {
	Kind     Kind         // Category of error
	Message  string       // Error message
	Location dom.Location // Source location (file, line, column)

	Macro    string // Macro involved, if any
	Property string // Property or parameter involved, if any

	MacroStack   []string // Active macro invocations, outermost first
	IncludeStack []string // Active include chain, outermost first

	Context    string // Surrounding lines of source
	Suggestion string // Suggested fix (optional)
	Cause      error  // Underlying error (optional)
}

// New creates an error of the given kind.
func New(kind Kind, loc dom.Location, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, loc dom.Location, cause error, format string, args ...any) *Error {
	e := New(kind, loc, format, args...)
	e.Cause = cause
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Kind, e.Message))

	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("  --> %s\n", e.Location.String()))
	}
	if len(e.MacroStack) > 0 {
		sb.WriteString(fmt.Sprintf("  = macro stack: %s\n", strings.Join(e.MacroStack, " > ")))
	}
	if len(e.IncludeStack) > 1 {
		sb.WriteString(fmt.Sprintf("  = include stack: %s\n", strings.Join(e.IncludeStack, " -> ")))
	}

	if e.Context != "" {
		sb.WriteString("  |\n")
		sb.WriteString(e.Context)
		sb.WriteString("  |\n")
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", e.Suggestion))
	}

	return sb.String()
}

// Short returns a single-line rendering: "kind: message (location)".
func (e *Error) Short() string {
	if e.Location.File != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Location)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// WithMacroStack records the macro stack if none is set yet. The innermost
// failure site owns the most precise stack, so outer frames never overwrite it.
func (e *Error) WithMacroStack(stack []string) *Error {
	if len(e.MacroStack) == 0 && len(stack) > 0 {
		e.MacroStack = append([]string(nil), stack...)
	}
	return e
}

// WithIncludeStack records the include stack if none is set yet.
func (e *Error) WithIncludeStack(stack []string) *Error {
	if len(e.IncludeStack) == 0 && len(stack) > 0 {
		e.IncludeStack = append([]string(nil), stack...)
	}
	return e
}

// WithLocation sets the location if the error has none.
func (e *Error) WithLocation(loc dom.Location) *Error {
	if !e.Location.IsValid() && loc.File != "" {
		e.Location = loc
	}
	return e
}

// As returns err as *Error if it is one (or wraps one).
func As(err error) (*Error, bool) {
	var xe *Error
	if stderrors.As(err, &xe) {
		return xe, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	if xe, ok := As(err); ok {
		return xe.Kind
	}
	return ""
}

// ErrorList collects errors from a batch of documents.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*Error, 0),
	}
}

// Add appends an error to the list. Plain errors are wrapped as KindIO.
func (el *ErrorList) Add(err error) {
	if err == nil {
		return
	}
	if xe, ok := As(err); ok {
		el.Errors = append(el.Errors, xe)
		return
	}
	el.Errors = append(el.Errors, &Error{Kind: KindIO, Message: err.Error(), Cause: err})
}

// HasErrors returns true if the error list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d error(s):\n\n", el.Count()))

	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("Error %d:\n", i+1))
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToError returns nil if the error list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByKind returns all errors of the given kind.
func (el *ErrorList) ByKind(kind Kind) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Kind == kind {
			result = append(result, err)
		}
	}
	return result
}
