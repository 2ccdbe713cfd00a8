package eval

import (
	"strings"

	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

// ExtensionResolver resolves $(name args...) substitutions.
type ExtensionResolver interface {
	ResolveExtension(name string, args []string) (string, error)
}

// ExtensionFunc adapts a function to ExtensionResolver.
type ExtensionFunc func(name string, args []string) (string, error)

// ResolveExtension implements ExtensionResolver.
func (f ExtensionFunc) ResolveExtension(name string, args []string) (string, error) {
	return f(name, args)
}

// Interpolator substitutes ${...} and $(...) in text against a scope.
type Interpolator struct {
	Scope      *Scope
	Extensions ExtensionResolver
}

// NewInterpolator creates an interpolator. ext may be nil.
func NewInterpolator(scope *Scope, ext ExtensionResolver) *Interpolator {
	return &Interpolator{Scope: scope, Extensions: ext}
}

// WithScope returns a copy of the interpolator bound to another scope.
func (in *Interpolator) WithScope(scope *Scope) *Interpolator {
	return &Interpolator{Scope: scope, Extensions: in.Extensions}
}

// Interpolate replaces every substitution in text with its string value.
func (in *Interpolator) Interpolate(text string) (string, error) {
	if !strings.Contains(text, "$") {
		return text, nil
	}
	st := &state{ext: in.Extensions}
	return st.interpolate(text, in.Scope)
}

// EvaluateText evaluates text to a typed value. Text consisting of exactly
// one ${expr} keeps the expression's type; any other text is interpolated
// and then typed with ParseLiteral.
func (in *Interpolator) EvaluateText(text string) (Value, error) {
	st := &state{ext: in.Extensions}
	return st.evaluateText(text, in.Scope)
}

// Evaluate evaluates a bare expression.
func (in *Interpolator) Evaluate(expr string) (Value, error) {
	st := &state{ext: in.Extensions}
	return st.evaluate(expr, in.Scope)
}

func (st *state) evaluateText(text string, scope *Scope) (Value, error) {
	if !strings.Contains(text, "$") {
		return ParseLiteral(text), nil
	}
	segs, err := scanText(text)
	if err != nil {
		return Value{}, err
	}
	if len(segs) == 1 && segs[0].kind == segExpr {
		return st.evaluate(segs[0].data, scope)
	}
	s, err := st.join(segs, scope)
	if err != nil {
		return Value{}, err
	}
	return ParseLiteral(s), nil
}

func (st *state) interpolate(text string, scope *Scope) (string, error) {
	segs, err := scanText(text)
	if err != nil {
		return "", err
	}
	return st.join(segs, scope)
}

func (st *state) join(segs []segment, scope *Scope) (string, error) {
	var sb strings.Builder
	for _, seg := range segs {
		switch seg.kind {
		case segText:
			sb.WriteString(seg.data)
		case segExpr:
			v, err := st.evaluate(seg.data, scope)
			if err != nil {
				return "", err
			}
			sb.WriteString(v.String())
		case segExtension:
			s, err := st.extension(seg.data, scope)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}

func (st *state) extension(body string, scope *Scope) (string, error) {
	// Arguments may themselves use ${...}.
	if strings.Contains(body, "$") {
		expanded, err := st.interpolate(body, scope)
		if err != nil {
			return "", err
		}
		body = expanded
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", xacroErrors.New(xacroErrors.KindEvaluation, dom.Location{}, "empty substitution $()")
	}
	if st.ext == nil {
		return "", xacroErrors.New(xacroErrors.KindEvaluation, dom.Location{},
			"substitution $(%s) is not available here", body)
	}

	out, err := st.ext.ResolveExtension(fields[0], fields[1:])
	if err != nil {
		if _, ok := xacroErrors.As(err); ok {
			return "", err
		}
		return "", xacroErrors.Wrap(xacroErrors.KindEvaluation, dom.Location{}, err,
			"substitution $(%s) failed: %v", body, err)
	}
	return out, nil
}
