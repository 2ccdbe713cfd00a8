package eval

import (
	"cmp"
	"math"
	"math/bits"
	"strings"

	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

// constants are visible when no property of the same name is in scope.
var constants = map[string]Value{
	"pi":   Float(math.Pi),
	"M_PI": Float(math.Pi),
	"e":    Float(math.E),
}

// state is shared by one top-level evaluation, including the lazy
// evaluation of the properties it references.
type state struct {
	ext      ExtensionResolver
	visiting []*Property
}

func (st *state) enter(p *Property) error {
	for i, v := range st.visiting {
		if v == p {
			names := make([]string, 0, len(st.visiting)-i+1)
			for _, c := range st.visiting[i:] {
				names = append(names, c.Name)
			}
			names = append(names, p.Name)
			e := xacroErrors.New(xacroErrors.KindEvaluation, p.Location,
				"circular property definition: %s", strings.Join(names, " -> "))
			e.Property = p.Name
			return e
		}
	}
	st.visiting = append(st.visiting, p)
	return nil
}

func (st *state) leave() {
	st.visiting = st.visiting[:len(st.visiting)-1]
}

// Evaluate parses and evaluates expr against scope. Extensions are not
// available; properties whose raw value uses one fail to evaluate.
func Evaluate(expr string, scope *Scope) (Value, error) {
	return (&state{}).evaluate(expr, scope)
}

func (st *state) evaluate(expr string, scope *Scope) (Value, error) {
	node, err := parseExpr(expr)
	if err != nil {
		return Value{}, xacroErrors.New(xacroErrors.KindEvaluation, dom.Location{},
			"invalid expression %q: %v", expr, err)
	}
	ev := &evaluator{st: st, scope: scope, expr: expr}
	return ev.eval(node)
}

// resolve returns the value of a property, evaluating raw text in the scope
// that declared it.
func (st *state) resolve(p *Property, declScope *Scope) (Value, error) {
	switch p.Kind {
	case PropertyFinal:
		return ParseLiteral(p.Raw), nil
	case PropertyBlock:
		e := xacroErrors.New(xacroErrors.KindType, p.Location,
			"property %q is a block and cannot be used in an expression", p.Name)
		e.Property = p.Name
		return Value{}, e
	}

	if err := st.enter(p); err != nil {
		return Value{}, err
	}
	defer st.leave()

	v, err := st.evaluateText(p.Raw, declScope)
	if err != nil {
		if xe, ok := xacroErrors.As(err); ok {
			xe.WithLocation(p.Location)
			if xe.Property == "" {
				xe.Property = p.Name
			}
		}
		return Value{}, err
	}
	return v, nil
}

type evaluator struct {
	st    *state
	scope *Scope
	expr  string
}

func (ev *evaluator) errorf(kind xacroErrors.Kind, format string, args ...any) *xacroErrors.Error {
	e := xacroErrors.New(kind, dom.Location{}, format, args...)
	e.Message += " in expression \"" + ev.expr + "\""
	return e
}

func (ev *evaluator) eval(n *exprNode) (Value, error) {
	switch n.kind {
	case nodeLiteral:
		return n.value, nil
	case nodeIdent:
		return ev.ident(n.name)
	case nodeUnary:
		return ev.unary(n)
	case nodeBinary:
		return ev.binary(n)
	case nodeChain:
		return ev.chain(n)
	case nodeCond:
		cond, err := ev.eval(n.args[1])
		if err != nil {
			return Value{}, err
		}
		if cond.Truth() {
			return ev.eval(n.args[0])
		}
		return ev.eval(n.args[2])
	case nodeCall:
		args := make([]Value, len(n.args))
		for i, a := range n.args {
			v, err := ev.eval(a)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return ev.call(n.name, args)
	}
	return Value{}, ev.errorf(xacroErrors.KindEvaluation, "unsupported expression")
}

func (ev *evaluator) ident(name string) (Value, error) {
	if p, decl, ok := ev.scope.Lookup(name); ok {
		return ev.st.resolve(p, decl)
	}
	if v, ok := constants[name]; ok {
		return v, nil
	}

	e := ev.errorf(xacroErrors.KindUnboundProperty, "property %q is not defined (scope chain: %s)",
		name, strings.Join(ev.scope.Chain(), " > "))
	e.Property = name
	e.Suggestion = xacroErrors.SuggestName(name, ev.scope.Visible())
	return Value{}, e
}

func (ev *evaluator) unary(n *exprNode) (Value, error) {
	v, err := ev.eval(n.args[0])
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case "not":
		return Bool(!v.Truth()), nil
	case "-":
		switch v.kind {
		case KindInt:
			if v.i == math.MinInt64 {
				return Value{}, ev.errorf(xacroErrors.KindEvaluation, "integer overflow in -(%d)", v.i)
			}
			return Int(-v.i), nil
		case KindFloat:
			return Float(-v.f), nil
		}
	case "+":
		if v.IsNumber() {
			return v, nil
		}
	}
	return Value{}, ev.errorf(xacroErrors.KindType, "bad operand type for unary %s: '%s'", n.op, v.kind)
}

func (ev *evaluator) binary(n *exprNode) (Value, error) {
	left, err := ev.eval(n.args[0])
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case "and", "&&":
		if !left.Truth() {
			return left, nil
		}
		return ev.eval(n.args[1])
	case "or", "||":
		if left.Truth() {
			return left, nil
		}
		return ev.eval(n.args[1])
	}

	right, err := ev.eval(n.args[1])
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case "==", "!=", "<", "<=", ">", ">=":
		return ev.comparison(n.op, left, right)
	case "+":
		if left.kind == KindString && right.kind == KindString {
			return String(left.s + right.s), nil
		}
	}
	return ev.arith(n.op, left, right)
}

func (ev *evaluator) chain(n *exprNode) (Value, error) {
	left, err := ev.eval(n.args[0])
	if err != nil {
		return Value{}, err
	}
	for i, op := range n.ops {
		right, err := ev.eval(n.args[i+1])
		if err != nil {
			return Value{}, err
		}
		ok, err := ev.comparison(op, left, right)
		if err != nil || !ok.Truth() {
			return ok, err
		}
		left = right
	}
	return Bool(true), nil
}

func (ev *evaluator) comparison(op string, left, right Value) (Value, error) {
	switch op {
	case "==":
		return Bool(equal(left, right)), nil
	case "!=":
		return Bool(!equal(left, right)), nil
	}
	return ev.compare(op, left, right)
}

func (ev *evaluator) typeError(op string, left, right Value) error {
	return ev.errorf(xacroErrors.KindType, "unsupported operand types for %s: '%s' and '%s'",
		op, left.kind, right.kind)
}

func (ev *evaluator) arith(op string, left, right Value) (Value, error) {
	if !left.IsNumber() || !right.IsNumber() {
		return Value{}, ev.typeError(op, left, right)
	}

	if left.kind == KindInt && right.kind == KindInt {
		a, b := left.i, right.i
		var r int64
		ok := true
		switch op {
		case "+":
			r, ok = addInt(a, b)
		case "-":
			r, ok = subInt(a, b)
		case "*":
			r, ok = mulInt(a, b)
		case "/":
			if b == 0 {
				return Value{}, ev.errorf(xacroErrors.KindEvaluation, "division by zero")
			}
			return Float(float64(a) / float64(b)), nil
		case "//":
			if b == 0 {
				return Value{}, ev.errorf(xacroErrors.KindEvaluation, "integer division by zero")
			}
			if a == math.MinInt64 && b == -1 {
				ok = false
				break
			}
			r = floorDiv(a, b)
		case "%":
			if b == 0 {
				return Value{}, ev.errorf(xacroErrors.KindEvaluation, "modulo by zero")
			}
			if b == -1 {
				return Int(0), nil
			}
			r = a - floorDiv(a, b)*b
		case "**":
			if b < 0 {
				return Float(math.Pow(float64(a), float64(b))), nil
			}
			r, ok = ipow(a, b)
		default:
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "unknown operator %s", op)
		}
		if !ok {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "integer overflow in %d %s %d", a, op, b)
		}
		return Int(r), nil
	}

	a, b := left.Float64(), right.Float64()
	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	case "/":
		if b == 0 {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "division by zero")
		}
		return Float(a / b), nil
	case "//":
		if b == 0 {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "float floor division by zero")
		}
		return Float(math.Floor(a / b)), nil
	case "%":
		if b == 0 {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "float modulo by zero")
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return Float(m), nil
	case "**":
		if a == 0 && b < 0 {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "zero raised to a negative power")
		}
		return Float(math.Pow(a, b)), nil
	}
	return Value{}, ev.errorf(xacroErrors.KindEvaluation, "unknown operator %s", op)
}

func (ev *evaluator) compare(op string, left, right Value) (Value, error) {
	var c int
	switch {
	case left.IsNumber() && right.IsNumber():
		if left.kind == KindInt && right.kind == KindInt {
			c = cmp.Compare(left.i, right.i)
		} else {
			c = cmp.Compare(left.Float64(), right.Float64())
		}
	case left.kind == KindString && right.kind == KindString:
		c = strings.Compare(left.s, right.s)
	default:
		return Value{}, ev.errorf(xacroErrors.KindType, "'%s' not supported between '%s' and '%s'",
			op, left.kind, right.kind)
	}

	switch op {
	case "<":
		return Bool(c < 0), nil
	case "<=":
		return Bool(c <= 0), nil
	case ">":
		return Bool(c > 0), nil
	default:
		return Bool(c >= 0), nil
	}
}

func equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.i == b.i
		}
		return a.Float64() == b.Float64()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString:
		return a.s == b.s
	case KindBool:
		return a.b == b.b
	}
	return false
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ipow raises base to a non-negative exp. ok is false when the result does
// not fit in an int64.
func ipow(base, exp int64) (int64, bool) {
	result := int64(1)
	ok := true
	for {
		if exp&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp == 0 {
			return result, true
		}
		if base, ok = mulInt(base, base); !ok {
			return 0, false
		}
	}
}

func addInt(a, b int64) (int64, bool) {
	s := a + b
	return s, (b >= 0) == (s >= a)
}

func subInt(a, b int64) (int64, bool) {
	d := a - b
	return d, (b >= 0) == (d <= a)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(absUint(a), absUint(b))
	if hi != 0 {
		return 0, false
	}
	if (a < 0) != (b < 0) {
		if lo > 1<<63 {
			return 0, false
		}
		return int64(-lo), true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func absUint(x int64) uint64 {
	if x < 0 {
		return uint64(-(x + 1)) + 1
	}
	return uint64(x)
}

// floatToInt truncates f toward zero, failing for values outside the int64
// range.
func (ev *evaluator) floatToInt(name string, f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, ev.errorf(xacroErrors.KindEvaluation, "%s(): cannot convert %v to int", name, f)
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return Value{}, ev.errorf(xacroErrors.KindEvaluation, "%s(): %v does not fit in a 64-bit integer", name, f)
	}
	return Int(int64(f)), nil
}
