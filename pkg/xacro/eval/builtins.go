package eval

import (
	"math"
	"strconv"
	"strings"

	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

type builtin struct {
	minArgs int
	maxArgs int // -1 for variadic
	fn      func(ev *evaluator, args []Value) (Value, error)
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"sin":     unaryMath("sin", math.Sin, nil),
		"cos":     unaryMath("cos", math.Cos, nil),
		"tan":     unaryMath("tan", math.Tan, nil),
		"asin":    unaryMath("asin", math.Asin, unitDomain),
		"acos":    unaryMath("acos", math.Acos, unitDomain),
		"atan":    unaryMath("atan", math.Atan, nil),
		"sqrt":    unaryMath("sqrt", math.Sqrt, func(x float64) bool { return x >= 0 }),
		"exp":     unaryMath("exp", math.Exp, nil),
		"radians": unaryMath("radians", func(x float64) float64 { return x * (math.Pi / 180) }, nil),
		"degrees": unaryMath("degrees", func(x float64) float64 { return x * (180 / math.Pi) }, nil),
		"atan2":   {2, 2, builtinAtan2},
		"pow":     {2, 2, builtinPow},
		"log":     {1, 2, builtinLog},
		"abs":     {1, 1, builtinAbs},
		"floor":   {1, 1, builtinFloor},
		"ceil":    {1, 1, builtinCeil},
		"round":   {1, 2, builtinRound},
		"min":     {1, -1, builtinMin},
		"max":     {1, -1, builtinMax},
		"int":     {1, 1, builtinInt},
		"float":   {1, 1, builtinFloat},
		"str":     {1, 1, builtinStr},
	}
}

// BuiltinNames returns the names of the expression builtins.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	return names
}

func (ev *evaluator) call(name string, args []Value) (Value, error) {
	b, ok := builtins[name]
	if !ok {
		e := ev.errorf(xacroErrors.KindEvaluation, "unknown function %s()", name)
		e.Suggestion = xacroErrors.SuggestName(name, BuiltinNames())
		return Value{}, e
	}
	if len(args) < b.minArgs || (b.maxArgs >= 0 && len(args) > b.maxArgs) {
		return Value{}, ev.errorf(xacroErrors.KindEvaluation, "%s() takes %s, got %d",
			name, arity(b), len(args))
	}
	return b.fn(ev, args)
}

func arity(b builtin) string {
	switch {
	case b.maxArgs < 0:
		return "at least " + strconv.Itoa(b.minArgs) + " argument(s)"
	case b.minArgs == b.maxArgs:
		return strconv.Itoa(b.minArgs) + " argument(s)"
	default:
		return strconv.Itoa(b.minArgs) + " to " + strconv.Itoa(b.maxArgs) + " arguments"
	}
}

func unitDomain(x float64) bool { return x >= -1 && x <= 1 }

func unaryMath(name string, f func(float64) float64, domain func(float64) bool) builtin {
	return builtin{1, 1, func(ev *evaluator, args []Value) (Value, error) {
		x, err := ev.number(name, args[0])
		if err != nil {
			return Value{}, err
		}
		if domain != nil && !domain(x) {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "math domain error in %s(%s)", name, args[0])
		}
		return Float(f(x)), nil
	}}
}

func (ev *evaluator) number(fn string, v Value) (float64, error) {
	if !v.IsNumber() {
		return 0, ev.errorf(xacroErrors.KindType, "%s() argument must be a number, not '%s'", fn, v.kind)
	}
	return v.Float64(), nil
}

func builtinAtan2(ev *evaluator, args []Value) (Value, error) {
	y, err := ev.number("atan2", args[0])
	if err != nil {
		return Value{}, err
	}
	x, err := ev.number("atan2", args[1])
	if err != nil {
		return Value{}, err
	}
	return Float(math.Atan2(y, x)), nil
}

func builtinPow(ev *evaluator, args []Value) (Value, error) {
	x, err := ev.number("pow", args[0])
	if err != nil {
		return Value{}, err
	}
	y, err := ev.number("pow", args[1])
	if err != nil {
		return Value{}, err
	}
	if x == 0 && y < 0 {
		return Value{}, ev.errorf(xacroErrors.KindEvaluation, "math domain error in pow(%s, %s)", args[0], args[1])
	}
	return Float(math.Pow(x, y)), nil
}

func builtinLog(ev *evaluator, args []Value) (Value, error) {
	x, err := ev.number("log", args[0])
	if err != nil {
		return Value{}, err
	}
	if x <= 0 {
		return Value{}, ev.errorf(xacroErrors.KindEvaluation, "math domain error in log(%s)", args[0])
	}
	if len(args) == 1 {
		return Float(math.Log(x)), nil
	}
	base, err := ev.number("log", args[1])
	if err != nil {
		return Value{}, err
	}
	if base <= 0 || base == 1 {
		return Value{}, ev.errorf(xacroErrors.KindEvaluation, "math domain error in log base %s", args[1])
	}
	return Float(math.Log(x) / math.Log(base)), nil
}

func builtinAbs(ev *evaluator, args []Value) (Value, error) {
	v := args[0]
	switch v.kind {
	case KindInt:
		if v.i == math.MinInt64 {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "integer overflow in abs(%d)", v.i)
		}
		if v.i < 0 {
			return Int(-v.i), nil
		}
		return v, nil
	case KindFloat:
		return Float(math.Abs(v.f)), nil
	}
	return Value{}, ev.errorf(xacroErrors.KindType, "bad operand type for abs(): '%s'", v.kind)
}

func builtinFloor(ev *evaluator, args []Value) (Value, error) {
	x, err := ev.number("floor", args[0])
	if err != nil {
		return Value{}, err
	}
	return ev.floatToInt("floor", math.Floor(x))
}

func builtinCeil(ev *evaluator, args []Value) (Value, error) {
	x, err := ev.number("ceil", args[0])
	if err != nil {
		return Value{}, err
	}
	return ev.floatToInt("ceil", math.Ceil(x))
}

// builtinRound rounds half to even. Without ndigits the result is an int.
func builtinRound(ev *evaluator, args []Value) (Value, error) {
	x, err := ev.number("round", args[0])
	if err != nil {
		return Value{}, err
	}
	if len(args) == 1 {
		return ev.floatToInt("round", math.RoundToEven(x))
	}
	if args[1].kind != KindInt {
		return Value{}, ev.errorf(xacroErrors.KindType, "round() ndigits must be an int, not '%s'", args[1].kind)
	}
	if args[0].kind == KindInt && args[1].i >= 0 {
		return args[0], nil
	}
	scale := math.Pow(10, float64(args[1].i))
	return Float(math.RoundToEven(x*scale) / scale), nil
}

func builtinMin(ev *evaluator, args []Value) (Value, error) {
	return ev.extreme("min", args, func(c int) bool { return c < 0 })
}

func builtinMax(ev *evaluator, args []Value) (Value, error) {
	return ev.extreme("max", args, func(c int) bool { return c > 0 })
}

func (ev *evaluator) extreme(name string, args []Value, better func(int) bool) (Value, error) {
	best := args[0]
	for _, v := range args[1:] {
		if !v.IsNumber() || !best.IsNumber() {
			return Value{}, ev.errorf(xacroErrors.KindType, "%s() arguments must be numbers, got '%s' and '%s'",
				name, best.kind, v.kind)
		}
		c := 0
		switch a, b := v.Float64(), best.Float64(); {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
		if better(c) {
			best = v
		}
	}
	if !best.IsNumber() {
		return Value{}, ev.errorf(xacroErrors.KindType, "%s() argument must be a number, not '%s'", name, best.kind)
	}
	return best, nil
}

func builtinInt(ev *evaluator, args []Value) (Value, error) {
	v := args[0]
	switch v.kind {
	case KindInt:
		return v, nil
	case KindFloat:
		return ev.floatToInt("int", v.f)
	case KindBool:
		if v.b {
			return Int(1), nil
		}
		return Int(0), nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "invalid literal for int(): %q", v.s)
		}
		return Int(i), nil
	}
	return Value{}, ev.errorf(xacroErrors.KindType, "int() argument has unsupported type '%s'", v.kind)
}

func builtinFloat(ev *evaluator, args []Value) (Value, error) {
	v := args[0]
	switch v.kind {
	case KindInt, KindFloat:
		return Float(v.Float64()), nil
	case KindBool:
		if v.b {
			return Float(1), nil
		}
		return Float(0), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return Value{}, ev.errorf(xacroErrors.KindEvaluation, "could not convert string to float: %q", v.s)
		}
		return Float(f), nil
	}
	return Value{}, ev.errorf(xacroErrors.KindType, "float() argument has unsupported type '%s'", v.kind)
}

func builtinStr(_ *evaluator, args []Value) (Value, error) {
	return String(args[0].String()), nil
}
