package eval

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the variant of a Value.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
	KindBool
)

// String returns the type name used in error messages.
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is the result of evaluating an expression: a number (int or float),
// a string or a bool.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    bool
}

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the variant of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNumber reports whether v is an int or a float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// Float64 returns the numeric value of v as a float. Non-numbers yield 0.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	}
	return 0
}

// Int64 returns the integer value of v, truncating floats.
func (v Value) Int64() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	}
	return 0
}

// Str returns the string payload of a string value.
func (v Value) Str() string { return v.s }

// Truth returns the truthiness of v: false, 0, 0.0 and "" are false.
func (v Value) Truth() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindBool:
		return v.b
	}
	return false
}

// String renders v as it appears in the expanded document. Floats keep a
// fractional part ("1.0") and switch to exponent form outside [1e-4, 1e16).
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	}
	return ""
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// ParseLiteral types a raw property string: integers, then floats, then the
// boolean words, otherwise the string itself.
func ParseLiteral(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return String(raw)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(f)
		}
	}
	switch s {
	case "true", "True":
		return Bool(true)
	case "false", "False":
		return Bool(false)
	}
	return String(raw)
}

// looksNumeric rejects the words strconv.ParseFloat accepts ("inf", "nan")
// and hex or underscore forms, which stay strings.
func looksNumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == 'e', r == 'E', r == '+', r == '-':
		default:
			return false
		}
	}
	return true
}
