package eval

import (
	"errors"
	"strings"
	"testing"

	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

func globalScope(props map[string]string) *Scope {
	s := NewScope("global", nil)
	for name, raw := range props {
		s.Declare(name, RawProperty(name, raw, dom.Location{File: "test.xacro", Line: 1}))
	}
	return s
}

func TestEvaluate(t *testing.T) {
	scope := globalScope(map[string]string{
		"width":  "0.5",
		"count":  "3",
		"name":   "arm",
		"half":   "${width / 2}",
		"label":  "${name}_link",
		"flag":   "true",
		"radius": "${width * 0.5}",
	})

	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2", "3"},
		{"1 + 2.0", "3.0"},
		{"7 / 2", "3.5"},
		{"6 / 3", "2.0"},
		{"7 // 2", "3"},
		{"-7 // 2", "-4"},
		{"-7 % 3", "2"},
		{"7.5 % 2", "1.5"},
		{"2 ** 10", "1024"},
		{"2 ** -1", "0.5"},
		{"-2 ** 2", "-4"},
		{"2 ** 3 ** 2", "512"},
		{"(1 + 2) * 3", "9"},
		{"1 + 2 * 3", "7"},
		{"width * 2", "1.0"},
		{"count * width", "1.5"},
		{"half", "0.25"},
		{"radius + half", "0.5"},
		{"label", "arm_link"},
		{"name + '_joint'", "arm_joint"},
		{"'a' + \"b\"", "ab"},
		{"count > 2", "True"},
		{"count == 3.0", "True"},
		{"name == 'arm'", "True"},
		{"name != 'arm'", "False"},
		{"'a' < 'b'", "True"},
		{"flag and count", "3"},
		{"not flag", "False"},
		{"!flag || 0", "0"},
		{"count > 1 && width < 1", "True"},
		{"1 < 2 < 3", "True"},
		{"3 > 2 > 2", "False"},
		{"1 < 2 == 2", "True"},
		{"0 < width <= 0.5 < count", "True"},
		{"2 < 1 < missing", "False"},
		{"count > 2 and 1 < count < 5", "True"},
		{"1 if flag else 2", "1"},
		{"'big' if count > 5 else 'small'", "small"},
		{"pi", "3.141592653589793"},
		{"M_PI / 2", "1.5707963267948966"},
		{"cos(0)", "1.0"},
		{"sqrt(16)", "4.0"},
		{"abs(-3)", "3"},
		{"floor(2.7)", "2"},
		{"ceil(2.1)", "3"},
		{"round(2.5)", "2"},
		{"round(3.14159, 2)", "3.14"},
		{"min(3, 1.5, 2)", "1.5"},
		{"max(count, 10)", "10"},
		{"int('42') + 1", "43"},
		{"float(count)", "3.0"},
		{"str(count) + 'x'", "3x"},
		{"radians(180)", "3.141592653589793"},
		{"degrees(pi)", "180.0"},
		{"atan2(1, 1) * 4", "3.141592653589793"},
		{"pow(2, 3)", "8.0"},
		{"log(1)", "0.0"},
		{"log(8, 2)", "3.0"},
		{"1e-5", "1e-05"},
		{".5 + 1", "1.5"},
		{"2 ** 62", "4611686018427387904"},
		{"(-2) ** 63", "-9223372036854775808"},
		{"9223372036854775807 - 1", "9223372036854775806"},
		{"-9223372036854775807 - 1", "-9223372036854775808"},
		{"-3037000499 * 3037000499", "-9223372030926249001"},
		{"(-9223372036854775807 - 1) % -1", "0"},
		{"int(-1e18)", "-1000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := Evaluate(tt.expr, scope)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	scope := globalScope(map[string]string{
		"name":  "arm",
		"loopA": "${loopB}",
		"loopB": "${loopA + 1}",
	})
	scope.Declare("blk", BlockProperty("blk", nil, dom.Location{}))

	tests := []struct {
		expr    string
		want    error
		wantMsg string
	}{
		{"missing + 1", xacroErrors.ErrUnboundProperty, `property "missing" is not defined (scope chain: global)`},
		{"1 / 0", xacroErrors.ErrEvaluation, "division by zero"},
		{"1.0 // 0", xacroErrors.ErrEvaluation, "division by zero"},
		{"5 % 0", xacroErrors.ErrEvaluation, "modulo by zero"},
		{"name * 2", xacroErrors.ErrType, "unsupported operand types for *: 'str' and 'int'"},
		{"name - 1", xacroErrors.ErrType, "for -"},
		{"-name", xacroErrors.ErrType, "unary -"},
		{"name < 3", xacroErrors.ErrType, "'<' not supported between 'str' and 'int'"},
		{"true + 1", xacroErrors.ErrType, "'bool' and 'int'"},
		{"sqrt(-1)", xacroErrors.ErrEvaluation, "math domain error"},
		{"sin('x')", xacroErrors.ErrType, "must be a number"},
		{"nosuch(1)", xacroErrors.ErrEvaluation, "unknown function nosuch()"},
		{"min()", xacroErrors.ErrEvaluation, "takes at least 1"},
		{"1 +", xacroErrors.ErrEvaluation, "invalid expression"},
		{"(1 + 2", xacroErrors.ErrEvaluation, "expected ')'"},
		{"1 2", xacroErrors.ErrEvaluation, "unexpected"},
		{"'open", xacroErrors.ErrEvaluation, "unterminated string"},
		{"1 if true", xacroErrors.ErrEvaluation, "expected 'else'"},
		{"a @ b", xacroErrors.ErrEvaluation, "unexpected character"},
		{"loopA", xacroErrors.ErrEvaluation, "circular property definition: loopA -> loopB -> loopA"},
		{"blk", xacroErrors.ErrType, "is a block"},
		{"2 ** 64", xacroErrors.ErrEvaluation, "integer overflow in 2 ** 64"},
		{"9223372036854775807 + 1", xacroErrors.ErrEvaluation, "integer overflow"},
		{"-9223372036854775807 - 2", xacroErrors.ErrEvaluation, "integer overflow"},
		{"3037000500 * 3037000500", xacroErrors.ErrEvaluation, "integer overflow"},
		{"(-9223372036854775807 - 1) // -1", xacroErrors.ErrEvaluation, "integer overflow"},
		{"-(-9223372036854775807 - 1)", xacroErrors.ErrEvaluation, "integer overflow"},
		{"abs(-9223372036854775807 - 1)", xacroErrors.ErrEvaluation, "integer overflow"},
		{"int(1e30)", xacroErrors.ErrEvaluation, "int(): 1e+30 does not fit in a 64-bit integer"},
		{"floor(-1e19)", xacroErrors.ErrEvaluation, "does not fit"},
		{"round(1e300)", xacroErrors.ErrEvaluation, "does not fit"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr, scope)
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error", tt.expr)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Evaluate(%q) error = %v, want kind %v", tt.expr, err, tt.want)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Evaluate(%q) error = %q, want substring %q", tt.expr, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestEvaluate_UnboundNamesScopeChain(t *testing.T) {
	global := globalScope(map[string]string{"length": "1"})
	frame := NewScope("macro arm", global)
	frame.Declare("lenght", FinalProperty("lenght", "2", dom.Location{}))

	_, err := Evaluate("lenth", frame)
	xe, ok := xacroErrors.As(err)
	if !ok {
		t.Fatalf("Evaluate() error = %v, want *errors.Error", err)
	}
	if xe.Kind != xacroErrors.KindUnboundProperty {
		t.Errorf("Kind = %v, want unbound_property", xe.Kind)
	}
	if xe.Property != "lenth" {
		t.Errorf("Property = %q, want %q", xe.Property, "lenth")
	}
	if !strings.Contains(xe.Message, "macro arm > global") {
		t.Errorf("Message = %q, want scope chain", xe.Message)
	}
	if xe.Suggestion == "" {
		t.Error("Suggestion should not be empty")
	}
}

func TestEvaluate_DoesNotMutateScope(t *testing.T) {
	scope := globalScope(map[string]string{"a": "1", "b": "${a + 1}"})
	before := scope.Names()

	for i := 0; i < 3; i++ {
		v, err := Evaluate("b * 2", scope)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if v.String() != "4" {
			t.Errorf("Evaluate() = %s, want 4", v)
		}
	}

	p, _ := scope.LookupLocal("b")
	if p.Kind != PropertyRaw || p.Raw != "${a + 1}" {
		t.Errorf("property b changed: %+v", p)
	}
	if got := scope.Names(); len(got) != len(before) {
		t.Errorf("Names() = %v, want %v", got, before)
	}
}

func TestEvaluate_LazyPropertyUsesDeclaringScope(t *testing.T) {
	global := globalScope(map[string]string{"size": "1", "double": "${size * 2}"})

	// A frame shadowing "size" must not change how "double" evaluates.
	frame := NewScope("macro m", global)
	frame.Declare("size", FinalProperty("size", "10", dom.Location{}))

	v, err := Evaluate("double + size", frame)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if v.String() != "12" {
		t.Errorf("Evaluate() = %s, want 12", v)
	}
}

func TestFinalPropertyIsNotInterpolated(t *testing.T) {
	scope := NewScope("macro m", nil)
	scope.Declare("raw", FinalProperty("raw", "${not_evaluated}", dom.Location{}))

	v, err := Evaluate("raw", scope)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if v.String() != "${not_evaluated}" {
		t.Errorf("Evaluate() = %q, want the literal bound value", v.String())
	}
}
