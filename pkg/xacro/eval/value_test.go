package eval

import (
	"math"
	"testing"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"int", Int(3), "3"},
		{"negative int", Int(-12), "-12"},
		{"whole float", Float(1), "1.0"},
		{"fraction", Float(0.5), "0.5"},
		{"negative zero", Float(math.Copysign(0, -1)), "-0.0"},
		{"small", Float(0.00001), "1e-05"},
		{"large", Float(1e16), "1e+16"},
		{"just below large", Float(123456789012345.0), "123456789012345.0"},
		{"pi", Float(math.Pi), "3.141592653589793"},
		{"inf", Float(math.Inf(1)), "inf"},
		{"string", String("base_link"), "base_link"},
		{"true", Bool(true), "True"},
		{"false", Bool(false), "False"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind ValueKind
		want     string
	}{
		{"1", KindInt, "1"},
		{" 42 ", KindInt, "42"},
		{"1.0", KindFloat, "1.0"},
		{"-0.25", KindFloat, "-0.25"},
		{"2e3", KindFloat, "2000.0"},
		{"true", KindBool, "True"},
		{"False", KindBool, "False"},
		{"inf", KindString, "inf"},
		{"0x10", KindString, "0x10"},
		{"base_link", KindString, "base_link"},
		{"", KindString, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := ParseLiteral(tt.raw)
			if v.Kind() != tt.wantKind {
				t.Errorf("ParseLiteral(%q).Kind() = %v, want %v", tt.raw, v.Kind(), tt.wantKind)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("ParseLiteral(%q).String() = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValue_Truth(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Int(0), false},
		{Int(2), true},
		{Float(0), false},
		{Float(0.1), true},
		{String(""), false},
		{String("x"), true},
		{Bool(false), false},
		{Bool(true), true},
	}
	for _, tt := range tests {
		if got := tt.v.Truth(); got != tt.want {
			t.Errorf("%v (%s).Truth() = %v, want %v", tt.v, tt.v.Kind(), got, tt.want)
		}
	}
}
