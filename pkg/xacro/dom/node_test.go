package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestElement_CloneIsDeep(t *testing.T) {
	orig := &Element{
		Name:  "link",
		Attrs: []Attr{{Name: "name", Value: "base"}},
		Children: []Node{
			&Element{Name: "visual", Children: []Node{&Text{Data: "x"}}},
		},
	}

	clone := orig.CloneElement()
	if diff := cmp.Diff(orig, clone); diff != "" {
		t.Fatalf("clone differs from original (-orig +clone):\n%s", diff)
	}

	clone.SetAttr("name", "arm")
	clone.Children[0].(*Element).Children[0].(*Text).Data = "y"

	if got := orig.Attr("name"); got != "base" {
		t.Errorf("original name = %q, want %q", got, "base")
	}
	if got := orig.Children[0].(*Element).Children[0].(*Text).Data; got != "x" {
		t.Errorf("original text = %q, want %q", got, "x")
	}
}

func TestElement_Attrs(t *testing.T) {
	el := NewElement("joint", Attr{Name: "name", Value: "j1"}, Attr{Name: "type", Value: "fixed"})

	el.SetAttr("type", "revolute")
	el.SetAttr("extra", "1")
	want := []Attr{{"name", "j1"}, {"type", "revolute"}, {"extra", "1"}}
	if diff := cmp.Diff(want, el.Attrs); diff != "" {
		t.Errorf("attrs mismatch (-want +got):\n%s", diff)
	}

	el.RemoveAttr("name")
	if _, ok := el.LookupAttr("name"); ok {
		t.Error("name attribute still present after RemoveAttr")
	}
}

func TestSpliceNodes(t *testing.T) {
	a, b, c := &Text{Data: "a"}, &Text{Data: "b"}, &Text{Data: "c"}
	x, y := &Text{Data: "x"}, &Text{Data: "y"}

	tests := []struct {
		name  string
		index int
		nodes []Node
		want  string
	}{
		{"replace middle with two", 1, []Node{x, y}, "axyc"},
		{"remove first", 0, nil, "bc"},
		{"replace last", 2, []Node{x}, "abx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpliceNodes([]Node{a, b, c}, tt.index, tt.nodes...)
			var s string
			for _, n := range got {
				s += n.(*Text).Data
			}
			if s != tt.want {
				t.Errorf("SpliceNodes() = %q, want %q", s, tt.want)
			}
		})
	}
}

func TestSplitName(t *testing.T) {
	prefix, local := SplitName("xacro:macro")
	if prefix != "xacro" || local != "macro" {
		t.Errorf("SplitName() = (%q, %q), want (%q, %q)", prefix, local, "xacro", "macro")
	}
	prefix, local = SplitName("link")
	if prefix != "" || local != "link" {
		t.Errorf("SplitName() = (%q, %q), want (%q, %q)", prefix, local, "", "link")
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{}, "<unknown>"},
		{Location{File: "a.xacro"}, "a.xacro"},
		{Location{File: "a.xacro", Line: 3, Column: 7}, "a.xacro:3:7"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("Location.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDialect(t *testing.T) {
	root := NewElement("robot", Attr{Name: "xmlns:x", Value: "http://ros.org/wiki/xacro"})
	inner := NewElement("group", Attr{Name: "xmlns:xa", Value: "http://www.ros.org/wiki/xacro"})
	root.AppendChild(inner)
	d := NewDialect(&Document{Root: root})

	tests := []struct {
		name  string
		local string
		want  bool
	}{
		{"xacro:macro", "macro", true},
		{"x:macro", "macro", true},
		{"xa:if", "if", true},
		{"other:macro", "macro", false},
		{"macro", "macro", false},
		{"xacro:macro", "if", false},
	}
	for _, tt := range tests {
		if got := d.Is(NewElement(tt.name), tt.local); got != tt.want {
			t.Errorf("Is(%q, %q) = %v, want %v", tt.name, tt.local, got, tt.want)
		}
	}
}
