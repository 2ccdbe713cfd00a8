package serializer

import (
	"testing"

	"mercator-hq/xacro/pkg/xacro/dom"
	"mercator-hq/xacro/pkg/xacro/parser"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
		want  string
	}{
		{
			name:  "self-closing and attribute order",
			input: `<robot><link z="1" a="2"></link></robot>`,
			want:  "<robot><link z=\"1\" a=\"2\"/></robot>\n",
		},
		{
			name:  "escaping",
			input: `<a t="x &amp; &quot;y&quot; &lt;z&gt;">1 &lt; 2 &amp;&amp; 3 &gt; 2</a>`,
			want:  "<a t=\"x &amp; &quot;y&quot; &lt;z&gt;\">1 &lt; 2 &amp;&amp; 3 &gt; 2</a>\n",
		},
		{
			name:  "attribute whitespace",
			input: "<a t=\"a&#10;b&#9;c\"/>",
			want:  "<a t=\"a&#10;b&#9;c\"/>\n",
		},
		{
			name:  "prolog and epilog",
			input: "<?xml version=\"1.0\"?>\n<!-- head -->\n<?style x?>\n<r/>\n<!-- tail -->\n",
			want:  "<!-- head -->\n<?style x?>\n<r/>\n<!-- tail -->\n",
		},
		{
			name:  "declaration",
			input: `<r/>`,
			opts:  Options{XMLDeclaration: true},
			want:  Declaration + "\n<r/>\n",
		},
		{
			name:  "whitespace preserved without indent",
			input: "<r>\n  <a/>\n\n  <b/>\n</r>",
			want:  "<r>\n  <a/>\n\n  <b/>\n</r>\n",
		},
		{
			name:  "indent",
			input: "<r>\n  \n<a><b/></a><!--c--><d>text <e/></d>\n</r>",
			opts:  Options{Indent: "  "},
			want:  "<r>\n  <a>\n    <b/>\n  </a>\n  <!--c-->\n  <d>text <e/></d>\n</r>\n",
		},
		{
			name:  "namespaces kept",
			input: `<robot xmlns:xacro="http://www.ros.org/wiki/xacro"><xacro:x/></robot>`,
			want:  "<robot xmlns:xacro=\"http://www.ros.org/wiki/xacro\"><xacro:x/></robot>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.Parse([]byte(tt.input), "in.xml")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := Serialize(doc, tt.opts); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	inputs := []string{
		"<robot name=\"r\">\n  <link name=\"a\">\n    <visual>x &amp; y</visual>\n  </link>\n  <!-- c -->\n</robot>",
		"<a b=\"&quot;\"><![CDATA[<raw>]]></a>",
		"<!-- lead --><r><s/></r>",
	}

	for _, opts := range []Options{{}, {Indent: "  "}, {XMLDeclaration: true, Indent: "\t"}} {
		for _, input := range inputs {
			doc, err := parser.Parse([]byte(input), "in.xml")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			first := Serialize(doc, opts)

			again, err := parser.Parse([]byte(first), "out.xml")
			if err != nil {
				t.Fatalf("Parse(serialized) error = %v\n%s", err, first)
			}
			if second := Serialize(again, opts); second != first {
				t.Errorf("round trip changed output:\nfirst:  %q\nsecond: %q", first, second)
			}
		}
	}
}

func TestNode(t *testing.T) {
	el := dom.NewElement("link", dom.Attr{Name: "name", Value: "arm"}, dom.Attr{Name: "length", Value: "1.0"})
	if got, want := Node(el), `<link name="arm" length="1.0"/>`; got != want {
		t.Errorf("Node() = %q, want %q", got, want)
	}

	nodes := []dom.Node{el, &dom.Text{Data: " "}, &dom.Comment{Data: "x"}}
	if got, want := Nodes(nodes), `<link name="arm" length="1.0"/> <!--x-->`; got != want {
		t.Errorf("Nodes() = %q, want %q", got, want)
	}
}
