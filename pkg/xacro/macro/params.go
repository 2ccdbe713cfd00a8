package macro

import (
	"fmt"
	"strings"
)

// BlockKind tells whether and how a parameter takes a block argument.
type BlockKind int

const (
	// NotBlock is an ordinary attribute parameter.
	NotBlock BlockKind = iota
	// BlockElement (*name) binds the next element child of the call site.
	BlockElement
	// BlockContents (**name) binds that element's children.
	BlockContents
)

// Param is one declared macro parameter.
type Param struct {
	Name          string
	Default       string // raw default text, evaluated at the call site
	HasDefault    bool
	InheritParent bool // ":=^" form
	Block         BlockKind
}

// IsBlock reports whether p takes a block argument.
func (p Param) IsBlock() bool {
	return p.Block != NotBlock
}

// String renders the parameter in declaration syntax.
func (p Param) String() string {
	switch p.Block {
	case BlockElement:
		return "*" + p.Name
	case BlockContents:
		return "**" + p.Name
	}
	switch {
	case p.InheritParent && p.HasDefault:
		return p.Name + ":=^|" + p.Default
	case p.InheritParent:
		return p.Name + ":=^"
	case p.HasDefault:
		return p.Name + ":=" + p.Default
	}
	return p.Name
}

// ParseParams parses a params attribute.
func ParseParams(spec string) ([]Param, error) {
	fields, err := splitParams(spec)
	if err != nil {
		return nil, err
	}

	params := make([]Param, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		p, err := parseParam(field)
		if err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("parameter %q declared twice", p.Name)
		}
		seen[p.Name] = true
		params = append(params, p)
	}
	return params, nil
}

func parseParam(field string) (Param, error) {
	var p Param
	switch {
	case strings.HasPrefix(field, "**"):
		p.Block = BlockContents
		field = field[2:]
	case strings.HasPrefix(field, "*"):
		p.Block = BlockElement
		field = field[1:]
	}

	name, def, hasDef := cutDefault(field)
	if name == "" {
		return Param{}, fmt.Errorf("empty parameter name in %q", field)
	}
	if !validName(name) {
		return Param{}, fmt.Errorf("invalid parameter name %q", name)
	}
	p.Name = name

	if !hasDef {
		return p, nil
	}
	if p.IsBlock() {
		return Param{}, fmt.Errorf("block parameter %q cannot have a default", name)
	}

	if strings.HasPrefix(def, "^") {
		p.InheritParent = true
		def = def[1:]
		if !strings.HasPrefix(def, "|") {
			if def != "" {
				return Param{}, fmt.Errorf("invalid inherited default %q for parameter %q", "^"+def, name)
			}
			return p, nil
		}
		def = def[1:]
	}
	p.Default = unquote(def)
	p.HasDefault = true
	return p, nil
}

// cutDefault splits "name:=value" (or the older "name=value").
func cutDefault(field string) (string, string, bool) {
	if name, def, ok := strings.Cut(field, ":="); ok {
		return name, def, true
	}
	if name, def, ok := strings.Cut(field, "="); ok {
		return name, def, true
	}
	return field, "", false
}

// splitParams splits on whitespace outside single or double quotes.
func splitParams(spec string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
		quote  rune
	)
	for _, r := range spec {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in params %q", spec)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func validName(name string) bool {
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && ((r >= '0' && r <= '9') || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
