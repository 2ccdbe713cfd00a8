package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

// DefaultMaxFileSize is the default document size limit.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Parser parses xacro documents.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes (default: 10MB)
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: DefaultMaxFileSize,
	}
}

// WithMaxFileSize sets the maximum document size. Zero or negative disables
// the limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// Parse parses a document held in memory. path is used for locations only.
func Parse(data []byte, path string) (*dom.Document, error) {
	return NewParser().Parse(data, path)
}

// ParseFile reads path through r and parses it.
func (p *Parser) ParseFile(ctx context.Context, r source.Reader, path string) (*dom.Document, error) {
	data, err := r.ReadFile(ctx, path)
	if err != nil {
		return nil, xacroErrors.Wrap(xacroErrors.KindIO, dom.Location{File: path}, err,
			"failed to read document: %v", err)
	}
	return p.Parse(data, path)
}

// Parse parses data into a document.
func (p *Parser) Parse(data []byte, path string) (*dom.Document, error) {
	if p.maxFileSize > 0 && int64(len(data)) > p.maxFileSize {
		return nil, xacroErrors.New(xacroErrors.KindIO, dom.Location{File: path},
			"document size %d exceeds maximum %d bytes", len(data), p.maxFileSize)
	}

	b := &builder{
		path: path,
		dec:  xml.NewDecoder(bytes.NewReader(data)),
		doc:  &dom.Document{Path: path},
	}
	b.dec.Strict = true
	b.dec.CharsetReader = charsetReader

	if err := b.run(); err != nil {
		var xe *xacroErrors.Error
		if errors.As(err, &xe) && xe.Kind == xacroErrors.KindSyntax {
			xacroErrors.AddContext(xe, data)
		}
		return nil, err
	}
	return b.doc, nil
}

// builder turns the raw token stream into a tree. RawToken keeps prefixes
// and attribute order but does not match tags, so the open element stack is
// tracked here.
type builder struct {
	path  string
	dec   *xml.Decoder
	doc   *dom.Document
	stack []*dom.Element
}

func (b *builder) run() error {
	for {
		line, col := b.dec.InputPos()
		loc := dom.Location{File: b.path, Line: line, Column: col}

		tok, err := b.dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return b.decodeError(err, loc)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := b.start(t, loc); err != nil {
				return err
			}
		case xml.EndElement:
			if err := b.end(t, loc); err != nil {
				return err
			}
		case xml.CharData:
			if err := b.text(string(t), loc); err != nil {
				return err
			}
		case xml.Comment:
			b.add(&dom.Comment{Data: string(t), Location: loc})
		case xml.ProcInst:
			if len(b.stack) == 0 && b.doc.Root == nil && t.Target == "xml" {
				// The declaration is regenerated by the serializer.
				continue
			}
			b.add(&dom.ProcInst{Target: t.Target, Inst: string(t.Inst), Location: loc})
		case xml.Directive:
			// DOCTYPE and friends carry nothing the expander needs.
		}
	}

	if len(b.stack) > 0 {
		open := b.stack[len(b.stack)-1]
		return xacroErrors.New(xacroErrors.KindSyntax, open.Location,
			"element <%s> is never closed", open.Name)
	}
	if b.doc.Root == nil {
		return xacroErrors.New(xacroErrors.KindSyntax, dom.Location{File: b.path, Line: 1, Column: 1},
			"document has no root element")
	}
	return nil
}

func (b *builder) start(t xml.StartElement, loc dom.Location) error {
	if len(b.stack) == 0 && b.doc.Root != nil {
		return xacroErrors.New(xacroErrors.KindSyntax, loc,
			"unexpected element <%s> after root element <%s>", qualified(t.Name), b.doc.Root.Name)
	}

	el := &dom.Element{Name: qualified(t.Name), Location: loc}
	if len(t.Attr) > 0 {
		el.Attrs = make([]dom.Attr, 0, len(t.Attr))
		seen := make(map[string]bool, len(t.Attr))
		for _, a := range t.Attr {
			name := qualified(a.Name)
			if seen[name] {
				return xacroErrors.New(xacroErrors.KindSyntax, loc,
					"attribute %q redefined on <%s>", name, el.Name)
			}
			seen[name] = true
			el.Attrs = append(el.Attrs, dom.Attr{Name: name, Value: a.Value})
		}
	}

	if len(b.stack) == 0 {
		b.doc.Root = el
	} else {
		b.stack[len(b.stack)-1].AppendChild(el)
	}
	b.stack = append(b.stack, el)
	return nil
}

func (b *builder) end(t xml.EndElement, loc dom.Location) error {
	name := qualified(t.Name)
	if len(b.stack) == 0 {
		return xacroErrors.New(xacroErrors.KindSyntax, loc, "unexpected closing tag </%s>", name)
	}
	open := b.stack[len(b.stack)-1]
	if open.Name != name {
		return xacroErrors.New(xacroErrors.KindSyntax, loc,
			"element <%s> closed by </%s>", open.Name, name)
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

func (b *builder) text(data string, loc dom.Location) error {
	if len(b.stack) == 0 {
		if trimmed := strings.TrimLeft(data, " \t\r\n"); trimmed != "" {
			return xacroErrors.New(xacroErrors.KindSyntax, advance(loc, data[:len(data)-len(trimmed)]),
				"text outside the root element")
		}
		return nil
	}

	parent := b.stack[len(b.stack)-1]
	// CDATA sections arrive as separate tokens.
	if n := len(parent.Children); n > 0 {
		if prev, ok := parent.Children[n-1].(*dom.Text); ok {
			prev.Data += data
			return nil
		}
	}
	parent.AppendChild(&dom.Text{Data: data, Location: loc})
	return nil
}

// add attaches a comment or processing instruction to the current element,
// or to the prolog/epilog when outside the root.
func (b *builder) add(n dom.Node) {
	switch {
	case len(b.stack) > 0:
		b.stack[len(b.stack)-1].AppendChild(n)
	case b.doc.Root == nil:
		b.doc.Prolog = append(b.doc.Prolog, n)
	default:
		b.doc.Epilog = append(b.doc.Epilog, n)
	}
}

func (b *builder) decodeError(err error, loc dom.Location) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		if se.Line > 0 && se.Line != loc.Line {
			loc.Line = se.Line
			loc.Column = 0
		}
		return xacroErrors.Wrap(xacroErrors.KindSyntax, loc, err, "%s", se.Msg)
	}
	return xacroErrors.Wrap(xacroErrors.KindSyntax, loc, err, "%v", err)
}

// advance moves loc past the characters of s.
func advance(loc dom.Location, s string) dom.Location {
	for _, r := range s {
		if r == '\n' {
			loc.Line++
			loc.Column = 1
		} else {
			loc.Column++
		}
	}
	return loc
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// charsetReader accepts ASCII declarations, which are a subset of UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "ascii", "iso646-us":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", charset)
}
