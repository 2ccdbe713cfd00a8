package eval

import (
	"strings"

	"mercator-hq/xacro/pkg/xacro/dom"
	xacroErrors "mercator-hq/xacro/pkg/xacro/errors"
)

type segmentKind int

const (
	segText segmentKind = iota
	segExpr
	segExtension
)

// segment is one piece of an interpolated string. For segExpr and
// segExtension, data holds the text between the delimiters.
type segment struct {
	kind segmentKind
	data string
}

// scanText splits text into literal, ${expr} and $(extension) segments.
// A run of two or more '$' before '{' or '(' loses one '$' and is literal.
func scanText(text string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{kind: segText, data: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		c := text[i]
		if c != '$' {
			next := strings.IndexByte(text[i:], '$')
			if next < 0 {
				lit.WriteString(text[i:])
				break
			}
			lit.WriteString(text[i : i+next])
			i += next
			continue
		}

		// Count the run of '$'.
		j := i
		for j < len(text) && text[j] == '$' {
			j++
		}
		run := j - i
		if j >= len(text) || (text[j] != '{' && text[j] != '(') {
			lit.WriteString(text[i:j])
			i = j
			continue
		}
		if run > 1 {
			lit.WriteString(text[i+1 : j+1])
			i = j + 1
			continue
		}

		open := text[j]
		end, err := matchClose(text, j)
		if err != nil {
			return nil, err
		}
		flush()
		kind := segExpr
		if open == '(' {
			kind = segExtension
		}
		segs = append(segs, segment{kind: kind, data: text[j+1 : end]})
		i = end + 1
	}
	flush()
	return segs, nil
}

// matchClose returns the index of the delimiter closing text[open], skipping
// nested pairs and quoted strings.
func matchClose(text string, open int) (int, error) {
	opener := text[open]
	closer := byte('}')
	if opener == '(' {
		closer = ')'
	}

	depth := 0
	var quote byte
	for k := open; k < len(text); k++ {
		c := text[k]
		if quote != 0 {
			if c == '\\' {
				k++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			if opener == '{' {
				quote = c
			}
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return k, nil
			}
		}
	}
	return 0, xacroErrors.New(xacroErrors.KindEvaluation, dom.Location{},
		"unterminated $%c in %q", opener, text)
}
