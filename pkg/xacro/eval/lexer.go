package eval

import (
	"fmt"
	"strings"
)

type tokenType int

const (
	tokNumber tokenType = iota
	tokString
	tokIdent
	tokOperator
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	typ tokenType
	val string
	pos int
}

// keywords that act as operators.
var keywordOps = map[string]bool{
	"and": true, "or": true, "not": true, "if": true, "else": true,
}

// symbolic operators, longest first.
var symbolOps = []string{
	"**", "//", "==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "!",
}

// tokenize splits an expression into tokens.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ",", i})
			i++
		case c == '\'' || c == '"':
			s, n, err := scanString(expr[i:])
			if err != nil {
				return nil, fmt.Errorf("%v at offset %d", err, i)
			}
			tokens = append(tokens, token{tokString, s, i})
			i += n
		case isDigit(c) || (c == '.' && i+1 < len(expr) && isDigit(expr[i+1])):
			n := scanNumber(expr[i:])
			tokens = append(tokens, token{tokNumber, expr[i : i+n], i})
			i += n
		case isAlpha(c):
			start := i
			for i < len(expr) && isAlphaNumeric(expr[i]) {
				i++
			}
			word := expr[start:i]
			if keywordOps[word] {
				tokens = append(tokens, token{tokOperator, word, start})
			} else {
				tokens = append(tokens, token{tokIdent, word, start})
			}
		default:
			matched := false
			for _, op := range symbolOps {
				if strings.HasPrefix(expr[i:], op) {
					tokens = append(tokens, token{tokOperator, op, i})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
			}
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(expr)})
	return tokens, nil
}

// scanString reads a quoted string and returns its unescaped content and the
// number of bytes consumed.
func scanString(s string) (string, int, error) {
	quote := s[0]
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(s[i])
			}
		case c == quote:
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

func scanNumber(s string) int {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
