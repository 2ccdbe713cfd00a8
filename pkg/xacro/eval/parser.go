package eval

import (
	"fmt"
	"strconv"
)

type nodeKind int

const (
	nodeLiteral nodeKind = iota
	nodeIdent
	nodeUnary
	nodeBinary
	nodeCond
	nodeCall
	nodeChain
)

// exprNode is a node of a parsed expression.
type exprNode struct {
	kind  nodeKind
	op    string
	name  string
	value Value
	args  []*exprNode // operands, condition parts or call arguments
	ops   []string    // comparison operators of a chain, len(args)-1
}

// Binding powers, higher binds tighter.
const (
	precCond  = 5
	precOr    = 10
	precAnd   = 20
	precNot   = 30
	precCmp   = 40
	precAdd   = 50
	precMul   = 60
	precUnary = 65
	precPow   = 70
)

var binaryPrecedence = map[string]int{
	"or": precOr, "||": precOr,
	"and": precAnd, "&&": precAnd,
	"==": precCmp, "!=": precCmp, "<": precCmp, "<=": precCmp, ">": precCmp, ">=": precCmp,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul, "//": precMul, "%": precMul,
	"**": precPow,
}

type exprParser struct {
	tokens []token
	pos    int
}

// parseExpr parses a complete expression.
func parseExpr(expr string) (*exprNode, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &exprParser{tokens: tokens}
	node, err := p.parse(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, fmt.Errorf("unexpected %q at offset %d", t.val, t.pos)
	}
	return node, nil
}

func (p *exprParser) peek() token {
	return p.tokens[p.pos]
}

func (p *exprParser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

// parse parses an expression whose operators bind at least as tightly as
// precedence.
func (p *exprParser) parse(precedence int) (*exprNode, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.typ != tokOperator {
			return left, nil
		}

		if t.val == "if" {
			if precCond < precedence {
				return left, nil
			}
			p.next()
			cond, err := p.parse(precOr)
			if err != nil {
				return nil, err
			}
			if e := p.next(); e.typ != tokOperator || e.val != "else" {
				return nil, fmt.Errorf("expected 'else' at offset %d", e.pos)
			}
			otherwise, err := p.parse(precCond)
			if err != nil {
				return nil, err
			}
			left = &exprNode{kind: nodeCond, args: []*exprNode{left, cond, otherwise}}
			continue
		}

		prec, ok := binaryPrecedence[t.val]
		if !ok || prec < precedence {
			return left, nil
		}
		p.next()

		// ** is right associative, the rest associate left.
		rightPrec := prec + 1
		if t.val == "**" {
			rightPrec = prec
		}
		right, err := p.parse(rightPrec)
		if err != nil {
			return nil, err
		}
		if prec == precCmp {
			left, err = p.chain(left, t.val, right)
			if err != nil {
				return nil, err
			}
			continue
		}
		left = &exprNode{kind: nodeBinary, op: t.val, args: []*exprNode{left, right}}
	}
}

// chain collects a run of comparisons. a < b <= c means a < b and b <= c
// with b evaluated once.
func (p *exprParser) chain(left *exprNode, op string, right *exprNode) (*exprNode, error) {
	node := &exprNode{kind: nodeChain, args: []*exprNode{left, right}, ops: []string{op}}
	for {
		t := p.peek()
		if t.typ != tokOperator || binaryPrecedence[t.val] != precCmp {
			break
		}
		p.next()
		operand, err := p.parse(precCmp + 1)
		if err != nil {
			return nil, err
		}
		node.args = append(node.args, operand)
		node.ops = append(node.ops, t.val)
	}
	if len(node.ops) == 1 {
		return &exprNode{kind: nodeBinary, op: op, args: node.args}, nil
	}
	return node, nil
}

func (p *exprParser) prefix() (*exprNode, error) {
	t := p.next()
	switch t.typ {
	case tokNumber:
		return parseNumber(t)
	case tokString:
		return &exprNode{kind: nodeLiteral, value: String(t.val)}, nil
	case tokIdent:
		switch t.val {
		case "True", "true":
			return &exprNode{kind: nodeLiteral, value: Bool(true)}, nil
		case "False", "false":
			return &exprNode{kind: nodeLiteral, value: Bool(false)}, nil
		}
		if p.peek().typ == tokLParen {
			p.next()
			return p.call(t.val)
		}
		return &exprNode{kind: nodeIdent, name: t.val}, nil
	case tokLParen:
		inner, err := p.parse(0)
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.typ != tokRParen {
			return nil, fmt.Errorf("expected ')' at offset %d", c.pos)
		}
		return inner, nil
	case tokOperator:
		switch t.val {
		case "-", "+":
			operand, err := p.parse(precUnary)
			if err != nil {
				return nil, err
			}
			return &exprNode{kind: nodeUnary, op: t.val, args: []*exprNode{operand}}, nil
		case "not", "!":
			operand, err := p.parse(precNot)
			if err != nil {
				return nil, err
			}
			return &exprNode{kind: nodeUnary, op: "not", args: []*exprNode{operand}}, nil
		}
		return nil, fmt.Errorf("unexpected operator %q at offset %d", t.val, t.pos)
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", t.val, t.pos)
	}
}

func (p *exprParser) call(name string) (*exprNode, error) {
	node := &exprNode{kind: nodeCall, name: name}
	if p.peek().typ == tokRParen {
		p.next()
		return node, nil
	}
	for {
		arg, err := p.parse(0)
		if err != nil {
			return nil, err
		}
		node.args = append(node.args, arg)

		t := p.next()
		switch t.typ {
		case tokComma:
			continue
		case tokRParen:
			return node, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' in call to %s at offset %d", name, t.pos)
		}
	}
}

func parseNumber(t token) (*exprNode, error) {
	if i, err := strconv.ParseInt(t.val, 10, 64); err == nil {
		return &exprNode{kind: nodeLiteral, value: Int(i)}, nil
	}
	f, err := strconv.ParseFloat(t.val, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", t.val)
	}
	return &exprNode{kind: nodeLiteral, value: Float(f)}, nil
}
