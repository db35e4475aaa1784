package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a parsed expression tree.
type Node interface {
	// Eval evaluates the node against the parameter environment.
	Eval(params Params) (Value, error)
	walk(fn func(Node))
}

type numberLit struct{ val Value }

type stringLit struct{ s string }

type boolLit struct{ b bool }

type ident struct{ name string }

type unary struct {
	op tokenType
	x  Node
}

type binary struct {
	op   tokenType
	x, y Node
}

func (n *numberLit) walk(fn func(Node)) { fn(n) }
func (n *stringLit) walk(fn func(Node)) { fn(n) }
func (n *boolLit) walk(fn func(Node))   { fn(n) }
func (n *ident) walk(fn func(Node))     { fn(n) }
func (n *unary) walk(fn func(Node))     { fn(n); n.x.walk(fn) }
func (n *binary) walk(fn func(Node))    { fn(n); n.x.walk(fn); n.y.walk(fn) }

// Binding powers for the Pratt parser, loosest first.
const (
	precLowest  = 0
	precOr      = 1
	precAnd     = 2
	precCompare = 3
	precAdd     = 4
	precMul     = 5
	precUnary   = 6
)

func precedence(t tokenType) int {
	switch t {
	case tokenOr:
		return precOr
	case tokenAnd:
		return precAnd
	case tokenEq, tokenNeq, tokenLt, tokenLeq, tokenGt, tokenGeq:
		return precCompare
	case tokenPlus, tokenMinus:
		return precAdd
	case tokenStar, tokenSlash, tokenPercent:
		return precMul
	default:
		return precLowest
	}
}

type parser struct {
	lex *lexer
	tok token
}

// Parse parses src into an expression tree. The grammar is deliberately
// narrow: literals, parameter identifiers, arithmetic, comparisons and
// boolean connectives. No calls, no attribute access, no loops.
func Parse(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if p.tok.typ != tokenEOF {
		return nil, fmt.Errorf("unexpected token %s at position %d", p.tok, p.tok.pos)
	}
	return node, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) parseExpr(minPrec int) (Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		prec := precedence(p.tok.typ)
		if prec <= minPrec {
			return left, nil
		}
		op := p.tok.typ
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExpr(prec)
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, x: left, y: right}
	}
}

func (p *parser) parsePrefix() (Node, error) {
	tok := p.tok
	switch tok.typ {
	case tokenNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if strings.Contains(tok.lit, ".") {
			f, err := strconv.ParseFloat(tok.lit, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q", tok.lit)
			}
			return &numberLit{val: Float(f)}, nil
		}
		i, err := strconv.ParseInt(tok.lit, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed number %q", tok.lit)
		}
		return &numberLit{val: Int(i)}, nil

	case tokenString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &stringLit{s: tok.lit}, nil

	case tokenTrue, tokenFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &boolLit{b: tok.typ == tokenTrue}, nil

	case tokenIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ident{name: tok.lit}, nil

	case tokenMinus, tokenNot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return &unary{op: tok.typ, x: x}, nil

	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if p.tok.typ != tokenRParen {
			return nil, fmt.Errorf("expected closing parenthesis, got %s", p.tok)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, fmt.Errorf("unexpected token %s at position %d", tok, tok.pos)
}

// ReferencedVariables returns the variable names a condition refers to,
// extracted from the parsed tree: string literals that are compared against
// the variable_name parameter. This replaces substring matching on the
// condition source, which over-matches on partial names.
func ReferencedVariables(condition string) ([]string, error) {
	node, err := Parse(condition)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var names []string
	node.walk(func(n Node) {
		b, ok := n.(*binary)
		if !ok {
			return
		}
		switch b.op {
		case tokenEq, tokenNeq:
		default:
			return
		}
		for _, pair := range [][2]Node{{b.x, b.y}, {b.y, b.x}} {
			id, ok := pair[0].(*ident)
			if !ok || id.name != ParamVariableName {
				continue
			}
			lit, ok := pair[1].(*stringLit)
			if !ok || seen[lit.s] {
				continue
			}
			seen[lit.s] = true
			names = append(names, lit.s)
		}
	})
	return names, nil
}
