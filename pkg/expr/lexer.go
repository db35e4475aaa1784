package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenString
	tokenIdent
	tokenTrue
	tokenFalse
	tokenAnd
	tokenOr
	tokenNot
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenEq
	tokenNeq
	tokenLt
	tokenLeq
	tokenGt
	tokenGeq
	tokenLParen
	tokenRParen
)

type token struct {
	typ tokenType
	lit string
	pos int
}

func (t token) String() string {
	if t.typ == tokenEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.lit)
}

// keywords accepted as operators. Both Python-style words and the
// symbolic forms are recognized so rule authors can write either.
var keywords = map[string]tokenType{
	"true":  tokenTrue,
	"True":  tokenTrue,
	"false": tokenFalse,
	"False": tokenFalse,
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
}

type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return token{typ: tokenEOF, pos: start}, nil
	}

	ch := l.src[l.pos]
	switch {
	case unicode.IsDigit(ch) || (ch == '.' && l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1])):
		return l.lexNumber(start)
	case ch == '"' || ch == '\'':
		return l.lexString(start, ch)
	case unicode.IsLetter(ch) || ch == '_':
		for l.pos < len(l.src) && (unicode.IsLetter(l.src[l.pos]) || unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
		lit := string(l.src[start:l.pos])
		if typ, ok := keywords[lit]; ok {
			return token{typ: typ, lit: lit, pos: start}, nil
		}
		return token{typ: tokenIdent, lit: lit, pos: start}, nil
	}

	two := func(second rune, yes, no tokenType) (token, error) {
		l.pos++
		if l.peek() == second {
			l.pos++
			return token{typ: yes, lit: string(l.src[start:l.pos]), pos: start}, nil
		}
		if no == tokenEOF {
			return token{}, fmt.Errorf("unexpected character %q at position %d", string(ch), start)
		}
		return token{typ: no, lit: string(l.src[start:l.pos]), pos: start}, nil
	}

	switch ch {
	case '+':
		l.pos++
		return token{typ: tokenPlus, lit: "+", pos: start}, nil
	case '-':
		l.pos++
		return token{typ: tokenMinus, lit: "-", pos: start}, nil
	case '*':
		l.pos++
		return token{typ: tokenStar, lit: "*", pos: start}, nil
	case '/':
		l.pos++
		return token{typ: tokenSlash, lit: "/", pos: start}, nil
	case '%':
		l.pos++
		return token{typ: tokenPercent, lit: "%", pos: start}, nil
	case '(':
		l.pos++
		return token{typ: tokenLParen, lit: "(", pos: start}, nil
	case ')':
		l.pos++
		return token{typ: tokenRParen, lit: ")", pos: start}, nil
	case '=':
		return two('=', tokenEq, tokenEOF)
	case '!':
		return two('=', tokenNeq, tokenNot)
	case '<':
		return two('=', tokenLeq, tokenLt)
	case '>':
		return two('=', tokenGeq, tokenGt)
	case '&':
		return two('&', tokenAnd, tokenEOF)
	case '|':
		return two('|', tokenOr, tokenEOF)
	}

	return token{}, fmt.Errorf("unexpected character %q at position %d", string(ch), start)
}

func (l *lexer) lexNumber(start int) (token, error) {
	seenDot := false
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '.' {
			if seenDot {
				return token{}, fmt.Errorf("malformed number at position %d", start)
			}
			seenDot = true
			l.pos++
			continue
		}
		if !unicode.IsDigit(ch) {
			break
		}
		l.pos++
	}
	return token{typ: tokenNumber, lit: string(l.src[start:l.pos]), pos: start}, nil
}

func (l *lexer) lexString(start int, quote rune) (token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			sb.WriteRune(l.src[l.pos])
			l.pos++
			continue
		}
		if ch == quote {
			l.pos++
			return token{typ: tokenString, lit: sb.String(), pos: start}, nil
		}
		sb.WriteRune(ch)
		l.pos++
	}
	return token{}, fmt.Errorf("unterminated string at position %d", start)
}
