package symexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseError reports a malformed expression string.
type ParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

type tokenKind uint8

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	input  string
	tokens []token
	pos    int
}

// parse turns an expression string into an (unnormalized) Expr tree.
//
// Grammar, loosest to tightest binding:
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := unary ('^' factor)?
//	unary  := '-' unary | atom
//	atom   := number | ident ('(' expr (',' expr)* ')')? | '(' expr ')'
//
// Identifiers may start with a letter, '_', '#' (port sigil) or '~'
// (wildcard) and may contain dots, so "child.N_x" and "#in_0" are single
// symbols.
func parse(input string) (Expr, error) {
	toks, err := tokenize(input)
	if err != nil {
		return Expr{}, err
	}
	p := &parser{input: input, tokens: toks}
	e, err := p.parseExpr()
	if err != nil {
		return Expr{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Expr{}, p.errorf(t.pos, "unexpected %q", t.text)
	}
	return e, nil
}

func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case strings.ContainsRune("+-*/^(),", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case unicode.IsDigit(c) || c == '.':
			start := i
			seenExp := false
			for i < len(input) {
				ch := input[i]
				if ch >= '0' && ch <= '9' || ch == '.' {
					i++
					continue
				}
				if (ch == 'e' || ch == 'E') && !seenExp && i+1 < len(input) {
					next := input[i+1]
					if next >= '0' && next <= '9' || next == '+' || next == '-' {
						seenExp = true
						i += 2
						continue
					}
				}
				break
			}
			toks = append(toks, token{kind: tokNumber, text: input[start:i], pos: start})
		case unicode.IsLetter(c) || c == '_' || c == '#' || c == '~':
			start := i
			i++
			for i < len(input) {
				ch := rune(input[i])
				if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.' {
					i++
					continue
				}
				break
			}
			toks = append(toks, token{kind: tokIdent, text: input[start:i], pos: start})
		default:
			return nil, &ParseError{Input: input, Offset: i, Reason: fmt.Sprintf("invalid character %q", c)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) acceptOp(op string) bool {
	if t := p.peek(); t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &ParseError{Input: p.input, Offset: pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) parseExpr() (Expr, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return Expr{}, err
	}
	terms := []Expr{lhs}
	for {
		switch {
		case p.acceptOp("+"):
			t, err := p.parseTerm()
			if err != nil {
				return Expr{}, err
			}
			terms = append(terms, t)
		case p.acceptOp("-"):
			t, err := p.parseTerm()
			if err != nil {
				return Expr{}, err
			}
			terms = append(terms, mul(Num(-1), t))
		default:
			if len(terms) == 1 {
				return terms[0], nil
			}
			return add(terms...), nil
		}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	lhs, err := p.parseFactor()
	if err != nil {
		return Expr{}, err
	}
	factors := []Expr{lhs}
	for {
		switch {
		case p.acceptOp("*"):
			f, err := p.parseFactor()
			if err != nil {
				return Expr{}, err
			}
			factors = append(factors, f)
		case p.acceptOp("/"):
			f, err := p.parseFactor()
			if err != nil {
				return Expr{}, err
			}
			factors = append(factors, pow(f, Num(-1)))
		default:
			if len(factors) == 1 {
				return factors[0], nil
			}
			return mul(factors...), nil
		}
	}
}

func (p *parser) parseFactor() (Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return Expr{}, err
	}
	if p.acceptOp("^") {
		// Right-associative.
		exp, err := p.parseFactor()
		if err != nil {
			return Expr{}, err
		}
		return pow(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.acceptOp("-") {
		e, err := p.parseUnary()
		if err != nil {
			return Expr{}, err
		}
		return mul(Num(-1), e), nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Expr{}, p.errorf(t.pos, "invalid number %q", t.text)
		}
		return Num(v), nil
	case tokIdent:
		if !p.acceptOp("(") {
			return Sym(t.text), nil
		}
		var args []Expr
		if !p.acceptOp(")") {
			for {
				a, err := p.parseExpr()
				if err != nil {
					return Expr{}, err
				}
				args = append(args, a)
				if p.acceptOp(",") {
					continue
				}
				if p.acceptOp(")") {
					break
				}
				nt := p.peek()
				return Expr{}, p.errorf(nt.pos, "expected ',' or ')' in call to %s", t.text)
			}
		}
		return call(t.text, args...), nil
	case tokOp:
		if t.text == "(" {
			e, err := p.parseExpr()
			if err != nil {
				return Expr{}, err
			}
			if !p.acceptOp(")") {
				return Expr{}, p.errorf(p.peek().pos, "missing closing parenthesis")
			}
			return e, nil
		}
		return Expr{}, p.errorf(t.pos, "unexpected operator %q", t.text)
	default:
		return Expr{}, p.errorf(t.pos, "unexpected end of expression")
	}
}
