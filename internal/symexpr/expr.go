// Package symexpr is the default symbolic expression engine backing the
// compiler. It keeps expressions in a canonical sum-of-products form so that
// structural equality doubles as semantic equality for the polynomial
// fragment, which is what constraint checking relies on.
package symexpr

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

type kind uint8

const (
	kindNum kind = iota
	kindSym
	kindAdd
	kindMul
	kindPow
	kindCall
)

// Expr is an immutable symbolic expression value. The zero value is the
// number 0.
type Expr struct {
	k    kind
	num  float64
	name string
	args []Expr
}

// Num returns a numeric constant.
func Num(v float64) Expr { return Expr{k: kindNum, num: v} }

// Sym returns a bare symbol. Names may carry the '#' port sigil, the '~'
// wildcard prefix and dotted child references.
func Sym(name string) Expr { return Expr{k: kindSym, name: name} }

func add(args ...Expr) Expr { return Expr{k: kindAdd, args: args} }
func mul(args ...Expr) Expr { return Expr{k: kindMul, args: args} }
func pow(b, e Expr) Expr { return Expr{k: kindPow, args: []Expr{b, e}} }
func call(name string, args ...Expr) Expr {
	return Expr{k: kindCall, name: name, args: args}
}

// IsNum reports whether the expression is a numeric constant, and its value.
func (e Expr) IsNum() (float64, bool) {
	if e.k == kindNum {
		return e.num, true
	}
	return 0, false
}

// IsSym reports whether the expression is a bare symbol, and its name.
func (e Expr) IsSym() (string, bool) {
	if e.k == kindSym {
		return e.name, true
	}
	return "", false
}

// FreeSymbols returns the sorted set of symbols the expression depends on.
func (e Expr) FreeSymbols() []string {
	set := map[string]struct{}{}
	e.collectSymbols(set)
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (e Expr) collectSymbols(set map[string]struct{}) {
	if e.k == kindSym {
		set[e.name] = struct{}{}
	}
	for _, a := range e.args {
		a.collectSymbols(set)
	}
}

// calledFunctions returns the set of function names appearing in the
// expression.
func (e Expr) calledFunctions(set map[string]struct{}) {
	if e.k == kindCall {
		set[e.name] = struct{}{}
	}
	for _, a := range e.args {
		a.calledFunctions(set)
	}
}

// String renders the expression in a form the parser accepts back.
func (e Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func formatNum(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (e Expr) write(sb *strings.Builder) {
	switch e.k {
	case kindNum:
		sb.WriteString(formatNum(e.num))
	case kindSym:
		sb.WriteString(e.name)
	case kindAdd:
		for i, t := range e.args {
			coeff, rest := splitCoeff(t)
			switch {
			case i == 0 && coeff < 0:
				sb.WriteString("-")
				negated := withCoeff(-coeff, rest)
				negated.writeOperand(sb, kindAdd)
			case i == 0:
				t.writeOperand(sb, kindAdd)
			case coeff < 0:
				sb.WriteString(" - ")
				negated := withCoeff(-coeff, rest)
				negated.writeOperand(sb, kindAdd)
			default:
				sb.WriteString(" + ")
				t.writeOperand(sb, kindAdd)
			}
		}
	case kindMul:
		for i, f := range e.args {
			if i > 0 {
				sb.WriteString("*")
			}
			f.writeOperand(sb, kindMul)
		}
	case kindPow:
		e.args[0].writeOperand(sb, kindPow)
		sb.WriteString("^")
		exp := e.args[1]
		if exp.k == kindAdd || exp.k == kindMul || exp.k == kindPow {
			sb.WriteString("(")
			exp.write(sb)
			sb.WriteString(")")
		} else {
			exp.write(sb)
		}
	case kindCall:
		sb.WriteString(e.name)
		sb.WriteString("(")
		for i, a := range e.args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.write(sb)
		}
		sb.WriteString(")")
	}
}

// writeOperand parenthesizes the expression when it binds looser than the
// enclosing operator.
func (e Expr) writeOperand(sb *strings.Builder, parent kind) {
	needsParens := false
	switch parent {
	case kindMul:
		needsParens = e.k == kindAdd
	case kindPow:
		needsParens = e.k == kindAdd || e.k == kindMul || e.k == kindPow
	}
	if !needsParens && e.k == kindNum && e.num < 0 && parent != kindAdd {
		needsParens = true
	}
	if needsParens {
		sb.WriteString("(")
		e.write(sb)
		sb.WriteString(")")
	} else {
		e.write(sb)
	}
}

// splitCoeff separates a normalized term into its numeric coefficient and
// the remaining coefficient-free part.
func splitCoeff(t Expr) (float64, Expr) {
	switch t.k {
	case kindNum:
		return t.num, Num(1)
	case kindMul:
		if len(t.args) > 0 && t.args[0].k == kindNum {
			if len(t.args) == 2 {
				return t.args[0].num, t.args[1]
			}
			return t.args[0].num, mul(t.args[1:]...)
		}
	}
	return 1, t
}

// withCoeff reattaches a numeric coefficient to a coefficient-free term.
func withCoeff(coeff float64, rest Expr) Expr {
	if coeff == 0 {
		return Num(0)
	}
	if n, ok := rest.IsNum(); ok {
		return Num(coeff * n)
	}
	if coeff == 1 {
		return rest
	}
	if rest.k == kindMul {
		args := make([]Expr, 0, len(rest.args)+1)
		args = append(args, Num(coeff))
		args = append(args, rest.args...)
		return mul(args...)
	}
	return mul(Num(coeff), rest)
}
