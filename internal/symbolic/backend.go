package symbolic

import "fmt"

// Comparison is the result of symbolically comparing two expressions.
type Comparison int

const (
	// Ambiguous means the engine could not decide either way, typically
	// because the difference still contains free symbols.
	Ambiguous Comparison = iota
	// Equal means the two expressions are provably identical.
	Equal
	// Unequal means the two expressions provably differ.
	Unequal
)

func (c Comparison) String() string {
	switch c {
	case Equal:
		return "equal"
	case Unequal:
		return "unequal"
	default:
		return "ambiguous"
	}
}

// Function is a native implementation for a named function appearing in
// expressions. It is invoked only once every argument has folded to a number.
type Function func(args []float64) (float64, error)

// Backend is the capability interface the compiler is written against. T is
// the backend's native expression type; the compiler never inspects it,
// every manipulation goes through this interface.
//
// Implementations must treat expressions as immutable values: no method may
// modify its argument in place.
type Backend[T any] interface {
	// AsExpression converts a string, a numeric Go value, or a native T into
	// a canonical expression. Strings are parsed with the expression grammar
	// (identifiers may carry the '#' port sigil, '~' wildcard and dotted
	// child references).
	AsExpression(v any) (T, error)

	// FreeSymbols returns the sorted set of symbol names the expression
	// still depends on.
	FreeSymbols(e T) []string

	// Substitute replaces every occurrence of the named symbol and returns
	// the simplified result.
	Substitute(e T, symbol string, value T) (T, error)

	// SubstituteAll applies a whole substitution map at once. Symbols absent
	// from the expression are ignored.
	SubstituteAll(e T, subs map[string]T) (T, error)

	// Simplify re-canonicalizes an expression, folding constants and any
	// function calls whose implementations are known.
	Simplify(e T) T

	// Value returns the numeric value of a fully-constant expression, or
	// false when the expression still contains free symbols or unresolved
	// calls.
	Value(e T) (float64, bool)

	// IsConstantInt reports whether the expression is a constant integer.
	IsConstantInt(e T) bool

	// SymbolName returns the name of the expression if it is a bare symbol.
	SymbolName(e T) (string, bool)

	// Serialize renders the expression in a form AsExpression can re-parse.
	Serialize(e T) string

	// DefineFunction registers a native implementation for a named function.
	// Redefining a reserved builtin is an error.
	DefineFunction(name string, fn Function) error

	// Compare decides whether two expressions are equal, unequal, or
	// undecidable given their remaining free symbols.
	Compare(lhs, rhs T) Comparison
}

// The helpers below build compound expressions through the backend's own
// parser, so generic code can do arithmetic without touching T's internals.
// Serialized operands are parenthesized to keep precedence intact.

// Add returns lhs + rhs.
func Add[T any](b Backend[T], lhs, rhs T) (T, error) {
	return b.AsExpression(fmt.Sprintf("(%s) + (%s)", b.Serialize(lhs), b.Serialize(rhs)))
}

// Sub returns lhs - rhs.
func Sub[T any](b Backend[T], lhs, rhs T) (T, error) {
	return b.AsExpression(fmt.Sprintf("(%s) - (%s)", b.Serialize(lhs), b.Serialize(rhs)))
}

// Mul returns lhs * rhs.
func Mul[T any](b Backend[T], lhs, rhs T) (T, error) {
	return b.AsExpression(fmt.Sprintf("(%s) * (%s)", b.Serialize(lhs), b.Serialize(rhs)))
}

// Div returns lhs / rhs.
func Div[T any](b Backend[T], lhs, rhs T) (T, error) {
	return b.AsExpression(fmt.Sprintf("(%s) / (%s)", b.Serialize(lhs), b.Serialize(rhs)))
}

// Pow returns base ^ exp.
func Pow[T any](b Backend[T], base, exp T) (T, error) {
	return b.AsExpression(fmt.Sprintf("(%s) ^ (%s)", b.Serialize(base), b.Serialize(exp)))
}

// Call returns name(args...) as an uninterpreted (or builtin) function call.
func Call[T any](b Backend[T], name string, args ...T) (T, error) {
	s := name + "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += b.Serialize(a)
	}
	return b.AsExpression(s + ")")
}

// Zero returns the constant 0.
func Zero[T any](b Backend[T]) T {
	e, err := b.AsExpression(0)
	if err != nil {
		panic(fmt.Sprintf("backend cannot represent zero: %v", err))
	}
	return e
}
