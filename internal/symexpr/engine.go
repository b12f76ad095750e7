package symexpr

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/vk/qresgo/internal/symbolic"
)

// builtinFunctions are always available and cannot be redefined.
var builtinFunctions = map[string]symbolic.Function{
	"max": func(args []float64) (float64, error) {
		if len(args) == 0 {
			return 0, errors.New("max requires at least one argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = math.Max(v, a)
		}
		return v, nil
	},
	"min": func(args []float64) (float64, error) {
		if len(args) == 0 {
			return 0, errors.New("min requires at least one argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = math.Min(v, a)
		}
		return v, nil
	},
	"ceiling": func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, errors.New("ceiling requires exactly one argument")
		}
		return math.Ceil(args[0]), nil
	},
	"floor": func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, errors.New("floor requires exactly one argument")
		}
		return math.Floor(args[0]), nil
	},
	"sqrt": func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, errors.New("sqrt requires exactly one argument")
		}
		return math.Sqrt(args[0]), nil
	},
	"abs": func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, errors.New("abs requires exactly one argument")
		}
		return math.Abs(args[0]), nil
	},
	"log": func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, errors.New("log requires exactly one argument")
		}
		return math.Log(args[0]), nil
	},
	"log2": func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, errors.New("log2 requires exactly one argument")
		}
		return math.Log2(args[0]), nil
	},
}

// Engine implements symbolic.Backend[Expr]. An Engine carries its own
// function table, so two engines can hold different user-defined functions
// without interfering.
type Engine struct {
	funcs map[string]symbolic.Function
}

// NewEngine returns an engine preloaded with the builtin functions.
func NewEngine() *Engine {
	funcs := make(map[string]symbolic.Function, len(builtinFunctions))
	for name, fn := range builtinFunctions {
		funcs[name] = fn
	}
	return &Engine{funcs: funcs}
}

// AsExpression converts a string, numeric value or Expr into a canonical
// expression.
func (en *Engine) AsExpression(v any) (Expr, error) {
	switch x := v.(type) {
	case Expr:
		return en.normalize(x), nil
	case string:
		e, err := parse(x)
		if err != nil {
			return Expr{}, err
		}
		return en.normalize(e), nil
	case float64:
		return Num(x), nil
	case float32:
		return Num(float64(x)), nil
	case int:
		return Num(float64(x)), nil
	case int64:
		return Num(float64(x)), nil
	case uint64:
		return Num(float64(x)), nil
	default:
		return Expr{}, fmt.Errorf("cannot interpret %T as an expression", v)
	}
}

// FreeSymbols returns the sorted free symbols of the expression.
func (en *Engine) FreeSymbols(e Expr) []string { return e.FreeSymbols() }

// Substitute replaces a single symbol and renormalizes.
func (en *Engine) Substitute(e Expr, symbol string, value Expr) (Expr, error) {
	return en.SubstituteAll(e, map[string]Expr{symbol: value})
}

// SubstituteAll replaces every symbol present in subs and renormalizes.
// Symbols the expression does not mention are ignored.
func (en *Engine) SubstituteAll(e Expr, subs map[string]Expr) (Expr, error) {
	return en.normalize(replaceSymbols(e, subs)), nil
}

func replaceSymbols(e Expr, subs map[string]Expr) Expr {
	switch e.k {
	case kindSym:
		if v, ok := subs[e.name]; ok {
			return v
		}
		return e
	case kindNum:
		return e
	default:
		args := make([]Expr, len(e.args))
		for i, a := range e.args {
			args[i] = replaceSymbols(a, subs)
		}
		out := e
		out.args = args
		return out
	}
}

// Simplify renormalizes, folding any calls whose implementations have been
// registered since the expression was built.
func (en *Engine) Simplify(e Expr) Expr { return en.normalize(e) }

// Value returns the numeric value of a constant expression.
func (en *Engine) Value(e Expr) (float64, bool) {
	return en.normalize(e).IsNum()
}

// IsConstantInt reports whether the expression is a constant integer.
func (en *Engine) IsConstantInt(e Expr) bool {
	v, ok := en.normalize(e).IsNum()
	return ok && v == math.Trunc(v)
}

// SymbolName returns the name of a bare-symbol expression.
func (en *Engine) SymbolName(e Expr) (string, bool) { return e.IsSym() }

// Serialize renders the expression; parse(Serialize(e)) reproduces e.
func (en *Engine) Serialize(e Expr) string { return e.String() }

// DefineFunction registers a native implementation for a named function.
// Builtins and already-registered names cannot be redefined.
func (en *Engine) DefineFunction(name string, fn symbolic.Function) error {
	if _, reserved := builtinFunctions[name]; reserved {
		return fmt.Errorf("cannot redefine builtin function %q", name)
	}
	if _, exists := en.funcs[name]; exists {
		return fmt.Errorf("function %q is already defined", name)
	}
	if fn == nil {
		return fmt.Errorf("nil implementation for function %q", name)
	}
	en.funcs[name] = fn
	return nil
}

// CalledFunctions returns the sorted names of all functions invoked anywhere
// in the expression.
func (en *Engine) CalledFunctions(e Expr) []string {
	set := map[string]struct{}{}
	e.calledFunctions(set)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Compare decides equality by normalizing the difference of the two sides.
func (en *Engine) Compare(lhs, rhs Expr) symbolic.Comparison {
	diff := en.normMul([]Expr{Num(-1), en.normalize(rhs)})
	diff = en.normAdd([]Expr{en.normalize(lhs), diff})
	if v, ok := diff.IsNum(); ok {
		if v == 0 {
			return symbolic.Equal
		}
		return symbolic.Unequal
	}
	return symbolic.Ambiguous
}

var _ symbolic.Backend[Expr] = (*Engine)(nil)
