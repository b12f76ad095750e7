package preprocess

import (
	"sort"
	"strings"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// IntroducePortVariables normalizes every non-output port size to the
// canonical symbol "#<portname>" and captures the original size expression
// as either a local-variable alias or a constraint:
//
//   - a size that is a single already-known parameter becomes an alias:
//     the parameter maps to the canonical port symbol, so downstream
//     expressions written in terms of the parameter resolve through the
//     port; a parameter already aliased to a different port instead yields
//     a constraint equating the two canonical symbols
//   - a constant size yields a constraint binding the canonical symbol to
//     the constant
//   - any other expression must reference only declared input params and
//     local variables (undefined symbols are a hard error) and yields a
//     constraint binding the canonical symbol to it
//
// Output ports are derived forward, not consumed as free parameters, and
// are left untouched.
func IntroducePortVariables[T any](r *model.Routine[T], b symbolic.Backend[T]) (*model.Routine[T], error) {
	return Postorder(introducePortVariablesNode[T])(r, b)
}

func introducePortVariablesNode[T any](r *model.Routine[T], b symbolic.Backend[T]) (*model.Routine[T], error) {
	out := r.WithChildren(r.Children)

	known := make(map[string]bool, len(out.InputParams)+len(out.LocalVariables))
	for _, p := range out.InputParams {
		known[p] = true
	}
	for name := range out.LocalVariables {
		known[name] = true
	}

	for _, portName := range out.SortedPortNames() {
		port := out.Ports[portName]
		if port.IsOutput() {
			continue
		}
		canonical := model.PortSymbol(portName)
		canonicalExpr, err := b.AsExpression(canonical)
		if err != nil {
			return nil, errorf(out.Name, "cannot build port symbol %q: %v", canonical, err)
		}

		if port.Size == nil {
			// Size derived from context: the canonical symbol is all there is.
			port.Size = &canonicalExpr
			continue
		}
		size := *port.Size
		if name, ok := b.SymbolName(size); ok && name == canonical {
			continue
		}

		switch {
		case isKnownParam(b, size, known):
			name, _ := b.SymbolName(size)
			if err := aliasParam(out, b, name, canonical, canonicalExpr); err != nil {
				return nil, err
			}
		case b.IsConstantInt(size):
			out.Constraints = append(out.Constraints, model.Constraint[T]{
				LHS: canonicalExpr, RHS: size, Status: model.Inconclusive,
			})
		default:
			var missing []string
			for _, sym := range b.FreeSymbols(size) {
				if !known[sym] && !strings.HasPrefix(sym, "#") {
					missing = append(missing, sym)
				}
			}
			if len(missing) > 0 {
				sort.Strings(missing)
				return nil, errorf(out.Name, "size of port %q references undefined symbols: %s",
					portName, strings.Join(missing, ", "))
			}
			out.Constraints = append(out.Constraints, model.Constraint[T]{
				LHS: canonicalExpr, RHS: size, Status: model.Inconclusive,
			})
		}
		port.Size = &canonicalExpr
	}
	return out, nil
}

func isKnownParam[T any](b symbolic.Backend[T], size T, known map[string]bool) bool {
	name, ok := b.SymbolName(size)
	return ok && known[name]
}

// aliasParam records param -> #port. If the parameter already aliases a
// different canonical port symbol the two ports must be equal in size, so a
// constraint is added instead. A collision with a genuine local variable is
// an error: the alias would silently shadow it.
func aliasParam[T any](r *model.Routine[T], b symbolic.Backend[T], param, canonical string, canonicalExpr T) error {
	if existing, ok := r.LocalVariables[param]; ok {
		existingName, isSym := b.SymbolName(existing)
		if !isSym || !strings.HasPrefix(existingName, "#") {
			return errorf(r.Name, "port-size alias for parameter %q collides with local variable of the same name", param)
		}
		if existingName == canonical {
			return nil
		}
		r.Constraints = append(r.Constraints, model.Constraint[T]{
			LHS: canonicalExpr, RHS: existing, Status: model.Inconclusive,
		})
		return nil
	}
	if r.LocalVariables == nil {
		r.LocalVariables = make(map[string]T)
	}
	r.LocalVariables[param] = canonicalExpr
	return nil
}
