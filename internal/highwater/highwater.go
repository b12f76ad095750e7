// Package highwater computes a conservative upper bound on the number of
// simultaneously live qubits of a routine: the highwater mark of its data
// flow, assuming children execute one after another in chronological order.
package highwater

import (
	"context"
	"strings"

	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

const (
	// DefaultResourceName is the resource under which a precomputed
	// highwater value is looked up on children.
	DefaultResourceName = "qubit_highwater"
	// DefaultAncillaeName is the resource holding a routine's local
	// ancilla count, added on top of the flow highwater.
	DefaultAncillaeName = "local_ancillae"
)

// Calculate walks the routine in chronological child order and tracks the
// running active flow: it starts at the routine's own input+through width,
// each child replaces its inflow with its outflow, and every step records a
// watermark of active flow plus the child's own highwater. The result is
// the maximum over all distinct non-zero watermarks plus any local
// ancillae.
//
// The starting inflow counts as a watermark in its own right: a routine
// that consumes more than it emits still holds the full inflow before its
// first child runs, so the bound here can exceed a per-child-only walk.
//
// The declared child order is taken as chronology. When it is not a valid
// topological order of the data flow a warning is logged and a valid order
// is used instead; the estimate is then best-effort, since the true
// chronology is ambiguous.
//
// An empty routine (no children, no flow, no ancillae) yields exactly 0.
func Calculate[T any](ctx context.Context, r *model.Routine[T], b symbolic.Backend[T], resourceName, ancillaeName string) (T, error) {
	if resourceName == "" {
		resourceName = DefaultResourceName
	}
	if ancillaeName == "" {
		ancillaeName = DefaultAncillaeName
	}
	return calculate(ctx, r, b, resourceName, ancillaeName, r.Name)
}

func calculate[T any](ctx context.Context, r *model.Routine[T], b symbolic.Backend[T], resourceName, ancillaeName, path string) (T, error) {
	var zero T
	order, declaredValid, err := r.SortedChildren()
	if err != nil {
		return zero, err
	}
	if !declaredValid && len(order) > 1 {
		ctxlog.FromContext(ctx).Warn(
			"declared child order is not consistent with the data flow; highwater estimate may be inaccurate",
			"routine", path)
	}

	activeFlow, err := flowExpr(r, b, model.Input, model.Through)
	if err != nil {
		return zero, err
	}

	// The inflow itself is the first watermark: it is live before any child
	// runs.
	watermarks := []T{activeFlow}
	for _, childName := range order {
		child := r.Children[childName]
		inflow, err := flowExpr(child, b, model.Input, model.Through)
		if err != nil {
			return zero, err
		}
		outflow, err := flowExpr(child, b, model.Output, model.Through)
		if err != nil {
			return zero, err
		}
		childHighwater, err := childValue(ctx, child, b, resourceName, ancillaeName, path+"."+childName)
		if err != nil {
			return zero, err
		}

		mark, err := b.AsExpression(join3(b, activeFlow, "-", inflow, "+", childHighwater))
		if err != nil {
			return zero, err
		}
		watermarks = append(watermarks, mark)

		activeFlow, err = b.AsExpression(join3(b, activeFlow, "-", inflow, "+", outflow))
		if err != nil {
			return zero, err
		}
	}

	final, err := flowExpr(r, b, model.Output, model.Through)
	if err != nil {
		return zero, err
	}
	watermarks = append(watermarks, final)

	peaks := make([]T, 0, len(watermarks))
	seen := make(map[string]bool, len(watermarks))
	for _, w := range watermarks {
		if v, ok := b.Value(w); ok && v == 0 {
			continue
		}
		key := b.Serialize(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		peaks = append(peaks, w)
	}

	var result T
	switch len(peaks) {
	case 0:
		result = symbolic.Zero(b)
	case 1:
		result = peaks[0]
	default:
		result, err = symbolic.Call(b, "max", peaks...)
		if err != nil {
			return zero, err
		}
	}

	if anc, ok := r.Resources[ancillaeName]; ok {
		return symbolic.Add(b, result, anc.Value)
	}
	return result, nil
}

// childValue prefers an explicitly declared highwater resource on the
// child, falling back to a recursive computation.
func childValue[T any](ctx context.Context, child *model.Routine[T], b symbolic.Backend[T], resourceName, ancillaeName, path string) (T, error) {
	if res, ok := child.Resources[resourceName]; ok {
		return res.Value, nil
	}
	return calculate(ctx, child, b, resourceName, ancillaeName, path)
}

// flowExpr sums the sizes of all ports with one of the given directions.
func flowExpr[T any](r *model.Routine[T], b symbolic.Backend[T], directions ...model.Direction) (T, error) {
	var parts []string
	for _, name := range r.SortedPortNames() {
		port := r.Ports[name]
		match := false
		for _, d := range directions {
			if port.Direction == d {
				match = true
				break
			}
		}
		if !match || port.Size == nil {
			continue
		}
		parts = append(parts, "("+b.Serialize(*port.Size)+")")
	}
	if len(parts) == 0 {
		return symbolic.Zero(b), nil
	}
	return b.AsExpression(strings.Join(parts, " + "))
}

func join3[T any](b symbolic.Backend[T], a T, op1 string, x T, op2 string, y T) string {
	return "(" + b.Serialize(a) + ") " + op1 + " (" + b.Serialize(x) + ") " + op2 + " (" + b.Serialize(y) + ")"
}
