// Package evaluate substitutes concrete values into an already-compiled
// routine. Compilation resolved the topology; evaluation is a plain
// postorder substitution pass that never re-derives it.
package evaluate

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/qresgo/internal/compile"
	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// Evaluate binds the given assignments (values may be strings, numbers or
// native expressions) to the remaining input params of a compiled routine
// and substitutes them throughout the tree. functions supplies native
// implementations for named functions still appearing in expressions;
// registering one that collides with a builtin is an error, as is assigning
// to a symbol reserved by a repetition anywhere in the tree.
func Evaluate[T any](ctx context.Context, r *model.Routine[T], b symbolic.Backend[T], assignments map[string]any, functions map[string]symbolic.Function) (*model.Routine[T], error) {
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := b.DefineFunction(name, functions[name]); err != nil {
			return nil, &compile.Error{Path: r.Name, Reason: err.Error(), Err: err}
		}
	}

	subs := make(map[string]T, len(assignments))
	for name, raw := range assignments {
		v, err := b.AsExpression(raw)
		if err != nil {
			return nil, &compile.Error{
				Path:   r.Name,
				Reason: fmt.Sprintf("assignment for %q: %v", name, err),
				Err:    err,
			}
		}
		subs[name] = v
	}
	logger.Debug("evaluating routine", "routine", r.Name, "assignments", len(subs), "functions", len(names))

	return evaluateNode(r, b, subs, r.Name)
}

func evaluateNode[T any](r *model.Routine[T], b symbolic.Backend[T], subs map[string]T, path string) (*model.Routine[T], error) {
	for _, protected := range r.Repetition.ProtectedSymbols() {
		if _, bound := subs[protected]; bound {
			return nil, &compile.Error{Path: path,
				Reason: fmt.Sprintf("assignment for %q shadows the repetition's reserved symbol", protected)}
		}
	}

	children := make(map[string]*model.Routine[T], len(r.Children))
	for name, child := range r.Children {
		evaluated, err := evaluateNode(child, b, subs, path+"."+name)
		if err != nil {
			return nil, err
		}
		children[name] = evaluated
	}
	out := r.WithChildren(children)

	// Simplify after substituting so calls to freshly registered functions
	// fold even when no symbol in the expression was assigned.
	apply := func(e T) (T, error) {
		v, err := b.SubstituteAll(e, subs)
		if err != nil {
			return v, err
		}
		return b.Simplify(v), nil
	}

	for _, name := range out.SortedPortNames() {
		port := out.Ports[name]
		if port.Size == nil {
			continue
		}
		v, err := apply(*port.Size)
		if err != nil {
			return nil, &compile.Error{Path: path, Reason: fmt.Sprintf("evaluating port %q: %v", name, err), Err: err}
		}
		port.Size = &v
	}
	for _, name := range out.SortedResourceNames() {
		res := out.Resources[name]
		v, err := apply(res.Value)
		if err != nil {
			return nil, &compile.Error{Path: path, Reason: fmt.Sprintf("evaluating resource %q: %v", name, err), Err: err}
		}
		res.Value = v
	}
	for _, name := range out.SortedLocalVariableNames() {
		v, err := apply(out.LocalVariables[name])
		if err != nil {
			return nil, &compile.Error{Path: path, Reason: fmt.Sprintf("evaluating local variable %q: %v", name, err), Err: err}
		}
		out.LocalVariables[name] = v
	}

	var surviving []model.Constraint[T]
	for _, c := range out.Constraints {
		lhs, err := apply(c.LHS)
		if err != nil {
			return nil, &compile.Error{Path: path, Reason: fmt.Sprintf("evaluating constraint: %v", err), Err: err}
		}
		rhs, err := apply(c.RHS)
		if err != nil {
			return nil, &compile.Error{Path: path, Reason: fmt.Sprintf("evaluating constraint: %v", err), Err: err}
		}
		switch b.Compare(lhs, rhs) {
		case symbolic.Equal:
		case symbolic.Unequal:
			return nil, &compile.Error{Path: path,
				Reason: fmt.Sprintf("violated constraint: %s = %s evaluated to %s = %s",
					b.Serialize(c.LHS), b.Serialize(c.RHS), b.Serialize(lhs), b.Serialize(rhs))}
		default:
			surviving = append(surviving, model.Constraint[T]{LHS: lhs, RHS: rhs, Status: model.Inconclusive})
		}
	}
	out.Constraints = surviving

	if out.Repetition != nil {
		rep, err := out.Repetition.Transform(apply)
		if err != nil {
			return nil, &compile.Error{Path: path, Reason: fmt.Sprintf("evaluating repetition: %v", err), Err: err}
		}
		out.Repetition = rep
	}

	remaining := make([]string, 0, len(out.InputParams))
	for _, p := range out.InputParams {
		if _, bound := subs[p]; !bound {
			remaining = append(remaining, p)
		}
	}
	out.InputParams = remaining
	return out, nil
}
