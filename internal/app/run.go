package app

import (
	"context"
	"fmt"

	"github.com/vk/qresgo/internal/compile"
	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/evaluate"
	"github.com/vk/qresgo/internal/highwater"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symexpr"
)

// Run compiles the loaded routine, evaluates it when parameter bindings were
// given, and prints the result in the configured format.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	compiled, err := compile.Compile(ctx, a.routine, a.engine, &compile.Options[symexpr.Expr]{
		SkipVerification: a.config.SkipVerification,
	})
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}
	a.logger.Debug("Compilation finished.", "routine", compiled.Name, "input_params", compiled.InputParams)

	result := compiled
	if len(a.config.Params) > 0 {
		assignments := make(map[string]any, len(a.config.Params))
		for name, value := range a.config.Params {
			assignments[name] = value
		}
		result, err = evaluate.Evaluate(ctx, compiled, a.engine, assignments, nil)
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		a.logger.Debug("Evaluation finished.", "assignments", len(assignments))
	}

	if a.config.Highwater {
		hw, err := highwater.Calculate(ctx, result, a.engine, "", "")
		if err != nil {
			return fmt.Errorf("highwater calculation failed: %w", err)
		}
		result = withDerivedResource(result, highwater.DefaultResourceName, hw)
		a.logger.Debug("Highwater calculated.", "value", a.engine.Serialize(hw))
	}

	if err := a.print(result); err != nil {
		return fmt.Errorf("printing result: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// withDerivedResource returns a copy of the routine with the given value
// attached as an additional top-level resource. An existing resource of the
// same name wins: it was declared deliberately.
func withDerivedResource(r *model.Routine[symexpr.Expr], name string, value symexpr.Expr) *model.Routine[symexpr.Expr] {
	if _, exists := r.Resources[name]; exists {
		return r
	}
	out := r.WithChildren(r.Children)
	if out.Resources == nil {
		out.Resources = make(map[string]*model.Resource[symexpr.Expr], 1)
	}
	out.Resources[name] = &model.Resource[symexpr.Expr]{
		Name:  name,
		Type:  model.Qubits,
		Value: value,
	}
	return out
}
