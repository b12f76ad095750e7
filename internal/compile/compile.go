// Package compile implements the compiler core: a single depth-first,
// postorder-with-context traversal that resolves every port size, resource
// value, local variable and constraint in a routine tree, leaving a routine
// whose expressions depend only on the top-level input parameters.
package compile

import (
	"context"

	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/preprocess"
	"github.com/vk/qresgo/internal/symbolic"
	"github.com/vk/qresgo/internal/verify"
)

// Options configures a compilation run.
type Options[T any] struct {
	// Stages overrides the preprocessing pipeline; nil means
	// preprocess.DefaultStages.
	Stages []preprocess.Stage[T]
	// SkipVerification disables the pre-compilation verification gate. The
	// post-compilation audit still runs; it only warns.
	SkipVerification bool
	// Inputs optionally binds top-level input parameters before
	// compilation, e.g. fixing a register width up front.
	Inputs map[string]T
}

// Compile resolves the routine tree bottom-up and returns a compiled copy.
// The input tree is never modified.
//
// Pre-compilation verification failures, violated constraints and cyclic
// dependency graphs all abort with a *compile.Error; post-compilation audit
// findings only produce a warning on the context logger.
func Compile[T any](ctx context.Context, r *model.Routine[T], b symbolic.Backend[T], opts *Options[T]) (*model.Routine[T], error) {
	logger := ctxlog.FromContext(ctx)
	if opts == nil {
		opts = &Options[T]{}
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	if !opts.SkipVerification {
		if problems := verify.CheckUncompiled(r, b); len(problems) > 0 {
			return nil, &Error{Path: r.Name, Reason: problems.Error(), Err: problems}
		}
		logger.Debug("pre-compilation verification passed", "routine", r.Name)
	}

	stages := opts.Stages
	if stages == nil {
		stages = preprocess.DefaultStages[T]()
	}
	pre, err := preprocess.Run(r, b, stages)
	if err != nil {
		return nil, err
	}
	logger.Debug("preprocessing finished", "routine", r.Name, "stages", len(stages))

	inputs := make(map[string]T, len(opts.Inputs))
	for name, v := range opts.Inputs {
		inputs[name] = v
	}
	compiled, err := compileNode(ctx, pre, b, inputs, pre.Name)
	if err != nil {
		return nil, err
	}

	if problems := verify.CheckCompiled(compiled, b); len(problems) > 0 {
		// The compiler may legitimately introduce expressions outside the
		// audit's expectations, so this is advisory only.
		logger.Warn("post-compilation verification reported problems",
			"routine", r.Name, "problems", problems.Error())
	}
	logger.Debug("compilation finished", "routine", r.Name)
	return compiled, nil
}
