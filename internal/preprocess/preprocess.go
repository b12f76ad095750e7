// Package preprocess normalizes a routine tree before compilation. Each
// stage is a pure tree-to-tree transform; the default pipeline bubbles
// child resources upward, flattens deep parameter links, promotes unlinked
// child inputs, and rewrites port sizes to canonical port variables.
package preprocess

import (
	"fmt"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// Stage is a pure whole-tree transform applied before compilation.
type Stage[T any] func(*model.Routine[T], symbolic.Backend[T]) (*model.Routine[T], error)

// Error is a hard preprocessing failure; no partial result is returned.
type Error struct {
	Routine string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("preprocessing %s: %s", e.Routine, e.Reason)
}

func errorf(routine, format string, args ...any) error {
	return &Error{Routine: routine, Reason: fmt.Sprintf(format, args...)}
}

// Postorder lifts a per-node transform into a whole-tree Stage: every child
// is transformed first (producing a children-replaced copy), then the
// transform runs on the current node. By the time a node's logic inspects
// its children, those children have already been through the same
// transform, which is what lets stages bubble information from leaves to
// roots.
func Postorder[T any](node Stage[T]) Stage[T] {
	var apply Stage[T]
	apply = func(r *model.Routine[T], b symbolic.Backend[T]) (*model.Routine[T], error) {
		children := make(map[string]*model.Routine[T], len(r.Children))
		for name, child := range r.Children {
			transformed, err := apply(child, b)
			if err != nil {
				return nil, err
			}
			children[name] = transformed
		}
		return node(r.WithChildren(children), b)
	}
	return apply
}

// DefaultStages returns the standard pipeline in its required order.
func DefaultStages[T any]() []Stage[T] {
	return []Stage[T]{
		PropagateChildResources[T],
		PropagateLinkedParams[T],
		PromoteUnlinkedInputs[T],
		IntroducePortVariables[T],
	}
}

// Run applies the stages left to right.
func Run[T any](r *model.Routine[T], b symbolic.Backend[T], stages []Stage[T]) (*model.Routine[T], error) {
	out := r
	for _, stage := range stages {
		next, err := stage(out, b)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
