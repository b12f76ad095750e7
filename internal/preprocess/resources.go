package preprocess

import (
	"sort"
	"strings"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// PropagateChildResources synthesizes aggregate resources on every routine
// for each additive or multiplicative resource that appears on a direct
// child but not on the routine itself. Additive resources sum over the
// declaring children, multiplicative ones multiply; explicit definitions on
// the routine always win. When the routine carries a repetition, the single
// child's contribution is accumulated through the repetition's sequence
// closed form instead of a plain sum or product.
func PropagateChildResources[T any](r *model.Routine[T], b symbolic.Backend[T]) (*model.Routine[T], error) {
	return Postorder(propagateChildResourcesNode[T])(r, b)
}

func propagateChildResourcesNode[T any](r *model.Routine[T], b symbolic.Backend[T]) (*model.Routine[T], error) {
	type aggregate struct {
		typ  model.ResourceType
		refs []string
	}
	found := map[string]*aggregate{}
	var names []string

	childOrder := append([]string(nil), r.ChildrenOrder...)
	sort.Strings(childOrder)
	for _, childName := range childOrder {
		child := r.Children[childName]
		for _, resName := range child.SortedResourceNames() {
			res := child.Resources[resName]
			if res.Type != model.Additive && res.Type != model.Multiplicative {
				continue
			}
			if _, explicit := r.Resources[resName]; explicit {
				continue
			}
			agg, ok := found[resName]
			if !ok {
				agg = &aggregate{typ: res.Type}
				found[resName] = agg
				names = append(names, resName)
			}
			if agg.typ != res.Type {
				return nil, errorf(r.Name, "resource %q is %s on one child and %s on another",
					resName, agg.typ, res.Type)
			}
			agg.refs = append(agg.refs, model.ResourceRef(childName, resName))
		}
	}
	if len(names) == 0 {
		return r, nil
	}
	sort.Strings(names)

	out := r.WithChildren(r.Children)
	if out.Resources == nil {
		out.Resources = make(map[string]*model.Resource[T], len(names))
	}
	for _, resName := range names {
		agg := found[resName]
		value, err := aggregateValue(out, b, agg.typ, agg.refs)
		if err != nil {
			return nil, errorf(r.Name, "cannot aggregate resource %q: %v", resName, err)
		}
		out.Resources[resName] = &model.Resource[T]{Name: resName, Type: agg.typ, Value: value}
	}
	return out, nil
}

func aggregateValue[T any](r *model.Routine[T], b symbolic.Backend[T], typ model.ResourceType, refs []string) (T, error) {
	if r.Repetition != nil {
		// Repetition routines have a single child; its per-iteration cost
		// accumulates along the sequence.
		unit, err := b.AsExpression(refs[0])
		if err != nil {
			var zero T
			return zero, err
		}
		if typ == model.Additive {
			return r.Repetition.SequenceSum(unit, b)
		}
		return r.Repetition.SequenceProd(unit, b)
	}
	op := " + "
	if typ == model.Multiplicative {
		op = " * "
	}
	return b.AsExpression(strings.Join(refs, op))
}
