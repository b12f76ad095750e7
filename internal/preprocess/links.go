package preprocess

import (
	"sort"
	"strings"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// PropagateLinkedParams flattens parameter links that reach through
// grandchildren. A link `source -> (a.b, x)` becomes a link to a new input
// param "b.x" on the intermediate child `a`, which itself links onward to
// `(b, x)`; the rewrite repeats level by level until every link has depth
// one. Unlike the other stages this transform is inherently top-down: a
// parent's rewrite plants new links on its children, which the recursion
// then flattens in turn.
func PropagateLinkedParams[T any](r *model.Routine[T], _ symbolic.Backend[T]) (*model.Routine[T], error) {
	out := r.Clone()
	if err := flattenLinks(out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenLinks[T any](r *model.Routine[T]) error {
	for _, src := range r.SortedLinkSources() {
		targets := r.LinkedParams[src]
		rewritten := make([]model.LinkTarget, len(targets))
		for i, tgt := range targets {
			idx := strings.Index(tgt.Path, ".")
			if idx < 0 {
				rewritten[i] = tgt
				continue
			}
			childName, further := tgt.Path[:idx], tgt.Path[idx+1:]
			child, ok := r.Children[childName]
			if !ok {
				return errorf(r.Name, "linked param %q targets unknown child %q", src, childName)
			}
			forwarded := further + "." + tgt.Param
			if !child.HasInputParam(forwarded) {
				child.InputParams = append(child.InputParams, forwarded)
			}
			if child.LinkedParams == nil {
				child.LinkedParams = make(map[string][]model.LinkTarget)
			}
			child.LinkedParams[forwarded] = append(child.LinkedParams[forwarded],
				model.LinkTarget{Path: further, Param: tgt.Param})
			rewritten[i] = model.LinkTarget{Path: childName, Param: forwarded}
		}
		r.LinkedParams[src] = rewritten
	}

	names := append([]string(nil), r.ChildrenOrder...)
	sort.Strings(names)
	for _, name := range names {
		if err := flattenLinks(r.Children[name]); err != nil {
			return err
		}
	}
	return nil
}

// PromoteUnlinkedInputs guarantees every child input parameter is reachable
// via linkage from its parent: any child input param not already the target
// of a link gets a synthesized link "<child>.<input>" and the same name is
// added to the parent's own input params. Applied postorder, this chains
// leaf-level parameters all the way to the root.
func PromoteUnlinkedInputs[T any](r *model.Routine[T], b symbolic.Backend[T]) (*model.Routine[T], error) {
	return Postorder(promoteUnlinkedInputsNode[T])(r, b)
}

func promoteUnlinkedInputsNode[T any](r *model.Routine[T], _ symbolic.Backend[T]) (*model.Routine[T], error) {
	linked := make(map[model.LinkTarget]bool)
	for _, targets := range r.LinkedParams {
		for _, tgt := range targets {
			linked[tgt] = true
		}
	}

	type promotion struct {
		source string
		target model.LinkTarget
	}
	var promotions []promotion
	childNames := append([]string(nil), r.ChildrenOrder...)
	sort.Strings(childNames)
	for _, childName := range childNames {
		child := r.Children[childName]
		for _, param := range child.InputParams {
			tgt := model.LinkTarget{Path: childName, Param: param}
			if linked[tgt] {
				continue
			}
			promotions = append(promotions, promotion{
				source: childName + "." + param,
				target: tgt,
			})
		}
	}
	if len(promotions) == 0 {
		return r, nil
	}

	out := r.WithChildren(r.Children)
	if out.LinkedParams == nil {
		out.LinkedParams = make(map[string][]model.LinkTarget, len(promotions))
	}
	for _, p := range promotions {
		out.LinkedParams[p.source] = append(out.LinkedParams[p.source], p.target)
		if !out.HasInputParam(p.source) {
			out.InputParams = append(out.InputParams, p.source)
		}
	}
	return out, nil
}
