// Package verify implements the static checks that gate compilation and
// audit its output. Findings are aggregated rather than raised one at a
// time: before compilation the full list blocks the run, after compilation
// it surfaces as a single warning.
package verify

import (
	"fmt"
	"strings"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// Problem is a single verification finding, located by routine path.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// Problems aggregates findings; it implements error so a non-empty list can
// block compilation.
type Problems []Problem

func (ps Problems) Error() string {
	msgs := make([]string, len(ps))
	for i, p := range ps {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("%d verification problem(s): %s", len(ps), strings.Join(msgs, "; "))
}

// CheckUncompiled runs the pre-compilation checks over the whole tree:
// every linked-param source must be a declared input param and every link
// target must name an existing child input param; a routine with a
// repetition must have exactly one child and no resources of its own.
// Structural invariants (children order, endpoint existence) are the data
// model's job, see Routine.Validate.
func CheckUncompiled[T any](r *model.Routine[T], b symbolic.Backend[T]) Problems {
	var out Problems
	checkUncompiled(r, b, r.Name, &out)
	return out
}

func checkUncompiled[T any](r *model.Routine[T], b symbolic.Backend[T], path string, out *Problems) {
	for _, src := range r.SortedLinkSources() {
		if !r.HasInputParam(src) {
			*out = append(*out, Problem{Path: path,
				Message: fmt.Sprintf("linked param source %q is not a declared input param", src)})
		}
		for _, tgt := range r.LinkedParams[src] {
			desc, ok := r.Descendant(tgt.Path)
			if !ok {
				*out = append(*out, Problem{Path: path,
					Message: fmt.Sprintf("linked param %q targets unknown descendant %q", src, tgt.Path)})
				continue
			}
			if !desc.HasInputParam(tgt.Param) {
				*out = append(*out, Problem{Path: path,
					Message: fmt.Sprintf("linked param %q targets %q, which has no input param %q",
						src, tgt.Path, tgt.Param)})
			}
		}
	}
	checkRepetition(r, path, out)
	for _, name := range r.ChildrenOrder {
		checkUncompiled(r.Children[name], b, path+"."+name, out)
	}
}

func checkRepetition[T any](r *model.Routine[T], path string, out *Problems) {
	if r.Repetition == nil {
		return
	}
	if len(r.Children) != 1 {
		*out = append(*out, Problem{Path: path,
			Message: fmt.Sprintf("routine with repetition must have exactly one child, has %d", len(r.Children))})
	}
	if len(r.Resources) != 0 {
		*out = append(*out, Problem{Path: path,
			Message: fmt.Sprintf("routine with repetition must not declare resources of its own, has %d", len(r.Resources))})
	}
	if r.Repetition.Sequence == nil {
		*out = append(*out, Problem{Path: path, Message: "repetition without a sequence"})
	}
}

// CheckCompiled audits a compiled routine: no linked params may survive,
// and every free symbol remaining in resources and port sizes anywhere in
// the tree must be one of the top-level declared input params.
func CheckCompiled[T any](r *model.Routine[T], b symbolic.Backend[T]) Problems {
	var out Problems
	declared := make(map[string]bool, len(r.InputParams))
	for _, p := range r.InputParams {
		declared[p] = true
	}
	checkCompiled(r, b, r.Name, declared, &out)
	return out
}

func checkCompiled[T any](r *model.Routine[T], b symbolic.Backend[T], path string, declared map[string]bool, out *Problems) {
	if len(r.LinkedParams) != 0 {
		*out = append(*out, Problem{Path: path,
			Message: fmt.Sprintf("compiled routine still has %d linked param(s)", len(r.LinkedParams))})
	}
	for _, name := range r.SortedResourceNames() {
		for _, sym := range b.FreeSymbols(r.Resources[name].Value) {
			if !declared[sym] {
				*out = append(*out, Problem{Path: path,
					Message: fmt.Sprintf("resource %q depends on %q, which is not a top-level input param", name, sym)})
			}
		}
	}
	for _, name := range r.SortedPortNames() {
		port := r.Ports[name]
		if port.Size == nil {
			*out = append(*out, Problem{Path: path,
				Message: fmt.Sprintf("port %q has no resolved size", name)})
			continue
		}
		for _, sym := range b.FreeSymbols(*port.Size) {
			if !declared[sym] {
				*out = append(*out, Problem{Path: path,
					Message: fmt.Sprintf("port %q size depends on %q, which is not a top-level input param", name, sym)})
			}
		}
	}
	checkRepetition(r, path, out)
	for _, name := range r.ChildrenOrder {
		checkCompiled(r.Children[name], b, path+"."+name, declared, out)
	}
}
