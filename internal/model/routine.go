package model

import (
	"sort"
	"strings"
)

// LinkTarget names one destination of a parameter link: a child (possibly a
// dotted path to a deeper descendant before link flattening) and the input
// parameter to bind there.
type LinkTarget struct {
	Path  string
	Param string
}

// Routine is one node of the hierarchical cost model. See the package
// documentation for the overall shape; Validate enforces the structural
// invariants.
type Routine[T any] struct {
	Name string
	// Type is a free-form tag ("basic", "alias", ...) used by preprocessing
	// defaults; the compiler itself never interprets it.
	Type string

	Children      map[string]*Routine[T]
	ChildrenOrder []string

	Ports     map[string]*Port[T]
	Resources map[string]*Resource[T]

	// Connections maps source endpoints to target endpoints within this
	// routine's scope: its own ports and its direct children's ports.
	Connections map[Endpoint]Endpoint

	// InputParams are the free symbols this routine expects from its
	// context.
	InputParams []string

	// LinkedParams forwards a parameter at this level into specific
	// descendants' input parameters.
	LinkedParams map[string][]LinkTarget

	// LocalVariables are internal shorthands, resolved in dependency order
	// before substitution into resources and port sizes.
	LocalVariables map[string]T

	Repetition *Repetition[T]

	Constraints []Constraint[T]
}

// Validate checks the structural invariants of the whole subtree: the
// declared children order matches the children set exactly, ports and
// resources are well formed, and every connection endpoint names an
// existing port on this routine or a direct child. It returns a
// *ConstructionError on the first violation.
func (r *Routine[T]) Validate() error {
	return r.validate(r.Name)
}

func (r *Routine[T]) validate(path string) error {
	if len(r.ChildrenOrder) != len(r.Children) {
		return constructionErrorf(path, "children_order lists %d names but there are %d children",
			len(r.ChildrenOrder), len(r.Children))
	}
	seen := make(map[string]bool, len(r.ChildrenOrder))
	for _, name := range r.ChildrenOrder {
		if seen[name] {
			return constructionErrorf(path, "children_order repeats %q", name)
		}
		seen[name] = true
		if _, ok := r.Children[name]; !ok {
			return constructionErrorf(path, "children_order names unknown child %q", name)
		}
	}
	for name, p := range r.Ports {
		if name != p.Name {
			return constructionErrorf(path, "port map key %q does not match port name %q", name, p.Name)
		}
		if err := p.validate(path); err != nil {
			return err
		}
	}
	for name, res := range r.Resources {
		if name != res.Name {
			return constructionErrorf(path, "resource map key %q does not match resource name %q", name, res.Name)
		}
		if err := res.validate(path); err != nil {
			return err
		}
	}
	for src, dst := range r.Connections {
		for _, ep := range []Endpoint{src, dst} {
			if err := r.checkEndpoint(path, ep); err != nil {
				return err
			}
		}
	}
	for name, child := range r.Children {
		if name != child.Name {
			return constructionErrorf(path, "child map key %q does not match child name %q", name, child.Name)
		}
		if err := child.validate(path+"."+name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Routine[T]) checkEndpoint(path string, ep Endpoint) error {
	if ep.Port == "" {
		return constructionErrorf(path, "connection endpoint with empty port name")
	}
	if ep.IsOwn() {
		if _, ok := r.Ports[ep.Port]; !ok {
			return constructionErrorf(path, "connection references unknown port %q", ep.Port)
		}
		return nil
	}
	child, ok := r.Children[ep.Routine]
	if !ok {
		return constructionErrorf(path, "connection references unknown child %q", ep.Routine)
	}
	if _, ok := child.Ports[ep.Port]; !ok {
		return constructionErrorf(path, "connection references unknown port %q on child %q", ep.Port, ep.Routine)
	}
	return nil
}

// Clone returns a deep copy of the subtree. Expression values of type T are
// copied by assignment; backends treat them as immutable, so sharing them
// is safe.
func (r *Routine[T]) Clone() *Routine[T] {
	if r == nil {
		return nil
	}
	cp := r.cloneNode()
	if r.Children != nil {
		cp.Children = make(map[string]*Routine[T], len(r.Children))
		for name, child := range r.Children {
			cp.Children[name] = child.Clone()
		}
	}
	return cp
}

// cloneNode deep-copies a single node, leaving Children nil.
func (r *Routine[T]) cloneNode() *Routine[T] {
	cp := &Routine[T]{
		Name:          r.Name,
		Type:          r.Type,
		ChildrenOrder: append([]string(nil), r.ChildrenOrder...),
		InputParams:   append([]string(nil), r.InputParams...),
		Constraints:   append([]Constraint[T](nil), r.Constraints...),
		Repetition:    r.Repetition.Clone(),
	}
	if r.Ports != nil {
		cp.Ports = make(map[string]*Port[T], len(r.Ports))
		for name, p := range r.Ports {
			cp.Ports[name] = p.Clone()
		}
	}
	if r.Resources != nil {
		cp.Resources = make(map[string]*Resource[T], len(r.Resources))
		for name, res := range r.Resources {
			cp.Resources[name] = res.Clone()
		}
	}
	if r.Connections != nil {
		cp.Connections = make(map[Endpoint]Endpoint, len(r.Connections))
		for src, dst := range r.Connections {
			cp.Connections[src] = dst
		}
	}
	if r.LinkedParams != nil {
		cp.LinkedParams = make(map[string][]LinkTarget, len(r.LinkedParams))
		for src, targets := range r.LinkedParams {
			cp.LinkedParams[src] = append([]LinkTarget(nil), targets...)
		}
	}
	if r.LocalVariables != nil {
		cp.LocalVariables = make(map[string]T, len(r.LocalVariables))
		for name, v := range r.LocalVariables {
			cp.LocalVariables[name] = v
		}
	}
	return cp
}

// WithChildren returns a copy of this node populated with the given
// replacement children. It is the building block of the postorder
// transforms.
func (r *Routine[T]) WithChildren(children map[string]*Routine[T]) *Routine[T] {
	cp := r.cloneNode()
	cp.Children = children
	return cp
}

// SortedPortNames returns the port names in lexical order, for
// deterministic iteration.
func (r *Routine[T]) SortedPortNames() []string {
	names := make([]string, 0, len(r.Ports))
	for name := range r.Ports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedResourceNames returns the resource names in lexical order.
func (r *Routine[T]) SortedResourceNames() []string {
	names := make([]string, 0, len(r.Resources))
	for name := range r.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedLocalVariableNames returns the local variable names in lexical
// order.
func (r *Routine[T]) SortedLocalVariableNames() []string {
	names := make([]string, 0, len(r.LocalVariables))
	for name := range r.LocalVariables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedConnections returns the connection source endpoints in lexical
// order of their string form.
func (r *Routine[T]) SortedConnections() []Endpoint {
	sources := make([]Endpoint, 0, len(r.Connections))
	for src := range r.Connections {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].String() < sources[j].String()
	})
	return sources
}

// SortedLinkSources returns the linked-param source names in lexical order.
func (r *Routine[T]) SortedLinkSources() []string {
	sources := make([]string, 0, len(r.LinkedParams))
	for src := range r.LinkedParams {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// HasInputParam reports whether the named parameter is declared on this
// routine.
func (r *Routine[T]) HasInputParam(name string) bool {
	for _, p := range r.InputParams {
		if p == name {
			return true
		}
	}
	return false
}

// Descendant resolves a dotted child path ("child" or "child.grandchild")
// relative to this routine.
func (r *Routine[T]) Descendant(path string) (*Routine[T], bool) {
	cur := r
	for _, part := range strings.Split(path, ".") {
		next, ok := cur.Children[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
