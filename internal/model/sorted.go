package model

import "github.com/vk/qresgo/internal/dag"

// InnerConnections returns the connections whose endpoints are both child
// ports, i.e. the sibling-to-sibling data flow that dictates compilation
// order.
func (r *Routine[T]) InnerConnections() map[Endpoint]Endpoint {
	inner := make(map[Endpoint]Endpoint)
	for src, dst := range r.Connections {
		if !src.IsOwn() && !dst.IsOwn() {
			inner[src] = dst
		}
	}
	return inner
}

// childGraph builds the child dependency graph implied by inner
// connections: an edge from the source child to the target child for every
// sibling connection.
func (r *Routine[T]) childGraph() *dag.Graph {
	g := dag.New()
	for name := range r.Children {
		g.AddNode(name)
	}
	for src, dst := range r.InnerConnections() {
		if src.Routine == dst.Routine {
			continue
		}
		// AddEdge only fails on self-edges, excluded above.
		_ = g.AddEdge(src.Routine, dst.Routine)
	}
	return g
}

// SortedChildren returns the order in which children must be compiled: the
// declared ChildrenOrder when it is already a valid topological order of
// the inner-connection graph (cheap check first), otherwise a full
// topological sort that keeps as close to the declared order as the
// dependencies allow. declaredValid reports which case applied; err is a
// *dag.CycleError when the child graph is cyclic.
func (r *Routine[T]) SortedChildren() (order []string, declaredValid bool, err error) {
	g := r.childGraph()
	if g.IsValidOrder(r.ChildrenOrder) {
		return append([]string(nil), r.ChildrenOrder...), true, nil
	}
	order, err = g.Sort(r.ChildrenOrder)
	return order, false, err
}
