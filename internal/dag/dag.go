// Package dag provides a small string-keyed dependency graph with
// deterministic topological sorting and cycle detection. It backs both the
// local-variable resolution order and the child compilation order.
package dag

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports that the graph contains a dependency cycle.
type CycleError struct {
	// Members are the node IDs still unresolved when sorting stalled; every
	// cycle in the graph runs through this set.
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving: %s", strings.Join(e.Members, ", "))
}

// Graph is a directed graph keyed by node ID. The zero value is not usable;
// call New.
type Graph struct {
	nodes map[string]struct{}
	// deps[id] is the set of IDs that must come before id.
	deps map[string]map[string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		deps:  make(map[string]map[string]struct{}),
	}
}

// AddNode registers a node. Adding the same ID twice is a no-op.
func (g *Graph) AddNode(id string) {
	g.nodes[id] = struct{}{}
}

// AddEdge records that `to` depends on `from`, i.e. `from` must precede
// `to` in any valid order. Unknown endpoints are registered implicitly;
// self-edges are rejected.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("self-referential dependency not allowed: %s -> %s", from, to)
	}
	g.AddNode(from)
	g.AddNode(to)
	if g.deps[to] == nil {
		g.deps[to] = make(map[string]struct{})
	}
	g.deps[to][from] = struct{}{}
	return nil
}

// IsValidOrder reports whether the given order lists every node exactly once
// with each node's dependencies appearing before it.
func (g *Graph) IsValidOrder(order []string) bool {
	if len(order) != len(g.nodes) {
		return false
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, known := g.nodes[id]; !known || seen[id] {
			return false
		}
		for dep := range g.deps[id] {
			if !seen[dep] {
				return false
			}
		}
		seen[id] = true
	}
	return true
}

// Sort returns a topological order of all nodes using Kahn's algorithm.
// Ready nodes are emitted in the order given by `preferred` (IDs missing
// from preferred come last, alphabetically), so a declared ordering is
// respected wherever the dependencies allow it. A *CycleError is returned
// when no complete order exists.
func (g *Graph) Sort(preferred []string) ([]string, error) {
	rank := make(map[string]int, len(preferred))
	for i, id := range preferred {
		rank[id] = i
	}
	less := func(a, b string) bool {
		ra, aok := rank[a]
		rb, bok := rank[b]
		switch {
		case aok && bok:
			return ra < rb
		case aok:
			return true
		case bok:
			return false
		default:
			return a < b
		}
	}

	remaining := make(map[string]map[string]struct{}, len(g.nodes))
	for id := range g.nodes {
		pending := make(map[string]struct{}, len(g.deps[id]))
		for dep := range g.deps[id] {
			pending[dep] = struct{}{}
		}
		remaining[id] = pending
	}

	order := make([]string, 0, len(g.nodes))
	for len(remaining) > 0 {
		ready := make([]string, 0, len(remaining))
		for id, pending := range remaining {
			if len(pending) == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			members := make([]string, 0, len(remaining))
			for id := range remaining {
				members = append(members, id)
			}
			sort.Strings(members)
			return nil, &CycleError{Members: members}
		}
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		for _, id := range ready {
			order = append(order, id)
			delete(remaining, id)
		}
		for _, pending := range remaining {
			for _, id := range ready {
				delete(pending, id)
			}
		}
	}
	return order, nil
}
