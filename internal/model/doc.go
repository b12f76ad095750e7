// Package model defines the routine tree: the hierarchical cost model the
// rest of the system preprocesses, compiles and evaluates.
//
// A Routine is a node with ports (symbolically sized I/O boundaries),
// resources (symbolically valued cost quantities), connections wiring ports
// within one scope, parameter links forwarding free parameters into
// children, local variables, an optional repetition, and named children.
//
// The tree is generic over the expression type T of whichever
// symbolic.Backend produced it, and is treated as immutable value data:
// every transform in this repository produces a new tree via the Clone
// helpers rather than mutating in place.
package model
