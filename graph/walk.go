package graph

import (
	set "github.com/hashicorp/go-set/v3"
)

// Ancestors returns every node reachable from roots, roots included.
func (fg *FGraph) Ancestors(roots ...NodeID) *set.Set[NodeID] {
	seen := set.New[NodeID](len(roots))
	var visit func(id NodeID)
	visit = func(id NodeID) {
		if !seen.Insert(id) {
			return
		}
		for _, in := range fg.arena.node(id).Inputs {
			visit(in)
		}
	}
	for _, root := range roots {
		visit(root)
	}
	return seen
}

// Toposort returns the nodes reachable from roots in dependency order:
// every node appears after all of its inputs. The order is deterministic
// for a given graph.
func (fg *FGraph) Toposort(roots ...NodeID) []NodeID {
	seen := set.New[NodeID](len(roots))
	var order []NodeID
	var visit func(id NodeID)
	visit = func(id NodeID) {
		if !seen.Insert(id) {
			return
		}
		for _, in := range fg.arena.node(id).Inputs {
			visit(in)
		}
		order = append(order, id)
	}
	for _, root := range roots {
		visit(root)
	}
	return order
}
