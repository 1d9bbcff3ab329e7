// Package query answers filter selections against a graph snapshot.
//
// All functions are pure reads of an immutable *graph.Graph and are safe to
// call concurrently.
package query

import (
	"github.com/ritzau/fm-ecosystem/pkg/graph"
	"github.com/ritzau/fm-ecosystem/pkg/model"
)

// MaxHops is the number of neighbour rounds added around the seed set
const MaxHops = 2

// MatchedNode is a node in an expansion result
type MatchedNode struct {
	*model.Node
	// Matched is set for seed nodes when at least one filter was applied
	Matched bool
}

// Result is the induced subgraph around a selection, in snapshot order
type Result struct {
	Nodes []MatchedNode
	Edges []model.Edge
}

// Selection is the pair of filters chosen in the UI
type Selection struct {
	Names         []string
	Organizations []string
}

// Empty reports whether neither filter is active
func (s Selection) Empty() bool {
	return len(s.Names) == 0 && len(s.Organizations) == 0
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Seeds returns the IDs of nodes that satisfy both filters directly.
// An empty filter accepts every node, so an empty selection seeds the whole graph.
func Seeds(g *graph.Graph, sel Selection) map[string]bool {
	names := toSet(sel.Names)
	orgs := toSet(sel.Organizations)

	seeds := make(map[string]bool)
	for _, node := range g.Nodes() {
		if len(names) > 0 && !names[node.ID] {
			continue
		}
		if len(orgs) > 0 && !orgs[node.Organization] {
			continue
		}
		seeds[node.ID] = true
	}
	return seeds
}

// closure grows included by up to MaxHops rounds of direct neighbours.
// A round that contributes no new node ends the expansion.
func closure(g *graph.Graph, included map[string]bool) map[string]bool {
	for hop := 0; hop < MaxHops; hop++ {
		frontier := make(map[string]bool)
		for id := range included {
			for _, neighbor := range g.Neighbors(id) {
				if !included[neighbor] {
					frontier[neighbor] = true
				}
			}
		}

		if len(frontier) == 0 {
			break
		}
		for id := range frontier {
			included[id] = true
		}
	}
	return included
}

// Expand computes the neighbourhood shown for a selection: the seed set, up to
// two hops around it, and every edge between the resulting nodes.
func Expand(g *graph.Graph, sel Selection) Result {
	seeds := Seeds(g, sel)

	included := make(map[string]bool, len(seeds))
	for id := range seeds {
		included[id] = true
	}
	included = closure(g, included)

	highlight := !sel.Empty()
	result := Result{
		Nodes: make([]MatchedNode, 0, len(included)),
		Edges: make([]model.Edge, 0),
	}
	for _, node := range g.Nodes() {
		if !included[node.ID] {
			continue
		}
		result.Nodes = append(result.Nodes, MatchedNode{
			Node:    node,
			Matched: highlight && seeds[node.ID],
		})
	}
	for _, edge := range g.Edges() {
		if included[edge.Source] && included[edge.Target] {
			result.Edges = append(result.Edges, edge)
		}
	}

	return result
}
