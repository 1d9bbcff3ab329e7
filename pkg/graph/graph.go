package graph

import (
	"sort"

	"github.com/ritzau/fm-ecosystem/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph is an immutable snapshot of the ecosystem graph.
// It is produced by Build and never modified afterwards, so any number of
// goroutines may read it concurrently.
type Graph struct {
	graph *simple.UndirectedGraph
	ids   map[string]int64       // node ID -> gonum ID
	names map[int64]string       // gonum ID -> node ID
	nodes map[string]*model.Node // node ID -> attributes

	order []string     // node IDs in first-seen order
	edges []model.Edge // edges in first-seen order

	organizations []string // sorted distinct organizations from the node table
	stats         BuildStats
}

// BuildStats describes what happened while building a snapshot
type BuildStats struct {
	EdgeRows       int `json:"edgeRows"`
	NodeRows       int `json:"nodeRows"`
	SkippedRows    int `json:"skippedRows"`
	DuplicateEdges int `json:"duplicateEdges"`
	Pruned         int `json:"pruned"`
}

// Empty returns a graph with no nodes and no edges
func Empty() *Graph {
	return &Graph{
		graph: simple.NewUndirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
		nodes: make(map[string]*model.Node),
	}
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Stats returns the statistics recorded while building the graph
func (g *Graph) Stats() BuildStats {
	return g.stats
}

// Node returns the node with the given ID
func (g *Graph) Node(id string) (*model.Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Nodes returns all nodes in first-seen order.
// The returned nodes are shared with the snapshot and must not be modified.
func (g *Graph) Nodes() []*model.Node {
	nodes := make([]*model.Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in first-seen order
func (g *Graph) Edges() []model.Edge {
	edges := make([]model.Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Neighbors returns the IDs of the nodes adjacent to id
func (g *Graph) Neighbors(id string) []string {
	gid, ok := g.ids[id]
	if !ok {
		return nil
	}

	var neighbors []string
	iter := g.graph.From(gid)
	for iter.Next() {
		neighbors = append(neighbors, g.names[iter.Node().ID()])
	}
	return neighbors
}

// Degree returns the number of edges incident to id
func (g *Graph) Degree(id string) int {
	gid, ok := g.ids[id]
	if !ok {
		return 0
	}
	return g.graph.From(gid).Len()
}

// NodeIDs returns every node ID, sorted
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	sort.Strings(ids)
	return ids
}

// Organizations returns the distinct non-empty organizations of the node table, sorted
func (g *Graph) Organizations() []string {
	orgs := make([]string, len(g.organizations))
	copy(orgs, g.organizations)
	return orgs
}

// Components returns the connected components, largest first.
// Members of each component are sorted; ties are broken by first member.
func (g *Graph) Components() [][]string {
	var components [][]string
	for _, cc := range topo.ConnectedComponents(g.graph) {
		members := make([]string, 0, len(cc))
		for _, n := range cc {
			members = append(members, g.names[n.ID()])
		}
		sort.Strings(members)
		components = append(components, members)
	}

	sort.Slice(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})
	return components
}
