package graph

import (
	"sort"
	"strings"

	"github.com/ritzau/fm-ecosystem/pkg/logging"
	"github.com/ritzau/fm-ecosystem/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// builder accumulates nodes and edges before the snapshot is sealed
type builder struct {
	g      *Graph
	nextID int64
}

func newBuilder() *builder {
	return &builder{g: Empty()}
}

// addNode returns the node for id, creating a bare node if it does not exist
func (b *builder) addNode(id string) *model.Node {
	if node, exists := b.g.nodes[id]; exists {
		return node
	}

	node := &model.Node{ID: id}
	b.g.nodes[id] = node
	b.g.ids[id] = b.nextID
	b.g.names[b.nextID] = id
	b.g.order = append(b.g.order, id)
	b.g.graph.AddNode(simple.Node(b.nextID))
	b.nextID++

	return node
}

// addEdge connects source and target. It returns false if the edge already
// existed in either orientation.
func (b *builder) addEdge(source, target string) bool {
	b.addNode(source)
	b.addNode(target)

	sid, tid := b.g.ids[source], b.g.ids[target]
	if b.g.graph.HasEdgeBetween(sid, tid) {
		return false
	}

	b.g.graph.SetEdge(b.g.graph.NewEdge(b.g.graph.Node(sid), b.g.graph.Node(tid)))
	b.g.edges = append(b.g.edges, model.Edge{Source: source, Target: target})
	return true
}

// prune removes every node without incident edges
func (b *builder) prune() int {
	kept := b.g.order[:0]
	pruned := 0
	for _, id := range b.g.order {
		gid := b.g.ids[id]
		if b.g.graph.From(gid).Len() > 0 {
			kept = append(kept, id)
			continue
		}

		b.g.graph.RemoveNode(gid)
		delete(b.g.nodes, id)
		delete(b.g.ids, id)
		delete(b.g.names, gid)
		pruned++
	}
	b.g.order = kept
	return pruned
}

// Build constructs a snapshot from the edge and node tables.
//
// Nodes are first created from edge endpoints, then from the node table,
// whose attributes overwrite any earlier row for the same name (last write
// wins). Finally every node of degree zero is removed. Edge rows that refer to
// names missing from the node table produce attribute-less nodes.
//
// Self-loop rows are not edges here. A name that only appears in a self loop
// therefore has degree zero and is pruned, unlike a multigraph-style builder
// that would count the loop twice and keep the node.
func Build(edges []model.EdgeRecord, nodes []model.NodeRecord) *Graph {
	b := newBuilder()
	stats := BuildStats{EdgeRows: len(edges), NodeRows: len(nodes)}

	for i, rec := range edges {
		source := strings.TrimSpace(rec.Source)
		target := strings.TrimSpace(rec.Target)
		if source == "" || target == "" {
			logging.Warn("skipping edge with empty endpoint", "row", i+1, "source", source, "target", target)
			stats.SkippedRows++
			continue
		}
		if source == target {
			// Simple graph: the endpoint is still registered so it can pick
			// up attributes, but the loop itself is dropped.
			logging.Debug("skipping self loop", "row", i+1, "node", source)
			b.addNode(source)
			stats.SkippedRows++
			continue
		}
		if !b.addEdge(source, target) {
			stats.DuplicateEdges++
		}
	}

	orgs := make(map[string]bool)
	for i, rec := range nodes {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			logging.Warn("skipping node with empty name", "row", i+1)
			stats.SkippedRows++
			continue
		}

		node := b.addNode(name)
		node.Organization = rec.Organization
		node.Type = model.NodeType(rec.Type)
		node.Description = rec.Description

		if rec.Organization != "" {
			orgs[rec.Organization] = true
		}
	}

	stats.Pruned = b.prune()

	for org := range orgs {
		b.g.organizations = append(b.g.organizations, org)
	}
	sort.Strings(b.g.organizations)

	b.g.stats = stats
	logging.Debug("graph built",
		"nodes", b.g.Len(),
		"edges", b.g.EdgeCount(),
		"pruned", stats.Pruned,
		"skipped", stats.SkippedRows,
	)

	return b.g
}
