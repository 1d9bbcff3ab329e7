package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/ritzau/fm-ecosystem/pkg/graph"
	"github.com/ritzau/fm-ecosystem/pkg/model"
)

// Caps on the listings in the summary
const (
	maxComponentsListed = 5
	maxHubsListed       = 5
)

// PrintGraphSummary prints a coloured overview of a loaded graph
func PrintGraphSummary(w io.Writer, nodesPath, edgesPath string, g *graph.Graph) {
	bold := color.New(color.Bold)
	blue := color.New(color.FgBlue)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Foundation Model Ecosystem - Graph Summary")
	bold.Fprintln(w, "==========================================")
	fmt.Fprintf(w, "Nodes table: %s\n", nodesPath)
	fmt.Fprintf(w, "Edges table: %s\n", edgesPath)

	stats := g.Stats()
	fmt.Fprintf(w, "Read: %d node rows, %d edge rows\n", stats.NodeRows, stats.EdgeRows)
	if stats.SkippedRows > 0 || stats.DuplicateEdges > 0 {
		yellow.Fprintf(w, "Skipped: %d row(s), %d duplicate edge(s)\n", stats.SkippedRows, stats.DuplicateEdges)
	}
	if stats.Pruned > 0 {
		yellow.Fprintf(w, "Pruned: %d unconnected node(s)\n", stats.Pruned)
	}
	fmt.Fprintln(w)

	counts := make(map[model.NodeType]int)
	for _, n := range g.Nodes() {
		t := n.Type
		if !t.Known() {
			t = model.NodeTypeUnknown
		}
		counts[t]++
	}

	bold.Fprintf(w, "Graph: %d nodes, %d edges\n", g.Len(), g.EdgeCount())
	blue.Fprintf(w, "  Models:       %d\n", counts[model.NodeTypeModel])
	yellow.Fprintf(w, "  Datasets:     %d\n", counts[model.NodeTypeDataset])
	red.Fprintf(w, "  Applications: %d\n", counts[model.NodeTypeApplication])
	fmt.Fprintf(w, "  Other:        %d\n", counts[model.NodeTypeUnknown])
	fmt.Fprintf(w, "Organizations: %d\n", len(g.Organizations()))
	fmt.Fprintln(w)

	components := g.Components()
	cyan.Fprintf(w, "Connected components: %d\n", len(components))
	for i, cc := range components {
		if i == maxComponentsListed {
			fmt.Fprintf(w, "  ... %d more\n", len(components)-maxComponentsListed)
			break
		}
		fmt.Fprintf(w, "  %d nodes (e.g. %s)\n", len(cc), cc[0])
	}

	fmt.Fprintln(w)

	// Hubs: highest degree first, ties in table order
	hubs := g.Nodes()
	sort.SliceStable(hubs, func(i, j int) bool {
		return g.Degree(hubs[i].ID) > g.Degree(hubs[j].ID)
	})
	if len(hubs) > maxHubsListed {
		hubs = hubs[:maxHubsListed]
	}
	cyan.Fprintln(w, "Most connected:")
	for _, n := range hubs {
		fmt.Fprintf(w, "  %s (%d links)\n", n.ID, g.Degree(n.ID))
	}
}
