package query

import (
	"testing"

	"github.com/ritzau/fm-ecosystem/pkg/graph"
	"github.com/ritzau/fm-ecosystem/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(nodes []model.NodeRecord, pairs ...string) *graph.Graph {
	var recs []model.EdgeRecord
	for i := 0; i+1 < len(pairs); i += 2 {
		recs = append(recs, model.EdgeRecord{Source: pairs[i], Target: pairs[i+1]})
	}
	return graph.Build(recs, nodes)
}

func ids(r Result) []string {
	var out []string
	for _, n := range r.Nodes {
		out = append(out, n.ID)
	}
	return out
}

func matched(r Result) map[string]bool {
	out := make(map[string]bool)
	for _, n := range r.Nodes {
		out[n.ID] = n.Matched
	}
	return out
}

func TestExpandEmptySelectionReturnsWholeGraph(t *testing.T) {
	g := buildGraph(nil, "A", "B", "B", "C", "X", "Y")

	r := Expand(g, Selection{})

	assert.Equal(t, []string{"A", "B", "C", "X", "Y"}, ids(r))
	assert.Equal(t, g.Edges(), r.Edges)
	for _, n := range r.Nodes {
		assert.False(t, n.Matched, "node %s", n.ID)
	}
}

func TestExpandTwoHops(t *testing.T) {
	g := buildGraph(nil, "N", "A", "A", "C", "N", "B")

	r := Expand(g, Selection{Names: []string{"N"}})

	assert.ElementsMatch(t, []string{"N", "A", "B", "C"}, ids(r))
	assert.Len(t, r.Edges, 3)
	assert.Equal(t, map[string]bool{"N": true, "A": false, "B": false, "C": false}, matched(r))
}

func TestExpandStopsAtTwoHops(t *testing.T) {
	// Path N - A - B - C - D: D is three hops away.
	g := buildGraph(nil, "N", "A", "A", "B", "B", "C", "C", "D")

	r := Expand(g, Selection{Names: []string{"N"}})

	assert.Equal(t, []string{"N", "A", "B"}, ids(r))
	assert.Equal(t, []model.Edge{{Source: "N", Target: "A"}, {Source: "A", Target: "B"}}, r.Edges)
}

func TestExpandEarlyExit(t *testing.T) {
	g := buildGraph(nil, "N", "A", "X", "Y")

	r := Expand(g, Selection{Names: []string{"N"}})

	assert.Equal(t, []string{"N", "A"}, ids(r))
	assert.Equal(t, []model.Edge{{Source: "N", Target: "A"}}, r.Edges)
}

func TestExpandInducedEdges(t *testing.T) {
	// Triangle around the seed plus an edge between two 2-hop nodes.
	g := buildGraph(nil, "N", "A", "N", "B", "A", "B", "A", "C", "B", "D", "C", "D", "D", "E")

	r := Expand(g, Selection{Names: []string{"N"}})

	assert.ElementsMatch(t, []string{"N", "A", "B", "C", "D"}, ids(r))
	assert.Contains(t, r.Edges, model.Edge{Source: "A", Target: "B"})
	assert.Contains(t, r.Edges, model.Edge{Source: "C", Target: "D"})
	assert.NotContains(t, r.Edges, model.Edge{Source: "D", Target: "E"})
	for _, e := range r.Edges {
		assert.NotEqual(t, "E", e.Target)
	}
}

func TestExpandByOrganization(t *testing.T) {
	nodes := []model.NodeRecord{
		{Name: "GPT-4", Organization: "OpenAI", Type: "model"},
		{Name: "Whisper", Organization: "OpenAI", Type: "model"},
		{Name: "LLaMA", Organization: "Meta", Type: "model"},
	}
	g := buildGraph(nodes, "GPT-4", "ChatGPT", "Whisper", "Audio", "LLaMA", "Alpaca")

	r := Expand(g, Selection{Organizations: []string{"OpenAI"}})

	assert.ElementsMatch(t, []string{"GPT-4", "ChatGPT", "Whisper", "Audio"}, ids(r))
	m := matched(r)
	assert.True(t, m["GPT-4"])
	assert.True(t, m["Whisper"])
	assert.False(t, m["ChatGPT"])
}

func TestExpandFiltersIntersect(t *testing.T) {
	nodes := []model.NodeRecord{
		{Name: "GPT-4", Organization: "OpenAI"},
		{Name: "LLaMA", Organization: "Meta"},
	}
	g := buildGraph(nodes, "GPT-4", "ChatGPT", "LLaMA", "Alpaca")

	r := Expand(g, Selection{Names: []string{"LLaMA"}, Organizations: []string{"OpenAI"}})
	assert.Empty(t, r.Nodes)
	assert.Empty(t, r.Edges)

	r = Expand(g, Selection{Names: []string{"LLaMA", "GPT-4"}, Organizations: []string{"OpenAI"}})
	assert.ElementsMatch(t, []string{"GPT-4", "ChatGPT"}, ids(r))
	assert.True(t, matched(r)["GPT-4"])
}

func TestExpandUnknownSelection(t *testing.T) {
	g := buildGraph(nil, "A", "B")

	r := Expand(g, Selection{Names: []string{"nope"}, Organizations: []string{"nobody"}})

	assert.Empty(t, r.Nodes)
	assert.NotNil(t, r.Edges)
	assert.Empty(t, r.Edges)
}

func TestExpandEmptyGraph(t *testing.T) {
	r := Expand(graph.Empty(), Selection{})
	assert.Empty(t, r.Nodes)
	assert.Empty(t, r.Edges)

	r = Expand(graph.Empty(), Selection{Names: []string{"A"}})
	assert.Empty(t, r.Nodes)
}

func TestExpandIsIdempotent(t *testing.T) {
	g := buildGraph(nil, "N", "A", "A", "C", "N", "B", "C", "D")
	sel := Selection{Names: []string{"N", "D"}}

	first := Expand(g, sel)
	second := Expand(g, sel)

	require.Equal(t, first, second)
}

func TestSeeds(t *testing.T) {
	nodes := []model.NodeRecord{{Name: "A", Organization: "Org"}}
	g := buildGraph(nodes, "A", "B")

	assert.Equal(t, map[string]bool{"A": true, "B": true}, Seeds(g, Selection{}))
	assert.Equal(t, map[string]bool{"A": true}, Seeds(g, Selection{Organizations: []string{"Org"}}))
	assert.Empty(t, Seeds(g, Selection{Organizations: []string{""}, Names: []string{"A"}}))
}
