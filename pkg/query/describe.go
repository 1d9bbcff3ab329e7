package query

import "github.com/ritzau/fm-ecosystem/pkg/graph"

const (
	// PromptText is shown before any node has been clicked
	PromptText = "Click on a node to see its description."
	// NoDescriptionText is shown for a node that is not in the current graph
	NoDescriptionText = "No description available"
)

// NodeRef identifies a clicked node
type NodeRef struct {
	ID string `json:"id"`
}

// Describe returns the stored description of ref. A nil ref yields the
// prompt text. An empty stored description is returned as is.
func Describe(g *graph.Graph, ref *NodeRef) string {
	if ref == nil {
		return PromptText
	}

	node, ok := g.Node(ref.ID)
	if !ok {
		return NoDescriptionText
	}
	return node.Description
}
