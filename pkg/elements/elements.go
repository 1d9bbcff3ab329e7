// Package elements turns expansion results into the flat element list the UI draws.
package elements

import (
	"encoding/json"

	"github.com/ritzau/fm-ecosystem/pkg/model"
	"github.com/ritzau/fm-ecosystem/pkg/query"
)

// Display colours
const (
	ColorHighlight   = "green"
	ColorModel       = "blue"
	ColorDataset     = "yellow"
	ColorApplication = "red"
	ColorUnknown     = "gray"
)

// Kind distinguishes node elements from edge elements
type Kind string

const (
	KindNode Kind = "node"
	KindEdge Kind = "edge"
)

// Element is one node or edge of the rendered graph
type Element struct {
	Kind Kind `json:"kind"`

	// Node fields
	ID          string `json:"id,omitempty"`
	Label       string `json:"label,omitempty"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`

	// Edge fields
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

type nodeJSON struct {
	Kind        Kind   `json:"kind"`
	ID          string `json:"id"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type edgeJSON struct {
	Kind   Kind   `json:"kind"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// MarshalJSON writes nodes as {kind,id,label,color,description} and edges as
// {kind,source,target}. An empty description is still written.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.Kind == KindEdge {
		return json.Marshal(edgeJSON{Kind: e.Kind, Source: e.Source, Target: e.Target})
	}
	return json.Marshal(nodeJSON{
		Kind:        e.Kind,
		ID:          e.ID,
		Label:       e.Label,
		Color:       e.Color,
		Description: e.Description,
	})
}

// ColorFor picks the display colour of a node. A match highlight beats the type colour.
func ColorFor(node query.MatchedNode) string {
	if node.Matched {
		return ColorHighlight
	}
	switch node.Type {
	case model.NodeTypeModel:
		return ColorModel
	case model.NodeTypeDataset:
		return ColorDataset
	case model.NodeTypeApplication:
		return ColorApplication
	default:
		return ColorUnknown
	}
}

// Encode lists every node of the result followed by every edge, in result order
func Encode(result query.Result) []Element {
	out := make([]Element, 0, len(result.Nodes)+len(result.Edges))

	for _, node := range result.Nodes {
		out = append(out, Element{
			Kind:        KindNode,
			ID:          node.ID,
			Label:       node.ID,
			Color:       ColorFor(node),
			Description: node.Description,
		})
	}

	for _, edge := range result.Edges {
		out = append(out, Element{
			Kind:   KindEdge,
			Source: edge.Source,
			Target: edge.Target,
		})
	}

	return out
}
