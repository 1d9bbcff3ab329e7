package elements

// CytoscapeElement is an element in Cytoscape.js format
type CytoscapeElement struct {
	Group string        `json:"group"` // "nodes" or "edges"
	Data  CytoscapeData `json:"data"`
}

// CytoscapeData carries the fields the stylesheet reads via data(...).
// Description is always present on nodes, even when empty. Edges carry no
// id: node and edge ids share one namespace in Cytoscape, and any id derived
// from the endpoint names can collide with a node name, so Cytoscape assigns its own.
type CytoscapeData struct {
	ID          string  `json:"id,omitempty"`
	Label       string  `json:"label,omitempty"`
	Color       string  `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
	Source      string  `json:"source,omitempty"`
	Target      string  `json:"target,omitempty"`
}

// ToCytoscape converts encoded elements to the Cytoscape.js element list
func ToCytoscape(elems []Element) []CytoscapeElement {
	out := make([]CytoscapeElement, 0, len(elems))
	for _, e := range elems {
		switch e.Kind {
		case KindNode:
			description := e.Description
			out = append(out, CytoscapeElement{
				Group: "nodes",
				Data: CytoscapeData{
					ID:          e.ID,
					Label:       e.Label,
					Color:       e.Color,
					Description: &description,
				},
			})
		case KindEdge:
			out = append(out, CytoscapeElement{
				Group: "edges",
				Data: CytoscapeData{
					Source: e.Source,
					Target: e.Target,
				},
			})
		}
	}
	return out
}
