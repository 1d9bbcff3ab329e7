package model

// NodeType is the kind of ecosystem entity a node represents
type NodeType string

const (
	NodeTypeModel       NodeType = "model"
	NodeTypeDataset     NodeType = "dataset"
	NodeTypeApplication NodeType = "application"
	NodeTypeUnknown     NodeType = "" // absent in the node table
)

// Known reports whether t is one of the three recognised entity types.
// Values outside that set are kept verbatim on the node but render as unknown.
func (t NodeType) Known() bool {
	switch t {
	case NodeTypeModel, NodeTypeDataset, NodeTypeApplication:
		return true
	}
	return false
}

// Node is an ecosystem entity. ID is the entity name.
type Node struct {
	ID           string   `json:"id"`
	Organization string   `json:"organization,omitempty"`
	Type         NodeType `json:"type,omitempty"`
	Description  string   `json:"description"`
}

// Edge is an unordered provenance link between two entities.
// Source and Target keep the orientation of the first row that introduced it.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeRecord is one row of the nodes table
type NodeRecord struct {
	Name         string
	Organization string
	Type         string
	Description  string
}

// EdgeRecord is one row of the edges table
type EdgeRecord struct {
	Source string
	Target string
}
