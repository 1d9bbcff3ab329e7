// Package tables reads the node and edge tables the ecosystem graph is built from.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ritzau/fm-ecosystem/pkg/model"
)

// Table names used in errors
const (
	NodesTable = "nodes"
	EdgesTable = "edges"
)

// LoadError reports a required column missing from an input table
type LoadError struct {
	Table  string
	Column string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s table: missing required column %q", e.Table, e.Column)
}

// Dataset holds both input tables
type Dataset struct {
	Nodes []model.NodeRecord
	Edges []model.EdgeRecord
}

// header maps lower-cased column names to their index
type header map[string]int

// value returns the cell as stored
func (h header) value(row []string, column string) string {
	idx, ok := h[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// id returns an identifier cell with surrounding whitespace removed
func (h header) id(row []string, column string) string {
	return strings.TrimSpace(h.value(row, column))
}

// readTable parses CSV content and checks that every required column is present
func readTable(r io.Reader, table string, required ...string) (header, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		// No header at all: every required column is missing.
		if len(required) > 0 {
			return nil, nil, &LoadError{Table: table, Column: required[0]}
		}
		return header{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s header: %w", table, err)
	}

	h := make(header, len(first))
	for i, name := range first {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}

	for _, column := range required {
		if _, ok := h[column]; !ok {
			return nil, nil, &LoadError{Table: table, Column: column}
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s rows: %w", table, err)
	}
	return h, rows, nil
}

// ReadNodes parses the nodes table.
// Columns: name (required), organization, type, description. Others are ignored.
func ReadNodes(r io.Reader) ([]model.NodeRecord, error) {
	h, rows, err := readTable(r, NodesTable, "name")
	if err != nil {
		return nil, err
	}

	records := make([]model.NodeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.NodeRecord{
			Name:         h.id(row, "name"),
			Organization: h.value(row, "organization"),
			Type:         h.value(row, "type"),
			Description:  h.value(row, "description"),
		})
	}
	return records, nil
}

// ReadEdges parses the edges table. Columns: source, target (both required).
func ReadEdges(r io.Reader) ([]model.EdgeRecord, error) {
	h, rows, err := readTable(r, EdgesTable, "source", "target")
	if err != nil {
		return nil, err
	}

	records := make([]model.EdgeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.EdgeRecord{
			Source: h.id(row, "source"),
			Target: h.id(row, "target"),
		})
	}
	return records, nil
}

// Load reads both tables from disk
func Load(nodesPath, edgesPath string) (*Dataset, error) {
	nodes, err := readFile(nodesPath, ReadNodes)
	if err != nil {
		return nil, err
	}

	edges, err := readFile(edgesPath, ReadEdges)
	if err != nil {
		return nil, err
	}

	return &Dataset{Nodes: nodes, Edges: edges}, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	records, err := read(file)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return records, nil
}
