package graph

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store publishes the current graph snapshot.
// Readers call Current once per query and work on that snapshot; Reload
// builds a replacement off to the side and swaps it in with a single store.
type Store struct {
	current atomic.Pointer[Graph]
	version atomic.Uint64
	mu      sync.Mutex // serializes reloads
}

// NewStore creates a store serving g. A nil g is served as an empty graph.
func NewStore(g *Graph) *Store {
	if g == nil {
		g = Empty()
	}
	s := &Store{}
	s.current.Store(g)
	s.version.Store(1)
	return s
}

// Current returns the published snapshot
func (s *Store) Current() *Graph {
	return s.current.Load()
}

// Version returns a counter that increases with every successful swap
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Reload runs build and, if it succeeds, publishes the result.
// On failure the previous snapshot remains published.
func (s *Store) Reload(build func() (*Graph, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := build()
	if err != nil {
		return err
	}
	if g == nil {
		return fmt.Errorf("reload produced no graph")
	}

	s.current.Store(g)
	s.version.Add(1)
	return nil
}
