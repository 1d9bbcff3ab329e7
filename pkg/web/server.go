package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/ritzau/fm-ecosystem/pkg/elements"
	"github.com/ritzau/fm-ecosystem/pkg/graph"
	"github.com/ritzau/fm-ecosystem/pkg/logging"
	"github.com/ritzau/fm-ecosystem/pkg/pubsub"
	"github.com/ritzau/fm-ecosystem/pkg/query"
)

//go:embed static/*
var staticFiles embed.FS

// DescriptionResponse is the body of /api/describe
type DescriptionResponse struct {
	Text string `json:"text"`
}

// StatsResponse is the body of /api/graph/stats
type StatsResponse struct {
	Version       uint64           `json:"version"`
	Nodes         int              `json:"nodes"`
	Edges         int              `json:"edges"`
	Organizations int              `json:"organizations"`
	Components    int              `json:"components"`
	Build         graph.BuildStats `json:"build"`
}

// Server serves the ecosystem map and its query API
type Server struct {
	router    *mux.Router
	store     *graph.Store
	publisher pubsub.Publisher

	mu   sync.Mutex
	http *http.Server
}

// NewServer creates a web server answering queries from store
func NewServer(store *graph.Store) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// New subscribers only need the latest status
	ssePublisher.ConfigureTopic(pubsub.TopicGraphStatus, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		store:     store,
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// PublishGraphStatus announces the current snapshot on the graph_status topic
func (s *Server) PublishGraphStatus(eventType, message string) error {
	g := s.store.Current()
	status := pubsub.GraphStatus{
		Version: s.store.Version(),
		Nodes:   g.Len(),
		Edges:   g.EdgeCount(),
		Message: message,
	}
	return s.publisher.Publish(pubsub.TopicGraphStatus, eventType, status)
}

// Handler returns the HTTP handler with logging middleware applied
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/graph_status", s.handleSubscribeGraphStatus).Methods("GET")

	s.router.HandleFunc("/api/elements", s.handleElements).Methods("GET")
	s.router.HandleFunc("/api/describe", s.handleDescribe).Methods("GET")
	s.router.HandleFunc("/api/names", s.handleNames).Methods("GET")
	s.router.HandleFunc("/api/organizations", s.handleOrganizations).Methods("GET")
	s.router.HandleFunc("/api/graph/stats", s.handleStats).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "failed to encode response", "error", err)
	}
}

// nonEmpty drops blank values, which a cleared dropdown may still send
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := query.Selection{
		Names:         nonEmpty(q["name"]),
		Organizations: nonEmpty(q["organization"]),
	}

	g := s.store.Current()
	result := query.Expand(g, sel)
	logging.DebugContext(r.Context(), "expanded selection",
		"names", len(sel.Names),
		"organizations", len(sel.Organizations),
		"nodes", len(result.Nodes),
		"edges", len(result.Edges),
	)

	writeJSON(w, r, elements.ToCytoscape(elements.Encode(result)))
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var ref *query.NodeRef
	if ids, ok := r.URL.Query()["id"]; ok && len(ids) > 0 {
		ref = &query.NodeRef{ID: ids[0]}
	}

	writeJSON(w, r, DescriptionResponse{Text: query.Describe(s.store.Current(), ref)})
}

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.store.Current().NodeIDs())
}

func (s *Server) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.store.Current().Organizations())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	version := s.store.Version()
	g := s.store.Current()
	writeJSON(w, r, StatsResponse{
		Version:       version,
		Nodes:         g.Len(),
		Edges:         g.EdgeCount(),
		Organizations: len(g.Organizations()),
		Components:    len(g.Components()),
		Build:         g.Stats(),
	})
}

func (s *Server) handleSubscribeGraphStatus(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicGraphStatus)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Initial comment establishes the stream (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.WarnContext(r.Context(), "error writing SSE event", "error", err)
			return
		}
		flusher.Flush()
	}
}

// Start listens on port and serves until Shutdown is called
func (s *Server) Start(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown closes open event streams and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	_ = s.publisher.Close()

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
