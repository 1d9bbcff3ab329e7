package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/fm-ecosystem/pkg/elements"
	"github.com/ritzau/fm-ecosystem/pkg/graph"
	"github.com/ritzau/fm-ecosystem/pkg/model"
	"github.com/ritzau/fm-ecosystem/pkg/pubsub"
	"github.com/ritzau/fm-ecosystem/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *graph.Store {
	return graph.NewStore(graph.Build(
		[]model.EdgeRecord{
			{Source: "N", Target: "A"},
			{Source: "A", Target: "C"},
			{Source: "N", Target: "B"},
			{Source: "X", Target: "Y"},
		},
		[]model.NodeRecord{
			{Name: "N", Organization: "OrgN", Type: "dataset", Description: "seed"},
			{Name: "A", Organization: "OrgA", Type: "model", Description: ""},
			{Name: "X", Organization: "OrgX", Type: "application"},
		},
	))
}

func get(t *testing.T, s *Server, url string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if v != nil {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	}
	return rec
}

func TestElementsEmptySelection(t *testing.T) {
	s := NewServer(testStore())

	var elems []elements.CytoscapeElement
	get(t, s, "/api/elements", &elems)

	var nodes, edges int
	for _, e := range elems {
		switch e.Group {
		case "nodes":
			nodes++
			assert.NotEqual(t, elements.ColorHighlight, e.Data.Color)
		case "edges":
			edges++
		}
	}
	assert.Equal(t, 6, nodes)
	assert.Equal(t, 4, edges)
}

func TestElementsByName(t *testing.T) {
	s := NewServer(testStore())

	var elems []elements.CytoscapeElement
	get(t, s, "/api/elements?name=N&name=", &elems)

	colors := make(map[string]string)
	var edges int
	for _, e := range elems {
		if e.Group == "nodes" {
			colors[e.Data.ID] = e.Data.Color
		} else {
			edges++
		}
	}
	assert.Equal(t, map[string]string{
		"N": elements.ColorHighlight,
		"A": elements.ColorModel,
		"B": elements.ColorUnknown,
		"C": elements.ColorUnknown,
	}, colors)
	assert.Equal(t, 3, edges)
}

func TestElementsByOrganization(t *testing.T) {
	s := NewServer(testStore())

	var elems []elements.CytoscapeElement
	get(t, s, "/api/elements?organization=OrgX", &elems)

	require.Len(t, elems, 3)
	assert.Equal(t, "X", elems[0].Data.ID)
	assert.Equal(t, elements.ColorHighlight, elems[0].Data.Color)
	assert.Equal(t, "edges", elems[2].Group)
}

func TestDescribe(t *testing.T) {
	s := NewServer(testStore())

	tests := []struct {
		url  string
		want string
	}{
		{url: "/api/describe", want: query.PromptText},
		{url: "/api/describe?id=N", want: "seed"},
		{url: "/api/describe?id=A", want: ""},
		{url: "/api/describe?id=missing", want: query.NoDescriptionText},
	}

	for _, tt := range tests {
		var resp DescriptionResponse
		get(t, s, tt.url, &resp)
		assert.Equal(t, tt.want, resp.Text, tt.url)
	}
}

func TestListings(t *testing.T) {
	s := NewServer(testStore())

	var names []string
	get(t, s, "/api/names", &names)
	assert.Equal(t, []string{"A", "B", "C", "N", "X", "Y"}, names)

	var orgs []string
	get(t, s, "/api/organizations", &orgs)
	assert.Equal(t, []string{"OrgA", "OrgN", "OrgX"}, orgs)
}

func TestStats(t *testing.T) {
	s := NewServer(testStore())

	var stats StatsResponse
	get(t, s, "/api/graph/stats", &stats)
	assert.Equal(t, uint64(1), stats.Version)
	assert.Equal(t, 6, stats.Nodes)
	assert.Equal(t, 4, stats.Edges)
	assert.Equal(t, 2, stats.Components)
}

func TestQueriesFollowReload(t *testing.T) {
	store := testStore()
	s := NewServer(store)

	require.NoError(t, store.Reload(func() (*graph.Graph, error) {
		return graph.Build([]model.EdgeRecord{{Source: "P", Target: "Q"}}, nil), nil
	}))

	var names []string
	get(t, s, "/api/names", &names)
	assert.Equal(t, []string{"P", "Q"}, names)

	var resp DescriptionResponse
	get(t, s, "/api/describe?id=N", &resp)
	assert.Equal(t, query.NoDescriptionText, resp.Text)
}

func TestUnknownPath(t *testing.T) {
	s := NewServer(testStore())

	rec := get(t, s, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticIndex(t *testing.T) {
	s := NewServer(testStore())

	rec := get(t, s, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "network-graph")
}

func TestSubscribeGraphStatus(t *testing.T) {
	s := NewServer(testStore())
	require.NoError(t, s.PublishGraphStatus(pubsub.EventLoaded, "startup"))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/subscribe/graph_status", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}

	var event pubsub.Event
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, pubsub.EventLoaded, event.Type)

	var status pubsub.GraphStatus
	require.NoError(t, json.Unmarshal(event.Data, &status))
	assert.Equal(t, 6, status.Nodes)
	assert.Equal(t, "startup", status.Message)
}
