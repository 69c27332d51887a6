package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hotapi"
	"github.com/CrossDebate/app/backend/internal/hub"
	"github.com/CrossDebate/app/backend/internal/hypergraph"
	"github.com/CrossDebate/app/backend/internal/session"
	"github.com/CrossDebate/app/backend/pkg/metrics"
)

// stubBackend satisfies the session's backend interface without a server.
type stubBackend struct{}

func (stubBackend) CurrentHypergraph(ctx context.Context) (*hypergraph.RawSnapshot, error) {
	return &hypergraph.RawSnapshot{
		Nodes: []hypergraph.RawNode{},
		Edges: []hypergraph.RawEdge{},
	}, nil
}

func (stubBackend) Metrics(ctx context.Context) (*hotapi.Metrics, error) {
	return &hotapi.Metrics{}, nil
}

func (stubBackend) Insights(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (stubBackend) SubmitAdjustment(ctx context.Context, adj hotapi.Adjustment) (*hotapi.AdjustResult, error) {
	return &hotapi.AdjustResult{}, nil
}

func newViewerTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	collector := metrics.New()
	sink := &eventSink{}
	h := hub.New(sink, collector)
	sess := session.New(session.Config{}, stubBackend{}, h, collector)
	sink.sess = sess

	return newRouter(sess, h, collector, zap.NewNop())
}

func TestViewerPageServed(t *testing.T) {
	router := newViewerTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Hypergraph of Thoughts")
	assert.Contains(t, w.Body.String(), `id="graph-canvas"`)
}

func TestRefreshEndpoint(t *testing.T) {
	router := newViewerTestRouter(t)

	t.Run("empty body schedules a fetch", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/refresh", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "refresh scheduled")
	})

	t.Run("snapshot body is queued directly", func(t *testing.T) {
		body := []byte(`{"nodes":[{"id":"n1","label":"claim"}],"edges":[]}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/refresh", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "snapshot queued")
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/refresh", strings.NewReader(`{"nodes":`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExportEndpoint(t *testing.T) {
	router := newViewerTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/export", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := newViewerTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "crossdebate_viewer_frames_stepped_total")
}
