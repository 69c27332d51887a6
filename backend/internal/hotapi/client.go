// Package hotapi is the viewer's client for the hypergraph analysis
// backend: the current snapshot, the metrics and insights panels, and
// adjustment submissions. The backend is treated as an opaque authority;
// nothing here mutates local state.
package hotapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
	apperrors "github.com/CrossDebate/app/backend/pkg/errors"
	"github.com/CrossDebate/app/backend/pkg/logger"
	"github.com/CrossDebate/app/backend/pkg/metrics"
)

// Operation names used in logs and request counters
const (
	OpCurrent  = "current"
	OpMetrics  = "metrics"
	OpInsights = "insights"
	OpAdjust   = "adjust"
)

// Client calls the backend's hypergraph API. Every user action maps to at
// most one request; there are no automatic retries. A circuit breaker makes
// the viewer fail fast while the backend is unreachable.
type Client struct {
	baseURL   string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewClient creates a client with a defensive request timeout. The
// collector may be nil in tests.
func NewClient(baseURL string, timeout time.Duration, collector *metrics.Collector) *Client {
	log := logger.Named("hotapi")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "hot-backend",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Backend circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Only transport-level failures trip the breaker. A response,
		// even a 4xx/5xx, means the backend is reachable.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if failed, ok := err.(*apperrors.ErrAPIRequestFailed); ok {
				return failed.StatusCode != 0
			}
			if _, ok := err.(*apperrors.ErrAdjustRejected); ok {
				return true
			}
			return false
		},
	})

	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
		breaker:   breaker,
		collector: collector,
		logger:    log,
	}
}

// Metrics is the backend's aggregate view of the hypergraph. The decoder
// accepts both the current key names and the legacy graph_-prefixed ones.
type Metrics struct {
	NodeCount        int     `json:"node_count"`
	EdgeCount        int     `json:"edge_count"`
	AvgHyperedgeSize float64 `json:"avg_hyperedge_size"`
	AvgNodeDegree    float64 `json:"avg_node_degree"`
	Density          float64 `json:"density"`
	AvgCentrality    float64 `json:"avg_centrality"`
}

// UnmarshalJSON implements the tolerant metric key decoding
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var aux struct {
		NodeCount          int      `json:"node_count"`
		EdgeCount          int      `json:"edge_count"`
		AvgHyperedgeSize   float64  `json:"avg_hyperedge_size"`
		AvgNodeDegree      float64  `json:"avg_node_degree"`
		Density            *float64 `json:"density"`
		GraphDensity       *float64 `json:"graph_density"`
		AvgCentrality      *float64 `json:"avg_centrality"`
		AvgGraphCentrality *float64 `json:"avg_graph_centrality"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.NodeCount = aux.NodeCount
	m.EdgeCount = aux.EdgeCount
	m.AvgHyperedgeSize = aux.AvgHyperedgeSize
	m.AvgNodeDegree = aux.AvgNodeDegree
	switch {
	case aux.Density != nil:
		m.Density = *aux.Density
	case aux.GraphDensity != nil:
		m.Density = *aux.GraphDensity
	}
	switch {
	case aux.AvgCentrality != nil:
		m.AvgCentrality = *aux.AvgCentrality
	case aux.AvgGraphCentrality != nil:
		m.AvgCentrality = *aux.AvgGraphCentrality
	}
	return nil
}

// Adjustment is a relevance or weight change for one element. Exactly one
// of NewRelevance/NewWeight is set.
type Adjustment struct {
	ElementID    string   `json:"element_id"`
	ElementType  string   `json:"element_type"` // "node" or "edge"
	NewRelevance *float64 `json:"new_relevance,omitempty"`
	NewWeight    *float64 `json:"new_weight,omitempty"`
}

// AdjustResult is the backend's acknowledgement of an applied adjustment
type AdjustResult struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	ElementID   string  `json:"element_id"`
	ElementType string  `json:"element_type"`
	NewValue    float64 `json:"new_value"`
}

// CurrentHypergraph fetches the authoritative hypergraph state
func (c *Client) CurrentHypergraph(ctx context.Context) (*hypergraph.RawSnapshot, error) {
	var raw hypergraph.RawSnapshot
	if err := c.getJSON(ctx, OpCurrent, "/api/hot/current", &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// Metrics fetches the backend's aggregate metrics
func (c *Client) Metrics(ctx context.Context) (*Metrics, error) {
	var m Metrics
	if err := c.getJSON(ctx, OpMetrics, "/api/hot/metrics", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Insights fetches the backend's generated insight lines
func (c *Client) Insights(ctx context.Context) ([]string, error) {
	var resp struct {
		Insights []string `json:"insights"`
	}
	if err := c.getJSON(ctx, OpInsights, "/api/hot/insights", &resp); err != nil {
		return nil, err
	}
	return resp.Insights, nil
}

// SubmitAdjustment posts one adjustment. A non-2xx response comes back as
// an ErrAdjustRejected carrying the backend's own message.
func (c *Client) SubmitAdjustment(ctx context.Context, adj Adjustment) (*AdjustResult, error) {
	body, err := json.Marshal(adj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode adjustment: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/hot/adjust", bytes.NewReader(body))
		if err != nil {
			return nil, apperrors.NewAPIRequestFailed(OpAdjust, 0, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperrors.NewAPIRequestFailed(OpAdjust, 0, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.NewAPIRequestFailed(OpAdjust, resp.StatusCode, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg := serverMessage(data)
			if msg == "" {
				msg = fmt.Sprintf("backend returned status %d", resp.StatusCode)
			}
			return nil, apperrors.NewAdjustRejected(adj.ElementID, adj.ElementType, resp.StatusCode, msg)
		}

		var ack AdjustResult
		if err := json.Unmarshal(data, &ack); err != nil {
			return nil, apperrors.NewAPIRequestFailed(OpAdjust, resp.StatusCode, err)
		}
		return &ack, nil
	})
	c.count(OpAdjust, err)
	if err != nil {
		return nil, c.classify(OpAdjust, err)
	}
	return result.(*AdjustResult), nil
}

// getJSON performs one GET through the breaker and decodes the response
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, apperrors.NewAPIRequestFailed(op, 0, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperrors.NewAPIRequestFailed(op, 0, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.NewAPIRequestFailed(op, resp.StatusCode, err)
		}

		if resp.StatusCode != http.StatusOK {
			msg := serverMessage(data)
			if msg != "" {
				return nil, apperrors.NewAPIRequestFailed(op, resp.StatusCode, fmt.Errorf("%s", msg))
			}
			return nil, apperrors.NewAPIRequestFailed(op, resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
		}

		if err := json.Unmarshal(data, out); err != nil {
			return nil, apperrors.NewAPIRequestFailed(op, resp.StatusCode, fmt.Errorf("invalid response body: %w", err))
		}
		return nil, nil
	})
	c.count(op, err)
	if err != nil {
		return c.classify(op, err)
	}
	return nil
}

// classify maps breaker sentinel errors to the API taxonomy and logs
func (c *Client) classify(op string, err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		c.logger.Warn("Backend call refused by circuit breaker", zap.String("operation", op))
		return apperrors.NewAPIUnavailable(op, err)
	}
	c.logger.Warn("Backend call failed", zap.String("operation", op), zap.Error(err))
	return err
}

func (c *Client) count(op string, err error) {
	if c.collector == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.collector.BackendRequests.WithLabelValues(op, outcome).Inc()
}

// serverMessage pulls the human-readable error out of a failure body. The
// backend uses {"error": ...}; FastAPI-style {"detail": ...} is accepted
// for compatibility with the original service.
func serverMessage(body []byte) string {
	var payload struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return detail
		}
	}
	return ""
}
