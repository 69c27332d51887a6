package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the viewer's Prometheus instruments on a private registry
// so tests can create collectors freely without duplicate registration.
type Collector struct {
	registry *prometheus.Registry

	FramesStepped     prometheus.Counter
	SnapshotsApplied  prometheus.Counter
	HyperedgesDropped prometheus.Counter
	WSClients         prometheus.Gauge
	BackendRequests   *prometheus.CounterVec
	Adjustments       *prometheus.CounterVec
}

// New creates a collector with all instruments registered
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		FramesStepped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crossdebate",
			Subsystem: "viewer",
			Name:      "frames_stepped_total",
			Help:      "Simulation steps executed.",
		}),
		SnapshotsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crossdebate",
			Subsystem: "viewer",
			Name:      "snapshots_applied_total",
			Help:      "Hypergraph snapshots accepted and rendered.",
		}),
		HyperedgesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crossdebate",
			Subsystem: "viewer",
			Name:      "hyperedges_dropped_total",
			Help:      "Hyperedges discarded during snapshot validation.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crossdebate",
			Subsystem: "viewer",
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crossdebate",
			Subsystem: "viewer",
			Name:      "backend_requests_total",
			Help:      "Backend API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crossdebate",
			Subsystem: "viewer",
			Name:      "adjustments_total",
			Help:      "Adjustment submissions by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		c.FramesStepped,
		c.SnapshotsApplied,
		c.HyperedgesDropped,
		c.WSClients,
		c.BackendRequests,
		c.Adjustments,
	)

	return c
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
