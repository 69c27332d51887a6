// Package poller refreshes the metrics and insights panels. The two
// endpoints are fetched concurrently and fail independently: one panel
// showing an error never blanks the other.
package poller

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CrossDebate/app/backend/internal/hotapi"
	"github.com/CrossDebate/app/backend/pkg/logger"
)

// Backend is the slice of the API client the poller needs
type Backend interface {
	Metrics(ctx context.Context) (*hotapi.Metrics, error)
	Insights(ctx context.Context) ([]string, error)
}

// Result carries both panels' outcomes. Each side is either a value or an
// error; the session turns them into per-panel messages.
type Result struct {
	Metrics     *hotapi.Metrics
	MetricsErr  error
	Insights    []string
	InsightsErr error
}

// Poller fetches panel data after hypergraph updates
type Poller struct {
	backend Backend
	logger  *zap.Logger
}

// New creates a poller over the given backend client
func New(backend Backend) *Poller {
	return &Poller{
		backend: backend,
		logger:  logger.Named("poller"),
	}
}

// Fetch retrieves metrics and insights concurrently. Errors are captured
// per panel, never returned, so a metrics failure cannot cancel the
// insights fetch or vice versa.
func (p *Poller) Fetch(ctx context.Context) Result {
	var result Result

	var g errgroup.Group
	g.Go(func() error {
		result.Metrics, result.MetricsErr = p.backend.Metrics(ctx)
		if result.MetricsErr != nil {
			p.logger.Warn("Metrics fetch failed", zap.Error(result.MetricsErr))
		}
		return nil
	})
	g.Go(func() error {
		result.Insights, result.InsightsErr = p.backend.Insights(ctx)
		if result.InsightsErr != nil {
			p.logger.Warn("Insights fetch failed", zap.Error(result.InsightsErr))
		}
		return nil
	})
	_ = g.Wait()

	return result
}
