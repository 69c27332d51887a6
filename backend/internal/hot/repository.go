package hot

import (
	"context"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
)

// Repository is the durability layer behind the hypergraph service. The
// service keeps the authoritative state in memory; a repository only has to
// replay it across restarts.
type Repository interface {
	// Load returns every persisted node and hyperedge.
	Load(ctx context.Context) ([]hypergraph.Node, []hypergraph.Hyperedge, error)
	// SaveNode upserts a single node.
	SaveNode(ctx context.Context, node hypergraph.Node) error
	// SaveHyperedge upserts a single hyperedge and its membership links.
	SaveHyperedge(ctx context.Context, edge hypergraph.Hyperedge) error
	// SetRelevance updates the stored relevance of a node.
	SetRelevance(ctx context.Context, nodeID string, value float64) error
	// SetWeight updates the stored weight of a hyperedge.
	SetWeight(ctx context.Context, edgeID string, value float64) error
	// Clear removes all persisted nodes and hyperedges.
	Clear(ctx context.Context) error
	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// NoopRepository discards every write and loads nothing. It backs the
// service when no graph database is configured.
type NoopRepository struct{}

func NewNoopRepository() *NoopRepository {
	return &NoopRepository{}
}

func (NoopRepository) Load(ctx context.Context) ([]hypergraph.Node, []hypergraph.Hyperedge, error) {
	return nil, nil, nil
}

func (NoopRepository) SaveNode(ctx context.Context, node hypergraph.Node) error { return nil }

func (NoopRepository) SaveHyperedge(ctx context.Context, edge hypergraph.Hyperedge) error {
	return nil
}

func (NoopRepository) SetRelevance(ctx context.Context, nodeID string, value float64) error {
	return nil
}

func (NoopRepository) SetWeight(ctx context.Context, edgeID string, value float64) error {
	return nil
}

func (NoopRepository) Clear(ctx context.Context) error { return nil }

func (NoopRepository) Close(ctx context.Context) error { return nil }
