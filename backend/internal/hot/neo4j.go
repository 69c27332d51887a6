package hot

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
	"github.com/CrossDebate/app/backend/pkg/logger"
)

// Neo4jRepository persists the hypergraph to Neo4j. Thoughts and hyperedges
// are stored as labelled nodes, with a CONNECTS relationship from each
// hyperedge to its members. Attrs are process-local and are not persisted.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jRepository creates a repository over an already connected driver.
func NewNeo4jRepository(driver neo4j.DriverWithContext) *Neo4jRepository {
	return &Neo4jRepository{
		driver: driver,
		logger: logger.Get().Named("neo4j"),
	}
}

// Close closes the Neo4j driver connection.
func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Load retrieves every persisted thought and hyperedge.
func (r *Neo4jRepository) Load(ctx context.Context) ([]hypergraph.Node, []hypergraph.Hyperedge, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	nodeQuery := `
		MATCH (t:Thought)
		RETURN
			t.id as id,
			t.label as label,
			t.kind as kind,
			t.relevance as relevance,
			t.model_source as model_source,
			t.timestamp as timestamp
		ORDER BY t.timestamp, t.id
	`

	result, err := session.Run(ctx, nodeQuery, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load thoughts: %w", err)
	}

	var nodes []hypergraph.Node
	for result.Next(ctx) {
		record := result.Record()
		id := getString(record, "id", "")
		if id == "" {
			continue
		}
		nodes = append(nodes, hypergraph.Node{
			ID:          id,
			Label:       getString(record, "label", ""),
			Kind:        getString(record, "kind", hypergraph.NodeKindThought),
			Relevance:   getFloat64(record, "relevance", 0),
			ModelSource: getString(record, "model_source", ""),
			Timestamp:   getString(record, "timestamp", ""),
		})
	}
	if err := result.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read thoughts: %w", err)
	}

	edgeQuery := `
		MATCH (h:Hyperedge)
		RETURN
			h.id as id,
			h.members as members,
			h.kind as kind,
			h.weight as weight,
			h.timestamp as timestamp
		ORDER BY h.timestamp, h.id
	`

	result, err = session.Run(ctx, edgeQuery, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load hyperedges: %w", err)
	}

	var edges []hypergraph.Hyperedge
	for result.Next(ctx) {
		record := result.Record()
		id := getString(record, "id", "")
		if id == "" {
			continue
		}
		edges = append(edges, hypergraph.Hyperedge{
			ID:        id,
			Members:   getStringSlice(record, "members"),
			Kind:      getString(record, "kind", hypergraph.EdgeKindRelated),
			Weight:    getFloat64(record, "weight", 0),
			Timestamp: getString(record, "timestamp", ""),
		})
	}
	if err := result.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read hyperedges: %w", err)
	}

	r.logger.Info("Hypergraph loaded",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	return nodes, edges, nil
}

// SaveNode upserts a single thought node.
func (r *Neo4jRepository) SaveNode(ctx context.Context, node hypergraph.Node) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (t:Thought {id: $id})
		SET t.label = $label,
			t.kind = $kind,
			t.relevance = $relevance,
			t.model_source = $modelSource,
			t.timestamp = $timestamp
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":          node.ID,
		"label":       node.Label,
		"kind":        node.Kind,
		"relevance":   node.Relevance,
		"modelSource": node.ModelSource,
		"timestamp":   node.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to save thought: %w", err)
	}
	return nil
}

// SaveHyperedge upserts a hyperedge and links it to its member thoughts.
func (r *Neo4jRepository) SaveHyperedge(ctx context.Context, edge hypergraph.Hyperedge) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (h:Hyperedge {id: $id})
		SET h.members = $members,
			h.kind = $kind,
			h.weight = $weight,
			h.timestamp = $timestamp
		WITH h
		UNWIND $members as memberId
		MATCH (t:Thought {id: memberId})
		MERGE (h)-[:CONNECTS]->(t)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":        edge.ID,
		"members":   edge.Members,
		"kind":      edge.Kind,
		"weight":    edge.Weight,
		"timestamp": edge.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to save hyperedge: %w", err)
	}
	return nil
}

// SetRelevance updates the relevance of a stored thought.
func (r *Neo4jRepository) SetRelevance(ctx context.Context, nodeID string, value float64) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (t:Thought {id: $id})
		SET t.relevance = $value
		RETURN t.id as id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id":    nodeID,
		"value": value,
	})
	if err != nil {
		return fmt.Errorf("failed to update relevance: %w", err)
	}
	if _, err := result.Single(ctx); err != nil {
		return fmt.Errorf("failed to verify relevance update: %w", err)
	}
	return nil
}

// SetWeight updates the weight of a stored hyperedge.
func (r *Neo4jRepository) SetWeight(ctx context.Context, edgeID string, value float64) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (h:Hyperedge {id: $id})
		SET h.weight = $value
		RETURN h.id as id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id":    edgeID,
		"value": value,
	})
	if err != nil {
		return fmt.Errorf("failed to update weight: %w", err)
	}
	if _, err := result.Single(ctx); err != nil {
		return fmt.Errorf("failed to verify weight update: %w", err)
	}
	return nil
}

// Clear removes every persisted thought and hyperedge.
func (r *Neo4jRepository) Clear(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (n)
		WHERE n:Thought OR n:Hyperedge
		DETACH DELETE n
	`

	if _, err := session.Run(ctx, query, nil); err != nil {
		return fmt.Errorf("failed to clear hypergraph: %w", err)
	}

	r.logger.Info("Persisted hypergraph cleared")
	return nil
}

// Helper functions

func getString(record *neo4j.Record, key string, defaultValue string) string {
	val, ok := record.Get(key)
	if !ok {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getStringSlice(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getFloat64(record *neo4j.Record, key string, defaultValue float64) float64 {
	val, ok := record.Get(key)
	if !ok {
		return defaultValue
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return defaultValue
}
