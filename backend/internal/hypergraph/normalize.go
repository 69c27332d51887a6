package hypergraph

import (
	apperrors "github.com/CrossDebate/app/backend/pkg/errors"
	"github.com/CrossDebate/app/backend/pkg/logger"
	"go.uber.org/zap"
)

// Normalizer validates raw snapshots into renderable ones. Invalid
// hyperedges are dropped one by one; only a structurally unusable payload
// rejects the snapshot as a whole.
type Normalizer struct {
	defaultRelevance float64
	defaultWeight    float64
	logger           *zap.Logger
}

// NewNormalizer creates a normalizer with the configured default relevance
// and weight applied where the payload omits them
func NewNormalizer(defaultRelevance, defaultWeight float64) *Normalizer {
	return &Normalizer{
		defaultRelevance: defaultRelevance,
		defaultWeight:    defaultWeight,
		logger:           logger.Named("hypergraph"),
	}
}

// Normalize validates a raw snapshot. Repeated calls over the same input
// produce deeply equal snapshots.
func (n *Normalizer) Normalize(raw *RawSnapshot) (*Snapshot, error) {
	if raw == nil {
		return nil, apperrors.NewSnapshotInvalid("payload is empty", nil)
	}
	if raw.Nodes == nil {
		return nil, apperrors.NewSnapshotInvalid("no nodes array", nil)
	}
	if raw.Edges == nil {
		return nil, apperrors.NewSnapshotInvalid("no edges array", nil)
	}

	snap := &Snapshot{
		Nodes:      make([]Node, 0, len(raw.Nodes)),
		Hyperedges: make([]Hyperedge, 0, len(raw.Edges)),
		Dropped:    []string{},
	}
	if raw.Metadata != nil {
		if updated, ok := raw.Metadata["last_updated"].(string); ok {
			snap.UpdatedAt = updated
		}
	}

	known := make(map[string]bool, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		if rn.ID == "" {
			n.logger.Warn("Dropping node without id")
			continue
		}
		if known[rn.ID] {
			n.logger.Warn("Dropping duplicate node", zap.String("node_id", rn.ID))
			continue
		}
		known[rn.ID] = true

		node := Node{
			ID:          rn.ID,
			Label:       rn.Label,
			Kind:        rn.Kind,
			Relevance:   n.defaultRelevance,
			ModelSource: rn.ModelSource,
			Timestamp:   rn.Timestamp,
			Attrs:       rn.Attrs,
		}
		if node.Label == "" {
			node.Label = node.ID
		}
		if node.Kind == "" {
			node.Kind = NodeKindThought
		}
		if rn.Relevance != nil {
			node.Relevance = *rn.Relevance
		}
		snap.Nodes = append(snap.Nodes, node)
	}

	for _, re := range raw.Edges {
		members := dedupe(re.Members)
		if len(members) < 2 {
			n.logger.Warn("Dropping hyperedge with fewer than 2 members",
				zap.String("edge_id", re.ID),
				zap.Int("members", len(members)),
			)
			snap.Dropped = append(snap.Dropped, re.ID)
			continue
		}
		if unknown := firstUnknown(members, known); unknown != "" {
			n.logger.Warn("Dropping hyperedge referencing unknown node",
				zap.String("edge_id", re.ID),
				zap.String("node_id", unknown),
			)
			snap.Dropped = append(snap.Dropped, re.ID)
			continue
		}

		edge := Hyperedge{
			ID:        re.ID,
			Members:   members,
			Kind:      re.Kind,
			Weight:    n.defaultWeight,
			Timestamp: re.Timestamp,
			Attrs:     re.Attrs,
		}
		if edge.Kind == "" {
			edge.Kind = EdgeKindRelated
		}
		if re.Weight != nil {
			edge.Weight = *re.Weight
		}
		snap.Hyperedges = append(snap.Hyperedges, edge)
	}

	snap.reindex()
	return snap, nil
}

// dedupe removes repeated ids preserving first-occurrence order
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func firstUnknown(ids []string, known map[string]bool) string {
	for _, id := range ids {
		if !known[id] {
			return id
		}
	}
	return ""
}
