// Package hot implements the Hypergraph of Thoughts authority: the mutable
// in-memory hypergraph behind the HTTP API, with optional Neo4j durability.
// Thoughts are nodes, hyperedges connect two or more of them, and every
// chat interaction grows the graph by a user node, a model node and a
// response_to hyperedge between them.
package hot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
	apperrors "github.com/CrossDebate/app/backend/pkg/errors"
	"github.com/CrossDebate/app/backend/pkg/logger"
)

const (
	// interactionEdgeWeight is the initial weight of the response_to
	// hyperedge linking a user message to the model reply.
	interactionEdgeWeight = 0.6

	// defaultContextNodes and defaultContextTokens bound the prompt
	// context built for the language model.
	defaultContextNodes  = 5
	defaultContextTokens = 500
)

var (
	// ErrTooFewMembers is returned when a hyperedge would span fewer than
	// two distinct nodes.
	ErrTooFewMembers = errors.New("a hyperedge requires at least two distinct member nodes")

	// ErrMissingValue is returned when an adjustment omits the value its
	// element type requires.
	ErrMissingValue = errors.New("adjustment value missing for element type")

	// ErrUnknownElementType is returned when an adjustment names a type
	// other than node or edge.
	ErrUnknownElementType = errors.New("element type must be \"node\" or \"edge\"")
)

// NodeInput carries the caller-supplied fields for a new node. Zero values
// fall back to the service defaults.
type NodeInput struct {
	Label       string
	Kind        string
	Relevance   *float64
	ModelSource string
	Attrs       map[string]any
}

// EdgeInput carries the caller-supplied fields for a new hyperedge.
type EdgeInput struct {
	Members []string
	Kind    string
	Weight  *float64
	Attrs   map[string]any
}

// Interaction is the graph delta produced by one chat exchange.
type Interaction struct {
	UserNode  hypergraph.Node      `json:"user_node"`
	ModelNode hypergraph.Node      `json:"model_node"`
	Edge      hypergraph.Hyperedge `json:"edge"`
}

// Metadata describes the snapshot as a whole.
type Metadata struct {
	LastUpdated string `json:"last_updated"`
}

// CurrentPayload is the full hypergraph state served to clients.
type CurrentPayload struct {
	Nodes    []hypergraph.Node      `json:"nodes"`
	Edges    []hypergraph.Hyperedge `json:"edges"`
	Metadata Metadata               `json:"metadata"`
}

// Metrics summarises the graph. Density and centrality are computed on the
// pairwise projection with duplicate pairs collapsed; the node degree is the
// hyperedge membership count. GraphDensity and AvgGraphCentrality repeat
// Density and AvgCentrality under the key names older clients read.
type Metrics struct {
	NodeCount          int     `json:"node_count"`
	EdgeCount          int     `json:"edge_count"`
	AvgHyperedgeSize   float64 `json:"avg_hyperedge_size"`
	AvgNodeDegree      float64 `json:"avg_node_degree"`
	Density            float64 `json:"density"`
	AvgCentrality      float64 `json:"avg_centrality"`
	GraphDensity       float64 `json:"graph_density"`
	AvgGraphCentrality float64 `json:"avg_graph_centrality"`
}

// Service owns the authoritative hypergraph. All state lives in memory under
// a single mutex; the repository replays it across restarts and is written
// through on every mutation.
type Service struct {
	mu        sync.Mutex
	nodes     map[string]*hypergraph.Node
	edges     map[string]*hypergraph.Hyperedge
	nodeOrder []string
	edgeOrder []string

	nodeCounter int
	edgeCounter int

	defaultRelevance float64
	defaultWeight    float64

	repo    Repository
	logger  *zap.Logger
	updated time.Time
}

// NewService creates an empty service backed by the given repository. Pass
// NewNoopRepository() when durability is not configured.
func NewService(defaultRelevance, defaultWeight float64, repo Repository) *Service {
	if repo == nil {
		repo = NewNoopRepository()
	}
	return &Service{
		nodes:            make(map[string]*hypergraph.Node),
		edges:            make(map[string]*hypergraph.Hyperedge),
		defaultRelevance: defaultRelevance,
		defaultWeight:    defaultWeight,
		repo:             repo,
		logger:           logger.Get().Named("hot"),
		updated:          time.Now(),
	}
}

// Restore replays persisted state into memory. Call once at startup before
// serving requests.
func (s *Service) Restore(ctx context.Context) error {
	nodes, edges, err := s.repo.Load(ctx)
	if err != nil {
		return apperrors.NewStoreQueryFailed("load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range nodes {
		n := nodes[i]
		if _, ok := s.nodes[n.ID]; ok {
			continue
		}
		s.nodes[n.ID] = &n
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	for i := range edges {
		e := edges[i]
		if _, ok := s.edges[e.ID]; ok {
			continue
		}
		s.edges[e.ID] = &e
		s.edgeOrder = append(s.edgeOrder, e.ID)
	}

	// New ids embed a fresh epoch millisecond, so bumping the counters past
	// the restored sizes is enough to keep them unique.
	s.nodeCounter = len(s.nodeOrder)
	s.edgeCounter = len(s.edgeOrder)

	if len(nodes) > 0 || len(edges) > 0 {
		s.updated = time.Now()
		s.logger.Info("Hypergraph restored",
			zap.Int("nodes", len(s.nodeOrder)),
			zap.Int("edges", len(s.edgeOrder)),
		)
	}
	return nil
}

// Close releases the repository.
func (s *Service) Close(ctx context.Context) error {
	return s.repo.Close(ctx)
}

// AddNode validates and stores a new thought node. The write-through to the
// repository is best effort: a persistence failure is logged and the call
// still succeeds, since memory is the authority.
func (s *Service) AddNode(ctx context.Context, in NodeInput) (hypergraph.Node, error) {
	if in.Relevance != nil && (*in.Relevance < 0 || *in.Relevance > 1) {
		return hypergraph.Node{}, apperrors.NewValueOutOfRange("relevance", *in.Relevance)
	}

	s.mu.Lock()
	node := s.addNodeLocked(in)
	s.mu.Unlock()

	if err := s.repo.SaveNode(ctx, node); err != nil {
		s.logger.Warn("Failed to persist node",
			zap.String("node_id", node.ID),
			zap.Error(err),
		)
	}
	return node, nil
}

// AddHyperedge validates and stores a new hyperedge across existing nodes.
// Duplicate members collapse; fewer than two distinct members is rejected
// with ErrTooFewMembers and an unknown member with ErrElementNotFound.
func (s *Service) AddHyperedge(ctx context.Context, in EdgeInput) (hypergraph.Hyperedge, error) {
	if in.Weight != nil && (*in.Weight < 0 || *in.Weight > 1) {
		return hypergraph.Hyperedge{}, apperrors.NewValueOutOfRange("weight", *in.Weight)
	}

	s.mu.Lock()
	edge, err := s.addEdgeLocked(in)
	s.mu.Unlock()
	if err != nil {
		return hypergraph.Hyperedge{}, err
	}

	if err := s.repo.SaveHyperedge(ctx, edge); err != nil {
		s.logger.Warn("Failed to persist hyperedge",
			zap.String("edge_id", edge.ID),
			zap.Error(err),
		)
	}
	return edge, nil
}

// UpdateFromInteraction records one chat exchange: a user_input node, a
// model_response node, and a response_to hyperedge joining them.
func (s *Service) UpdateFromInteraction(ctx context.Context, userMessage, modelResponse, modelName string) (Interaction, error) {
	s.mu.Lock()
	userNode := s.addNodeLocked(NodeInput{
		Label: userMessage,
		Kind:  hypergraph.NodeKindUserInput,
	})
	modelNode := s.addNodeLocked(NodeInput{
		Label:       modelResponse,
		Kind:        hypergraph.NodeKindModelResponse,
		ModelSource: modelName,
	})
	weight := interactionEdgeWeight
	edge, err := s.addEdgeLocked(EdgeInput{
		Members: []string{userNode.ID, modelNode.ID},
		Kind:    hypergraph.EdgeKindResponseTo,
		Weight:  &weight,
	})
	s.mu.Unlock()
	if err != nil {
		return Interaction{}, err
	}

	if err := s.repo.SaveNode(ctx, userNode); err != nil {
		s.logger.Warn("Failed to persist node", zap.String("node_id", userNode.ID), zap.Error(err))
	}
	if err := s.repo.SaveNode(ctx, modelNode); err != nil {
		s.logger.Warn("Failed to persist node", zap.String("node_id", modelNode.ID), zap.Error(err))
	}
	if err := s.repo.SaveHyperedge(ctx, edge); err != nil {
		s.logger.Warn("Failed to persist hyperedge", zap.String("edge_id", edge.ID), zap.Error(err))
	}

	s.logger.Info("Interaction recorded",
		zap.String("user_node", userNode.ID),
		zap.String("model_node", modelNode.ID),
		zap.String("edge", edge.ID),
	)
	return Interaction{UserNode: userNode, ModelNode: modelNode, Edge: edge}, nil
}

// AdjustElement sets the relevance of a node or the weight of a hyperedge
// and returns the applied value. Unlike the add paths this write-through is
// strict: if the repository rejects the update the in-memory value is rolled
// back and the error is returned.
func (s *Service) AdjustElement(ctx context.Context, elementID, elementType string, newRelevance, newWeight *float64) (float64, error) {
	var value float64
	switch elementType {
	case "node":
		if newRelevance == nil {
			return 0, fmt.Errorf("%w: node requires new_relevance", ErrMissingValue)
		}
		value = *newRelevance
	case "edge":
		if newWeight == nil {
			return 0, fmt.Errorf("%w: edge requires new_weight", ErrMissingValue)
		}
		value = *newWeight
	default:
		return 0, fmt.Errorf("%w: got %q", ErrUnknownElementType, elementType)
	}

	field := "relevance"
	if elementType == "edge" {
		field = "weight"
	}
	if value < 0 || value > 1 {
		return 0, apperrors.NewValueOutOfRange(field, value)
	}

	previous, err := s.applyAdjustment(elementID, elementType, value)
	if err != nil {
		return 0, err
	}

	var persistErr error
	if elementType == "node" {
		persistErr = s.repo.SetRelevance(ctx, elementID, value)
	} else {
		persistErr = s.repo.SetWeight(ctx, elementID, value)
	}
	if persistErr != nil {
		// Roll back so memory and store cannot drift on a failed adjust.
		if _, rbErr := s.applyAdjustment(elementID, elementType, previous); rbErr != nil {
			s.logger.Error("Failed to roll back adjustment",
				zap.String("element_id", elementID),
				zap.Error(rbErr),
			)
		}
		return 0, apperrors.NewStoreQueryFailed("adjust", persistErr)
	}

	s.logger.Info("Element adjusted",
		zap.String("element_id", elementID),
		zap.String("element_type", elementType),
		zap.Float64("value", value),
	)
	return value, nil
}

// applyAdjustment swaps in the new value and reports the previous one.
func (s *Service) applyAdjustment(elementID, elementType string, value float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var previous float64
	switch elementType {
	case "node":
		node, ok := s.nodes[elementID]
		if !ok {
			return 0, apperrors.NewElementNotFound(elementID, "node")
		}
		previous = node.Relevance
		node.Relevance = value
	case "edge":
		edge, ok := s.edges[elementID]
		if !ok {
			return 0, apperrors.NewElementNotFound(elementID, "edge")
		}
		previous = edge.Weight
		edge.Weight = value
	}
	s.updated = time.Now()
	return previous, nil
}

// Clear wipes the hypergraph and resets the id counters.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.nodes = make(map[string]*hypergraph.Node)
	s.edges = make(map[string]*hypergraph.Hyperedge)
	s.nodeOrder = nil
	s.edgeOrder = nil
	s.nodeCounter = 0
	s.edgeCounter = 0
	s.updated = time.Now()
	s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return apperrors.NewStoreQueryFailed("clear", err)
	}
	s.logger.Info("Hypergraph cleared")
	return nil
}

// Current returns a copy of the full hypergraph state.
func (s *Service) Current() CurrentPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := CurrentPayload{
		Nodes:    make([]hypergraph.Node, 0, len(s.nodeOrder)),
		Edges:    make([]hypergraph.Hyperedge, 0, len(s.edgeOrder)),
		Metadata: Metadata{LastUpdated: s.updated.Format(time.RFC3339)},
	}
	for _, id := range s.nodeOrder {
		payload.Nodes = append(payload.Nodes, *s.nodes[id])
	}
	for _, id := range s.edgeOrder {
		edge := *s.edges[id]
		edge.Members = append([]string(nil), edge.Members...)
		payload.Edges = append(payload.Edges, edge)
	}
	return payload
}

// Metrics computes the structural summary of the current graph.
func (s *Service) Metrics() Metrics {
	s.mu.Lock()
	nodes := make([]string, len(s.nodeOrder))
	copy(nodes, s.nodeOrder)
	members := make([][]string, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		members = append(members, append([]string(nil), s.edges[id].Members...))
	}
	s.mu.Unlock()

	m := Metrics{NodeCount: len(nodes), EdgeCount: len(members)}

	if m.EdgeCount > 0 {
		total := 0
		for _, mem := range members {
			total += len(mem)
		}
		m.AvgHyperedgeSize = float64(total) / float64(m.EdgeCount)
	}

	if m.NodeCount > 0 {
		memberships := 0
		for _, mem := range members {
			memberships += len(mem)
		}
		m.AvgNodeDegree = float64(memberships) / float64(m.NodeCount)
	}

	// Flatten to a simple graph: every unordered pair inside a hyperedge
	// becomes one edge, duplicates across hyperedges collapse.
	pairs := make(map[string]struct{})
	simpleDegree := make(map[string]int, len(nodes))
	for _, mem := range members {
		for i := 0; i < len(mem); i++ {
			for j := i + 1; j < len(mem); j++ {
				a, b := mem[i], mem[j]
				if b < a {
					a, b = b, a
				}
				key := a + "|" + b
				if _, seen := pairs[key]; seen {
					continue
				}
				pairs[key] = struct{}{}
				simpleDegree[a]++
				simpleDegree[b]++
			}
		}
	}

	n := m.NodeCount
	if n > 1 {
		m.Density = 2 * float64(len(pairs)) / float64(n*(n-1))
		sum := 0.0
		for _, id := range nodes {
			sum += float64(simpleDegree[id]) / float64(n-1)
		}
		m.AvgCentrality = sum / float64(n)
	} else if n == 1 {
		// A single node is trivially central to the whole graph.
		m.AvgCentrality = 1
	}

	m.GraphDensity = m.Density
	m.AvgGraphCentrality = m.AvgCentrality
	return m
}

// Insights derives short natural language observations from the metrics.
func (s *Service) Insights() []string {
	m := s.Metrics()

	var insights []string
	if m.NodeCount > 50 {
		insights = append(insights, "The thought graph is becoming complex, indicating deep exploration.")
	}
	if m.Density > 0.5 {
		insights = append(insights, "High graph density suggests strong interconnection between thoughts.")
	}
	if m.AvgHyperedgeSize > 3 {
		insights = append(insights, "Large hyperedges indicate thoughts connecting multiple concepts simultaneously.")
	}
	if len(insights) == 0 {
		insights = append(insights, "No significant insights generated at the moment.")
	}
	return insights
}

// PromptContext renders the newest thoughts as context lines for the language
// model, bounded by a node count and a rough whitespace token budget.
// Non-positive bounds fall back to the defaults.
func (s *Service) PromptContext(maxNodes, maxTokens int) string {
	if maxNodes <= 0 {
		maxNodes = defaultContextNodes
	}
	if maxTokens <= 0 {
		maxTokens = defaultContextTokens
	}

	s.mu.Lock()
	recent := make([]hypergraph.Node, 0, maxNodes)
	for i := len(s.nodeOrder) - 1; i >= 0 && len(recent) < maxNodes; i-- {
		recent = append(recent, *s.nodes[s.nodeOrder[i]])
	}
	s.mu.Unlock()

	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Hypergraph of Thoughts context:")
	tokens := len(strings.Fields("Hypergraph of Thoughts context:"))
	for _, n := range recent {
		line := fmt.Sprintf("- Node %s (%s, Rel: %.2f): %s", n.ID, n.Kind, n.Relevance, n.Label)
		cost := len(strings.Fields(line))
		if tokens+cost > maxTokens {
			break
		}
		b.WriteString("\n")
		b.WriteString(line)
		tokens += cost
	}
	return b.String()
}

// addNodeLocked stores a node under an already held lock.
func (s *Service) addNodeLocked(in NodeInput) hypergraph.Node {
	s.nodeCounter++
	node := hypergraph.Node{
		ID:          fmt.Sprintf("n_%d_%d", time.Now().UnixMilli(), s.nodeCounter),
		Label:       in.Label,
		Kind:        in.Kind,
		Relevance:   s.defaultRelevance,
		ModelSource: in.ModelSource,
		Timestamp:   time.Now().Format(time.RFC3339),
		Attrs:       in.Attrs,
	}
	if node.Kind == "" {
		node.Kind = hypergraph.NodeKindThought
	}
	if in.Relevance != nil {
		node.Relevance = *in.Relevance
	}

	s.nodes[node.ID] = &node
	s.nodeOrder = append(s.nodeOrder, node.ID)
	s.updated = time.Now()
	return node
}

// addEdgeLocked stores a hyperedge under an already held lock.
func (s *Service) addEdgeLocked(in EdgeInput) (hypergraph.Hyperedge, error) {
	seen := make(map[string]struct{}, len(in.Members))
	members := make([]string, 0, len(in.Members))
	for _, id := range in.Members {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) < 2 {
		return hypergraph.Hyperedge{}, ErrTooFewMembers
	}
	for _, id := range members {
		if _, ok := s.nodes[id]; !ok {
			return hypergraph.Hyperedge{}, apperrors.NewElementNotFound(id, "node")
		}
	}

	s.edgeCounter++
	edge := hypergraph.Hyperedge{
		ID:        fmt.Sprintf("e_%d_%d", time.Now().UnixMilli(), s.edgeCounter),
		Members:   members,
		Kind:      in.Kind,
		Weight:    s.defaultWeight,
		Timestamp: time.Now().Format(time.RFC3339),
		Attrs:     in.Attrs,
	}
	if edge.Kind == "" {
		edge.Kind = hypergraph.EdgeKindRelated
	}
	if in.Weight != nil {
		edge.Weight = *in.Weight
	}

	s.edges[edge.ID] = &edge
	s.edgeOrder = append(s.edgeOrder, edge.ID)
	s.updated = time.Now()
	return edge, nil
}
