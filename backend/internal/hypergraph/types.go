// Package hypergraph holds the Hypergraph of Thoughts model shared by the
// viewer and the backend: nodes, hyperedges spanning two or more nodes, and
// the pairwise projection used for rendering and graph metrics.
package hypergraph

import "encoding/json"

// Node kinds produced by the backend
const (
	NodeKindThought       = "thought"
	NodeKindUserInput     = "user_input"
	NodeKindModelResponse = "model_response"
)

// Hyperedge kinds produced by the backend
const (
	EdgeKindRelated    = "related"
	EdgeKindResponseTo = "response_to"
)

// Node is a single thought in the hypergraph
type Node struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Kind        string         `json:"type"`
	Relevance   float64        `json:"relevance"`
	ModelSource string         `json:"model_source,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Attrs       map[string]any `json:"attributes,omitempty"`
}

// Hyperedge relates two or more nodes. Members are unique node ids in
// first-occurrence order.
type Hyperedge struct {
	ID        string         `json:"id"`
	Members   []string       `json:"nodes"`
	Kind      string         `json:"type"`
	Weight    float64        `json:"weight"`
	Timestamp string         `json:"timestamp,omitempty"`
	Attrs     map[string]any `json:"attributes,omitempty"`
}

// Snapshot is a validated hypergraph state ready for projection and layout
type Snapshot struct {
	Nodes      []Node
	Hyperedges []Hyperedge
	UpdatedAt  string
	// Dropped lists hyperedge ids discarded during validation
	Dropped []string

	nodeIndex map[string]int
	edgeIndex map[string]int
}

// Node returns the node with the given id
func (s *Snapshot) Node(id string) (*Node, bool) {
	i, ok := s.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &s.Nodes[i], true
}

// Hyperedge returns the hyperedge with the given id
func (s *Snapshot) Hyperedge(id string) (*Hyperedge, bool) {
	i, ok := s.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return &s.Hyperedges[i], true
}

// reindex rebuilds the id lookup tables
func (s *Snapshot) reindex() {
	s.nodeIndex = make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		s.nodeIndex[n.ID] = i
	}
	s.edgeIndex = make(map[string]int, len(s.Hyperedges))
	for i, e := range s.Hyperedges {
		s.edgeIndex[e.ID] = i
	}
}

// RawSnapshot is the undecoded wire form of GET /api/hot/current. Nodes and
// Edges stay nil when the payload lacks the corresponding array, which marks
// the snapshot as structurally unusable.
type RawSnapshot struct {
	Nodes    []RawNode      `json:"nodes"`
	Edges    []RawEdge      `json:"edges"`
	Metadata map[string]any `json:"metadata"`
}

// RawNode decodes a node object leniently: known fields are picked out,
// anything unrecognized folds into Attrs so backend extensions pass through
// untouched.
type RawNode struct {
	ID          string
	Label       string
	Kind        string
	Relevance   *float64
	ModelSource string
	Timestamp   string
	Attrs       map[string]any
}

// UnmarshalJSON implements lenient decoding for RawNode
func (n *RawNode) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		switch key {
		case "id":
			_ = json.Unmarshal(value, &n.ID)
		case "label":
			_ = json.Unmarshal(value, &n.Label)
		case "type":
			_ = json.Unmarshal(value, &n.Kind)
		case "relevance":
			_ = json.Unmarshal(value, &n.Relevance)
		case "model_source":
			_ = json.Unmarshal(value, &n.ModelSource)
		case "timestamp":
			_ = json.Unmarshal(value, &n.Timestamp)
		case "attributes":
			_ = json.Unmarshal(value, &n.Attrs)
		default:
			if n.Attrs == nil {
				n.Attrs = make(map[string]any)
			}
			var v any
			if err := json.Unmarshal(value, &v); err == nil {
				n.Attrs[key] = v
			}
		}
	}
	return nil
}

// RawEdge decodes a hyperedge object with the same lenient rules as RawNode
type RawEdge struct {
	ID        string
	Members   []string
	Kind      string
	Weight    *float64
	Timestamp string
	Attrs     map[string]any
}

// UnmarshalJSON implements lenient decoding for RawEdge
func (e *RawEdge) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		switch key {
		case "id":
			_ = json.Unmarshal(value, &e.ID)
		case "nodes":
			_ = json.Unmarshal(value, &e.Members)
		case "type":
			_ = json.Unmarshal(value, &e.Kind)
		case "weight":
			_ = json.Unmarshal(value, &e.Weight)
		case "timestamp":
			_ = json.Unmarshal(value, &e.Timestamp)
		case "attributes":
			_ = json.Unmarshal(value, &e.Attrs)
		default:
			if e.Attrs == nil {
				e.Attrs = make(map[string]any)
			}
			var v any
			if err := json.Unmarshal(value, &v); err == nil {
				e.Attrs[key] = v
			}
		}
	}
	return nil
}
