// Package scene maintains the rendered element sets for the viewer: node
// circles, pairwise link strokes and node labels. Binding a new snapshot
// reconciles against the previous one by stable identity instead of
// rebuilding, so unchanged elements keep their object and their simulated
// position.
package scene

import (
	"github.com/CrossDebate/app/backend/internal/hypergraph"
	"github.com/CrossDebate/app/backend/internal/layout"
)

// Node colors by kind
const (
	colorThought       = "#8b5cf6"
	colorUserInput     = "#10b981"
	colorModelResponse = "#f59e0b"
	colorDefault       = "#9ca3af"
)

// NodeElem is a rendered node circle
type NodeElem struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Kind      string  `json:"kind"`
	Relevance float64 `json:"relevance"`
	Radius    float64 `json:"radius"`
	Color     string  `json:"color"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// LinkElem is a rendered pairwise link stroke
type LinkElem struct {
	Key         string  `json:"key"`
	HyperedgeID string  `json:"hyperedge"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Weight      float64 `json:"weight"`
	Width       float64 `json:"width"`
	Highlighted bool    `json:"highlighted"`
}

// LabelElem is a rendered node label
type LabelElem struct {
	NodeID string `json:"node"`
	Text   string `json:"text"`
}

// ChangeSet summarizes one reconciliation pass for logging
type ChangeSet struct {
	Created int
	Updated int
	Removed int
}

// Scene holds the current rendered elements keyed by stable identity
type Scene struct {
	nodes  map[string]*NodeElem
	links  map[string]*LinkElem
	labels map[string]*LabelElem

	nodeOrder []string
	linkOrder []string

	highlighted string // hyperedge id, empty when nothing highlighted
}

// New creates an empty scene
func New() *Scene {
	return &Scene{
		nodes:  make(map[string]*NodeElem),
		links:  make(map[string]*LinkElem),
		labels: make(map[string]*LabelElem),
	}
}

// NodeRadius derives the circle radius from relevance
func NodeRadius(relevance float64) float64 {
	return 5 + 10*relevance
}

// LinkWidth derives the stroke width from hyperedge weight. Weight only
// affects thickness, never the layout pull.
func LinkWidth(weight float64) float64 {
	return 1 + 3*weight
}

func nodeColor(kind string) string {
	switch kind {
	case hypergraph.NodeKindThought:
		return colorThought
	case hypergraph.NodeKindUserInput:
		return colorUserInput
	case hypergraph.NodeKindModelResponse:
		return colorModelResponse
	default:
		return colorDefault
	}
}

// Bind reconciles the scene against a new snapshot and its projected links.
// Elements present in both keep their object and are updated in place; new
// ones are created with their position taken from the engine; departed ones
// are removed. The engine must already hold the snapshot's nodes.
func (s *Scene) Bind(snap *hypergraph.Snapshot, links []hypergraph.Link, eng *layout.Engine) ChangeSet {
	var changes ChangeSet

	nextNodes := make(map[string]bool, len(snap.Nodes))
	s.nodeOrder = s.nodeOrder[:0]
	for _, n := range snap.Nodes {
		nextNodes[n.ID] = true
		s.nodeOrder = append(s.nodeOrder, n.ID)

		elem, ok := s.nodes[n.ID]
		if !ok {
			elem = &NodeElem{ID: n.ID}
			if body, ok := eng.Node(n.ID); ok {
				elem.X, elem.Y = body.X, body.Y
			}
			s.nodes[n.ID] = elem
			changes.Created++
		} else {
			changes.Updated++
		}
		elem.Label = n.Label
		elem.Kind = n.Kind
		elem.Relevance = n.Relevance
		elem.Radius = NodeRadius(n.Relevance)
		elem.Color = nodeColor(n.Kind)

		label, ok := s.labels[n.ID]
		if !ok {
			label = &LabelElem{NodeID: n.ID}
			s.labels[n.ID] = label
		}
		label.Text = n.Label
	}
	for id := range s.nodes {
		if !nextNodes[id] {
			delete(s.nodes, id)
			delete(s.labels, id)
			changes.Removed++
		}
	}

	nextLinks := make(map[string]bool, len(links))
	s.linkOrder = s.linkOrder[:0]
	for _, l := range links {
		nextLinks[l.Key] = true
		s.linkOrder = append(s.linkOrder, l.Key)

		elem, ok := s.links[l.Key]
		if !ok {
			elem = &LinkElem{
				Key:         l.Key,
				HyperedgeID: l.HyperedgeID,
				Source:      l.Source,
				Target:      l.Target,
			}
			s.links[l.Key] = elem
			changes.Created++
		} else {
			changes.Updated++
		}
		elem.Weight = l.Weight
		elem.Width = LinkWidth(l.Weight)
		elem.Highlighted = s.highlighted != "" && l.HyperedgeID == s.highlighted
	}
	for key := range s.links {
		if !nextLinks[key] {
			delete(s.links, key)
			changes.Removed++
		}
	}

	return changes
}

// SyncPositions copies the engine's current coordinates into the rendered
// nodes. Called once per frame.
func (s *Scene) SyncPositions(eng *layout.Engine) {
	for id, elem := range s.nodes {
		if body, ok := eng.Node(id); ok {
			elem.X, elem.Y = body.X, body.Y
		}
	}
}

// Highlight marks every link derived from the given hyperedge and clears
// all others. An empty id clears the highlight entirely.
func (s *Scene) Highlight(hyperedgeID string) {
	s.highlighted = hyperedgeID
	for _, elem := range s.links {
		elem.Highlighted = hyperedgeID != "" && elem.HyperedgeID == hyperedgeID
	}
}

// Node returns the rendered element for a node id
func (s *Scene) Node(id string) (*NodeElem, bool) {
	elem, ok := s.nodes[id]
	return elem, ok
}

// Link returns the rendered element for a link key
func (s *Scene) Link(key string) (*LinkElem, bool) {
	elem, ok := s.links[key]
	return elem, ok
}

// HighlightedLinks returns the keys of currently highlighted links in
// render order
func (s *Scene) HighlightedLinks() []string {
	keys := make([]string, 0)
	for _, key := range s.linkOrder {
		if s.links[key].Highlighted {
			keys = append(keys, key)
		}
	}
	return keys
}

// Frame is the full serializable scene sent to clients
type Frame struct {
	Nodes  []NodeElem  `json:"nodes"`
	Links  []LinkElem  `json:"links"`
	Labels []LabelElem `json:"labels"`
}

// Frame snapshots the scene in render order
func (s *Scene) Frame() Frame {
	f := Frame{
		Nodes:  make([]NodeElem, 0, len(s.nodeOrder)),
		Links:  make([]LinkElem, 0, len(s.linkOrder)),
		Labels: make([]LabelElem, 0, len(s.nodeOrder)),
	}
	for _, id := range s.nodeOrder {
		if elem, ok := s.nodes[id]; ok {
			f.Nodes = append(f.Nodes, *elem)
			f.Labels = append(f.Labels, *s.labels[id])
		}
	}
	for _, key := range s.linkOrder {
		if elem, ok := s.links[key]; ok {
			f.Links = append(f.Links, *elem)
		}
	}
	return f
}

// NodePosition is one entry of a per-frame position update
type NodePosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Positions returns current node coordinates in render order
func (s *Scene) Positions() []NodePosition {
	out := make([]NodePosition, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		if elem, ok := s.nodes[id]; ok {
			out = append(out, NodePosition{ID: id, X: elem.X, Y: elem.Y})
		}
	}
	return out
}
