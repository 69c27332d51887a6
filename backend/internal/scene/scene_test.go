package scene

import (
	"encoding/json"
	"testing"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
	"github.com/CrossDebate/app/backend/internal/layout"
)

func buildSnapshot(t *testing.T, payload string) (*hypergraph.Snapshot, []hypergraph.Link) {
	t.Helper()
	var raw hypergraph.RawSnapshot
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	snap, err := hypergraph.NewNormalizer(0.5, 0.5).Normalize(&raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return snap, hypergraph.Project(snap)
}

func buildEngine(snap *hypergraph.Snapshot, links []hypergraph.Link) *layout.Engine {
	ids := make([]string, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		ids = append(ids, n.ID)
	}
	eng := layout.New(layout.DefaultConfig())
	eng.SetGraph(ids, links)
	return eng
}

func TestBind_CreatesElements(t *testing.T) {
	snap, links := buildSnapshot(t, `{
		"nodes": [
			{"id": "a", "label": "Alpha", "type": "user_input", "relevance": 1},
			{"id": "b"}
		],
		"edges": [{"id": "e1", "nodes": ["a", "b"], "weight": 0.5}]
	}`)
	eng := buildEngine(snap, links)

	s := New()
	changes := s.Bind(snap, links, eng)

	if changes.Created != 3 { // 2 nodes + 1 link
		t.Errorf("expected 3 created elements, got %d", changes.Created)
	}

	a, ok := s.Node("a")
	if !ok {
		t.Fatal("expected node element for a")
	}
	if a.Radius != NodeRadius(1) {
		t.Errorf("expected radius from relevance, got %v", a.Radius)
	}
	if a.Label != "Alpha" {
		t.Errorf("expected label Alpha, got %q", a.Label)
	}

	body, _ := eng.Node("a")
	if a.X != body.X || a.Y != body.Y {
		t.Error("expected new element to take its position from the engine")
	}

	frame := s.Frame()
	if len(frame.Nodes) != 2 || len(frame.Links) != 1 || len(frame.Labels) != 2 {
		t.Errorf("unexpected frame shape: %d nodes, %d links, %d labels",
			len(frame.Nodes), len(frame.Links), len(frame.Labels))
	}
}

func TestBind_PreservesElementIdentity(t *testing.T) {
	snap, links := buildSnapshot(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}],
		"edges": [{"id": "e1", "nodes": ["a", "b"]}]
	}`)
	eng := buildEngine(snap, links)

	s := New()
	s.Bind(snap, links, eng)

	before, _ := s.Node("a")

	// Let the simulation move things, then re-bind the same snapshot
	for i := 0; i < 30; i++ {
		eng.Step()
	}
	s.SyncPositions(eng)
	x, y := before.X, before.Y

	changes := s.Bind(snap, links, eng)

	after, _ := s.Node("a")
	if after != before {
		t.Error("expected the same element object across re-binds of an unchanged node")
	}
	if after.X != x || after.Y != y {
		t.Error("re-binding an unchanged node must not reset its position")
	}
	if changes.Created != 0 || changes.Removed != 0 {
		t.Errorf("expected pure update pass, got %+v", changes)
	}
}

func TestBind_RemovesDepartedElements(t *testing.T) {
	first, firstLinks := buildSnapshot(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
		"edges": [{"id": "e1", "nodes": ["a", "b", "c"]}]
	}`)
	eng := buildEngine(first, firstLinks)

	s := New()
	s.Bind(first, firstLinks, eng)

	second, secondLinks := buildSnapshot(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}],
		"edges": [{"id": "e1", "nodes": ["a", "b"]}]
	}`)
	ids := []string{"a", "b"}
	eng.SetGraph(ids, secondLinks)
	changes := s.Bind(second, secondLinks, eng)

	if _, ok := s.Node("c"); ok {
		t.Error("expected departed node element removed")
	}
	// 1 node + 2 of the 3 pairwise links disappeared
	if changes.Removed != 3 {
		t.Errorf("expected 3 removed elements, got %d", changes.Removed)
	}

	frame := s.Frame()
	if len(frame.Labels) != 2 {
		t.Errorf("expected labels to follow nodes, got %d", len(frame.Labels))
	}
}

func TestHighlight_MarksOnlySiblingLinks(t *testing.T) {
	snap, links := buildSnapshot(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
		"edges": [
			{"id": "e1", "nodes": ["a", "b"]},
			{"id": "e2", "nodes": ["a", "b", "c"]}
		]
	}`)
	eng := buildEngine(snap, links)

	s := New()
	s.Bind(snap, links, eng)

	s.Highlight("e2")

	highlighted := s.HighlightedLinks()
	if len(highlighted) != 3 {
		t.Fatalf("expected all 3 links of e2 highlighted, got %v", highlighted)
	}
	// The e1 link over the same (a, b) pair must stay unmarked
	if e1Link, ok := s.Link(hypergraph.LinkKey("e1", "a", "b")); !ok || e1Link.Highlighted {
		t.Error("expected the other hyperedge's link over the shared pair to stay unhighlighted")
	}

	s.Highlight("")
	if len(s.HighlightedLinks()) != 0 {
		t.Error("expected clearing the highlight to unmark everything")
	}
}

func TestHighlight_SurvivesRebind(t *testing.T) {
	snap, links := buildSnapshot(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}],
		"edges": [{"id": "e1", "nodes": ["a", "b"]}]
	}`)
	eng := buildEngine(snap, links)

	s := New()
	s.Bind(snap, links, eng)
	s.Highlight("e1")

	s.Bind(snap, links, eng)

	if len(s.HighlightedLinks()) != 1 {
		t.Error("expected highlight to survive re-binding the same hyperedge")
	}
}
