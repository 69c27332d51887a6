package layout

import (
	"math"
	"testing"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
)

func pairLink(edgeID, source, target string) hypergraph.Link {
	return hypergraph.Link{
		Key:         hypergraph.LinkKey(edgeID, source, target),
		HyperedgeID: edgeID,
		Source:      source,
		Target:      target,
		Weight:      0.5,
	}
}

func settle(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		if !e.Step() {
			return
		}
	}
	t.Fatal("simulation did not settle within 2000 steps")
}

func distance(a, b *Node) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func TestSetGraph_PlacesDeterministically(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}

	first := New(DefaultConfig())
	first.SetGraph(ids, nil)
	second := New(DefaultConfig())
	second.SetGraph(ids, nil)

	for _, id := range ids {
		n1, _ := first.Node(id)
		n2, _ := second.Node(id)
		if n1.X != n2.X || n1.Y != n2.Y {
			t.Errorf("node %s placed at (%v, %v) and (%v, %v)", id, n1.X, n1.Y, n2.X, n2.Y)
		}
	}

	// Nodes must not stack on a single point
	a, _ := first.Node("a")
	b, _ := first.Node("b")
	if distance(a, b) == 0 {
		t.Error("expected distinct initial placements")
	}
}

func TestSetGraph_KeepsExistingNodes(t *testing.T) {
	e := New(DefaultConfig())
	e.SetGraph([]string{"a", "b"}, []hypergraph.Link{pairLink("e1", "a", "b")})

	for i := 0; i < 50; i++ {
		e.Step()
	}

	before, _ := e.Node("a")
	bx, by := before.X, before.Y

	e.SetGraph([]string{"a", "b", "c"}, []hypergraph.Link{pairLink("e1", "a", "b")})

	after, ok := e.Node("a")
	if !ok {
		t.Fatal("node a disappeared across SetGraph")
	}
	if after != before {
		t.Error("expected the same simulated body to be reused for an unchanged id")
	}
	if after.X != bx || after.Y != by {
		t.Errorf("expected position to survive rebind, got (%v, %v) want (%v, %v)", after.X, after.Y, bx, by)
	}

	if _, ok := e.Node("c"); !ok {
		t.Fatal("new node missing after rebind")
	}
	if !e.Running() {
		t.Error("expected rebind to restart the simulation")
	}
}

func TestSetGraph_DropsDepartedNodes(t *testing.T) {
	e := New(DefaultConfig())
	e.SetGraph([]string{"a", "b"}, nil)
	e.SetGraph([]string{"b"}, nil)

	if _, ok := e.Node("a"); ok {
		t.Error("expected departed node to be discarded")
	}
	if len(e.Nodes()) != 1 {
		t.Errorf("expected 1 node, got %d", len(e.Nodes()))
	}
}

func TestStep_SettlesAndFreezes(t *testing.T) {
	e := New(DefaultConfig())
	e.SetGraph([]string{"a", "b", "c"}, []hypergraph.Link{pairLink("e1", "a", "b")})

	settle(t, e)

	if e.Running() {
		t.Fatal("expected the simulation to be settled")
	}

	a, _ := e.Node("a")
	x, y := a.X, a.Y
	if e.Step() {
		t.Error("expected Step to be a no-op once settled")
	}
	if a.X != x || a.Y != y {
		t.Error("expected positions frozen once settled")
	}
}

func TestReheat_RestoresEnergyWithoutMoving(t *testing.T) {
	e := New(DefaultConfig())
	e.SetGraph([]string{"a", "b"}, []hypergraph.Link{pairLink("e1", "a", "b")})
	settle(t, e)

	a, _ := e.Node("a")
	x, y := a.X, a.Y

	e.Reheat()

	if !e.Running() {
		t.Fatal("expected Reheat to restart the simulation")
	}
	if e.Alpha() != DefaultConfig().ReheatAlpha {
		t.Errorf("expected alpha %v after reheat, got %v", DefaultConfig().ReheatAlpha, e.Alpha())
	}
	if a.X != x || a.Y != y {
		t.Error("Reheat must not move nodes by itself")
	}
}

func TestPin_HoldsNodeWhileDragging(t *testing.T) {
	e := New(DefaultConfig())
	e.SetGraph([]string{"a", "b", "c"}, []hypergraph.Link{
		pairLink("e1", "a", "b"),
		pairLink("e1", "b", "c"),
	})

	e.Pin("a", 42, -17)
	for i := 0; i < 100; i++ {
		e.Step()
	}

	a, _ := e.Node("a")
	if a.X != 42 || a.Y != -17 {
		t.Errorf("expected pinned node held at (42, -17), got (%v, %v)", a.X, a.Y)
	}
	if !e.Running() {
		t.Error("expected the simulation to keep running during a drag")
	}

	e.Drag("a", 60, 5)
	e.Step()
	if a.X != 60 || a.Y != 5 {
		t.Errorf("expected pin to follow the drag, got (%v, %v)", a.X, a.Y)
	}

	e.Release("a")
	if a.Pinned() {
		t.Error("expected Release to clear the pin")
	}
	settle(t, e)
}

func TestLinkForce_ApproachesTargetDistance(t *testing.T) {
	e := New(DefaultConfig())
	e.SetGraph([]string{"a", "b"}, []hypergraph.Link{pairLink("e1", "a", "b")})

	a, _ := e.Node("a")
	b, _ := e.Node("b")
	initial := distance(a, b)

	settle(t, e)

	final := distance(a, b)
	if final <= initial {
		t.Errorf("expected linked pair to spread from %v toward the target distance, got %v", initial, final)
	}
	if final < 60 || final > 250 {
		t.Errorf("expected settled distance near the link target, got %v", final)
	}
}

func TestCharge_SpreadsUnlinkedNodes(t *testing.T) {
	e := New(DefaultConfig())
	e.SetGraph([]string{"a", "b", "c"}, nil)

	nodes := e.Nodes()
	initial := avgPairwise(nodes)

	settle(t, e)

	if got := avgPairwise(nodes); got <= initial {
		t.Errorf("expected repulsion to spread nodes, average distance %v -> %v", initial, got)
	}
}

func avgPairwise(nodes []*Node) float64 {
	var sum float64
	var count int
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			sum += distance(nodes[i], nodes[j])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
