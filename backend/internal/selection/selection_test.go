package selection

import "testing"

func TestController_StartsIdle(t *testing.T) {
	c := NewController()

	if c.Active() {
		t.Error("expected a fresh controller to be idle")
	}
	controls := c.Controls()
	if controls.RelevanceEnabled || controls.WeightEnabled {
		t.Error("expected both controls disabled while idle")
	}
}

func TestController_NodeSelection(t *testing.T) {
	c := NewController()
	c.SelectNode("n1", 0.7)

	state := c.State()
	if state.Mode != ModeNode || state.ID != "n1" || state.Value != 0.7 {
		t.Fatalf("unexpected state: %+v", state)
	}

	controls := c.Controls()
	if !controls.RelevanceEnabled {
		t.Error("expected relevance control enabled for a node selection")
	}
	if controls.WeightEnabled {
		t.Error("expected weight control disabled for a node selection")
	}
	if controls.RelevanceValue != 0.7 {
		t.Errorf("expected relevance seeded with 0.7, got %v", controls.RelevanceValue)
	}
}

func TestController_EdgeSelection(t *testing.T) {
	c := NewController()
	c.SelectEdge("e1", 0.3)

	controls := c.Controls()
	if !controls.WeightEnabled {
		t.Error("expected weight control enabled for an edge selection")
	}
	if controls.RelevanceEnabled {
		t.Error("expected relevance control disabled for an edge selection")
	}
	if controls.WeightValue != 0.3 {
		t.Errorf("expected weight seeded with 0.3, got %v", controls.WeightValue)
	}
}

func TestController_ClickSequence(t *testing.T) {
	// Click node -> relevance live; click background -> everything off
	c := NewController()

	c.SelectNode("n1", 0.5)
	if !c.Controls().RelevanceEnabled {
		t.Fatal("expected relevance enabled after node click")
	}

	c.Clear()
	if c.Active() {
		t.Error("expected background click to deselect")
	}
	controls := c.Controls()
	if controls.RelevanceEnabled || controls.WeightEnabled {
		t.Error("expected both controls disabled after deselect")
	}
}

func TestController_ReseedsOnNewSelection(t *testing.T) {
	c := NewController()
	c.SelectNode("n1", 0.2)
	c.SelectEdge("e1", 0.9)

	state := c.State()
	if state.Mode != ModeEdge || state.ID != "e1" {
		t.Fatalf("expected edge selection to replace node selection, got %+v", state)
	}

	c.SelectNode("n2", 0.4)
	if got := c.State(); got.Mode != ModeNode || got.ID != "n2" || got.Value != 0.4 {
		t.Fatalf("expected node selection to replace edge selection, got %+v", got)
	}
}

func TestController_ExactlyOneControlEnabledWhileSelected(t *testing.T) {
	c := NewController()

	transitions := []func(){
		func() { c.SelectNode("n1", 0.5) },
		func() { c.SelectEdge("e1", 0.5) },
		func() { c.SelectNode("n2", 0.1) },
		func() { c.Clear() },
		func() { c.SelectEdge("e2", 0.8) },
		func() { c.Clear() },
	}

	for i, step := range transitions {
		step()
		controls := c.Controls()
		enabled := 0
		if controls.RelevanceEnabled {
			enabled++
		}
		if controls.WeightEnabled {
			enabled++
		}
		if c.Active() && enabled != 1 {
			t.Errorf("step %d: expected exactly one control enabled, got %d", i, enabled)
		}
		if !c.Active() && enabled != 0 {
			t.Errorf("step %d: expected no controls enabled while idle, got %d", i, enabled)
		}
	}
}
