// Package selection tracks what the user has picked in the viewer: nothing,
// one node, or one hyperedge (via any of its projected links). The active
// selection decides which adjustment control is live.
package selection

// Mode is the selection state
type Mode string

const (
	ModeIdle Mode = "none"
	ModeNode Mode = "node"
	ModeEdge Mode = "edge"
)

// State is the current selection for synchronous reads
type State struct {
	Mode  Mode
	ID    string  // node id or hyperedge id
	Value float64 // the selected element's relevance or weight
}

// Controls describes the two adjustment inputs. Exactly one is enabled
// while something is selected; neither when idle.
type Controls struct {
	RelevanceEnabled bool    `json:"relevance_enabled"`
	RelevanceValue   float64 `json:"relevance_value"`
	WeightEnabled    bool    `json:"weight_enabled"`
	WeightValue      float64 `json:"weight_value"`
}

// Controller is the selection state machine. Not safe for concurrent use;
// the session goroutine is its only caller.
type Controller struct {
	mode  Mode
	id    string
	value float64
}

// NewController starts in the idle state
func NewController() *Controller {
	return &Controller{mode: ModeIdle}
}

// SelectNode enters node selection, seeding the relevance control with the
// node's current value. Re-entrant: selecting while something else is
// selected simply re-seeds.
func (c *Controller) SelectNode(id string, relevance float64) {
	c.mode = ModeNode
	c.id = id
	c.value = relevance
}

// SelectEdge enters hyperedge selection, seeding the weight control. Clicks
// on a projected link land here with the owning hyperedge's id.
func (c *Controller) SelectEdge(hyperedgeID string, weight float64) {
	c.mode = ModeEdge
	c.id = hyperedgeID
	c.value = weight
}

// Clear returns to idle. Background clicks and successful adjustments both
// end up here.
func (c *Controller) Clear() {
	c.mode = ModeIdle
	c.id = ""
	c.value = 0
}

// Active reports whether anything is selected
func (c *Controller) Active() bool {
	return c.mode != ModeIdle
}

// State returns the selection for a synchronous read
func (c *Controller) State() State {
	return State{Mode: c.mode, ID: c.id, Value: c.value}
}

// Controls derives the control panel state from the selection
func (c *Controller) Controls() Controls {
	switch c.mode {
	case ModeNode:
		return Controls{RelevanceEnabled: true, RelevanceValue: c.value}
	case ModeEdge:
		return Controls{WeightEnabled: true, WeightValue: c.value}
	default:
		return Controls{}
	}
}
