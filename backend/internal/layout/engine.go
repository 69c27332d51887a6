// Package layout runs the force-directed simulation behind the viewer:
// charge repulsion, link springs toward a target distance, and a weak
// centering pull, all scaled by a decaying energy term.
package layout

import (
	"math"

	"github.com/CrossDebate/app/backend/internal/hypergraph"
)

// Config holds the simulation parameters
type Config struct {
	ChargeStrength  float64 // negative repels
	LinkDistance    float64
	LinkStrength    float64
	CenterStrength  float64
	VelocityDecay   float64 // fraction of velocity lost per step
	AlphaMin        float64 // below this the simulation is settled
	AlphaDecay      float64
	ReheatAlpha     float64 // energy restored by parameter changes
	DragAlphaTarget float64 // energy floor held during a drag gesture
}

// DefaultConfig returns the simulation defaults. Charge and link distance
// are usually overridden from application config.
func DefaultConfig() Config {
	return Config{
		ChargeStrength:  -300,
		LinkDistance:    100,
		LinkStrength:    0.1,
		CenterStrength:  0.03,
		VelocityDecay:   0.4,
		AlphaMin:        0.001,
		AlphaDecay:      0.0228,
		ReheatAlpha:     0.5,
		DragAlphaTarget: 0.3,
	}
}

// Node is a simulated body. FX/FY are drag pins: while set, the node is held
// at that position and its velocity is discarded.
type Node struct {
	ID     string
	X, Y   float64
	VX, VY float64
	FX, FY *float64
}

// Pinned reports whether the node is held by a drag gesture
func (n *Node) Pinned() bool {
	return n.FX != nil
}

type link struct {
	source, target *Node
}

// Engine owns all simulation state. It is not safe for concurrent use; the
// session goroutine is its only caller.
type Engine struct {
	cfg   Config
	nodes []*Node
	links []link
	byID  map[string]*Node

	alpha       float64
	alphaTarget float64
	placed      int // total nodes ever placed, advances the spiral
}

// New creates an engine with no nodes
func New(cfg Config) *Engine {
	return &Engine{
		cfg:  cfg,
		byID: make(map[string]*Node),
	}
}

// SetGraph replaces the simulated graph. Nodes whose id already exists keep
// their position, velocity and pin; new nodes are placed on a deterministic
// phyllotaxis spiral. The simulation is restarted at full energy.
func (e *Engine) SetGraph(ids []string, links []hypergraph.Link) {
	next := make(map[string]*Node, len(ids))
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if _, dup := next[id]; dup {
			continue
		}
		node, ok := e.byID[id]
		if !ok {
			node = e.place(id)
		}
		next[id] = node
		nodes = append(nodes, node)
	}

	resolved := make([]link, 0, len(links))
	for _, l := range links {
		source, okS := next[l.Source]
		target, okT := next[l.Target]
		if !okS || !okT {
			continue
		}
		resolved = append(resolved, link{source: source, target: target})
	}

	e.byID = next
	e.nodes = nodes
	e.links = resolved
	e.alpha = 1
}

// place creates a node on the phyllotaxis spiral, matching how d3 seeds
// initial positions so layouts are reproducible without randomness
func (e *Engine) place(id string) *Node {
	const initialRadius = 10
	initialAngle := math.Pi * (3 - math.Sqrt(5))

	radius := initialRadius * math.Sqrt(0.5+float64(e.placed))
	angle := float64(e.placed) * initialAngle
	e.placed++

	return &Node{
		ID: id,
		X:  radius * math.Cos(angle),
		Y:  radius * math.Sin(angle),
	}
}

// Step advances the simulation by one fixed tick. Returns false without
// touching any state once the energy has decayed below the settle threshold.
func (e *Engine) Step() bool {
	if !e.Running() {
		return false
	}

	e.alpha += (e.alphaTarget - e.alpha) * e.cfg.AlphaDecay

	e.applyLinks()
	e.applyCharge()
	e.applyCenter()

	decay := 1 - e.cfg.VelocityDecay
	for _, n := range e.nodes {
		if n.Pinned() {
			n.X, n.Y = *n.FX, *n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= decay
		n.VY *= decay
		n.X += n.VX
		n.Y += n.VY
	}
	return true
}

// Running reports whether the simulation still carries energy
func (e *Engine) Running() bool {
	return e.alpha >= e.cfg.AlphaMin || e.alphaTarget >= e.cfg.AlphaMin
}

// Alpha returns the current energy term
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// Reheat restores energy without moving anything, so parameter changes
// visibly re-run the layout from the current positions
func (e *Engine) Reheat() {
	if e.alpha < e.cfg.ReheatAlpha {
		e.alpha = e.cfg.ReheatAlpha
	}
}

// Nodes returns the simulated bodies in graph order
func (e *Engine) Nodes() []*Node {
	return e.nodes
}

// Node returns the simulated body for a node id
func (e *Engine) Node(id string) (*Node, bool) {
	n, ok := e.byID[id]
	return n, ok
}

// ChargeStrength returns the current global repulsion strength
func (e *Engine) ChargeStrength() float64 {
	return e.cfg.ChargeStrength
}

// LinkDistance returns the current target distance for linked pairs
func (e *Engine) LinkDistance() float64 {
	return e.cfg.LinkDistance
}

// SetChargeStrength updates the global repulsion strength. Callers reheat
// afterwards so the change takes visible effect.
func (e *Engine) SetChargeStrength(v float64) {
	e.cfg.ChargeStrength = v
}

// SetLinkDistance updates the target distance for linked pairs
func (e *Engine) SetLinkDistance(v float64) {
	e.cfg.LinkDistance = v
}

// SetLinkStrength updates the link spring strength
func (e *Engine) SetLinkStrength(v float64) {
	e.cfg.LinkStrength = v
}

// SetCenterStrength updates the centering pull
func (e *Engine) SetCenterStrength(v float64) {
	e.cfg.CenterStrength = v
}

// SetVelocityDecay updates the per-step velocity damping
func (e *Engine) SetVelocityDecay(v float64) {
	if v >= 0 && v < 1 {
		e.cfg.VelocityDecay = v
	}
}

// Pin starts a drag gesture: the node is held at (x, y) and the simulation
// keeps running at the drag energy floor until released
func (e *Engine) Pin(id string, x, y float64) {
	n, ok := e.byID[id]
	if !ok {
		return
	}
	n.FX, n.FY = &x, &y
	e.alphaTarget = e.cfg.DragAlphaTarget
	if e.alpha < e.cfg.DragAlphaTarget {
		e.alpha = e.cfg.DragAlphaTarget
	}
}

// Drag moves an active pin
func (e *Engine) Drag(id string, x, y float64) {
	n, ok := e.byID[id]
	if !ok || !n.Pinned() {
		return
	}
	n.FX, n.FY = &x, &y
}

// Release ends a drag gesture; the node resumes free simulation from where
// it was dropped
func (e *Engine) Release(id string) {
	n, ok := e.byID[id]
	if !ok {
		return
	}
	n.FX, n.FY = nil, nil
	e.alphaTarget = 0
}

// applyLinks pulls linked pairs toward the configured distance. The spring
// strength is the same for every link; link weight never affects pull.
func (e *Engine) applyLinks() {
	for _, l := range e.links {
		dx := l.target.X - l.source.X
		dy := l.target.Y - l.source.Y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			dx, dist = 1e-6, 1e-6
		}
		f := (dist - e.cfg.LinkDistance) / dist * e.alpha * e.cfg.LinkStrength
		l.target.VX -= dx * f * 0.5
		l.target.VY -= dy * f * 0.5
		l.source.VX += dx * f * 0.5
		l.source.VY += dy * f * 0.5
	}
}

// applyCharge applies pairwise repulsion. Quadratic in node count, which is
// fine at conversation scale.
func (e *Engine) applyCharge() {
	for i := 0; i < len(e.nodes); i++ {
		for j := i + 1; j < len(e.nodes); j++ {
			a, b := e.nodes[i], e.nodes[j]
			dx := b.X - a.X
			dy := b.Y - a.Y
			d2 := dx*dx + dy*dy
			if d2 < 1 {
				d2 = 1
			}
			f := e.cfg.ChargeStrength * e.alpha / d2
			a.VX += dx * f
			a.VY += dy * f
			b.VX -= dx * f
			b.VY -= dy * f
		}
	}
}

// applyCenter pulls every node weakly toward the origin to stop the cloud
// drifting off the viewport
func (e *Engine) applyCenter() {
	for _, n := range e.nodes {
		n.VX -= n.X * e.cfg.CenterStrength * e.alpha
		n.VY -= n.Y * e.cfg.CenterStrength * e.alpha
	}
}
