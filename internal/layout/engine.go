// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package layout

import (
	"math"
	"math/rand"
	"sync"

	"github.com/tejzpr/mimir-graph/internal/graph"
	"go.uber.org/zap"
)

// NodePosition is a node's place in the layout at one instant
type NodePosition struct {
	ID     string  `json:"id" yaml:"id"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	VX     float64 `json:"vx" yaml:"vx"`
	VY     float64 `json:"vy" yaml:"vy"`
	Pinned bool    `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// Engine is a force-directed layout over an arena of bodies. Bodies are
// addressed by id through an index, and links store arena indices that are
// re-resolved whenever the graph is swapped.
//
// Step advances one tick and can be driven by any scheduler. The engine is
// safe for concurrent use; the tick callback runs without the lock held.
type Engine struct {
	mu sync.Mutex

	opts   Options
	state  State
	logger *zap.Logger
	rng    *rand.Rand

	alpha       float64
	alphaTarget float64
	ticks       uint64

	bodies   []body
	index    map[string]int
	links    []link
	dragging map[string]bool
	spawned  int

	onTick func()
	source PositionSource
}

// New creates an engine for nodes and edges and settles it with a burst of
// synchronous ticks. The tick callback is not invoked while settling.
func New(nodes []graph.Node, edges []graph.Edge, opts ...Option) *Engine {
	cfg := config{
		opts:   DefaultOptions(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		opts:     cfg.opts,
		state:    StateUninitialized,
		logger:   cfg.logger,
		rng:      rand.New(rand.NewSource(cfg.opts.Seed)),
		alpha:    cfg.opts.Alpha,
		index:    make(map[string]int),
		dragging: make(map[string]bool),
		onTick:   cfg.onTick,
		source:   cfg.source,
	}

	e.swap(nodes, edges)

	e.state = StateSettling
	for i := 0; i < e.opts.SettleTicks; i++ {
		e.tick()
	}
	e.updateState()

	e.logger.Debug("Layout settled",
		zap.Int("nodes", len(e.bodies)),
		zap.Int("links", len(e.links)),
		zap.Float64("alpha", e.alpha),
		zap.Stringer("state", e.state),
	)
	return e
}

// Step advances the simulation by one tick and then invokes the tick
// callback. A resting simulation does nothing and reports false.
func (e *Engine) Step() (bool, error) {
	e.mu.Lock()
	if e.state == StateDisposed {
		e.mu.Unlock()
		return false, &SimulationStateError{Op: "step", State: e.state}
	}
	if e.alpha < e.opts.AlphaMin && e.alphaTarget < e.opts.AlphaMin {
		e.state = StateResting
		e.mu.Unlock()
		return false, nil
	}
	e.tick()
	e.updateState()
	onTick := e.onTick
	e.mu.Unlock()

	if onTick != nil {
		onTick()
	}
	return true, nil
}

// tick runs one iteration of every force. Callers hold the lock.
func (e *Engine) tick() {
	e.alpha += (e.alphaTarget - e.alpha) * e.opts.AlphaDecay
	alpha := e.alpha

	applyLinks(e.bodies, e.links, e.opts.LinkDistance, alpha, e.rng)
	applyCharge(e.bodies, e.opts.ChargeStrength, e.opts.Theta, alpha, e.rng)
	applyCollide(e.bodies, e.opts.CollideStrength, e.rng)
	applyCenter(e.bodies, e.opts.CenterStrength, alpha)
	integrate(e.bodies, e.opts.VelocityDecay)

	e.ticks++
}

func (e *Engine) updateState() {
	switch {
	case e.alpha < e.opts.AlphaMin:
		e.state = StateResting
	case e.alphaTarget > 0:
		e.state = StateReheated
	default:
		e.state = StateCooling
	}
}

// Reheat raises the energy target so ticking resumes. Repeated calls do not
// add energy beyond the reheat target.
func (e *Engine) Reheat() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return &SimulationStateError{Op: "reheat", State: e.state}
	}
	e.reheat()
	return nil
}

func (e *Engine) reheat() {
	e.alphaTarget = e.opts.ReheatTarget
	e.alpha = math.Max(e.alpha, e.opts.ReheatTarget)
	e.state = StateReheated
}

// CoolDown lets the energy decay toward zero again
func (e *Engine) CoolDown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return &SimulationStateError{Op: "cool down", State: e.state}
	}
	e.alphaTarget = 0
	e.updateState()
	return nil
}

// IsActive reports whether alpha is still above AlphaMin
func (e *Engine) IsActive() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return false, &SimulationStateError{Op: "query activity", State: e.state}
	}
	return e.alpha > e.opts.AlphaMin, nil
}

// Alpha returns the current energy level
func (e *Engine) Alpha() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return 0, &SimulationStateError{Op: "read alpha", State: e.state}
	}
	return e.alpha, nil
}

// State returns the lifecycle state. It is valid after Stop.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Ticks returns the number of ticks run so far, settling included
func (e *Engine) Ticks() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return 0, &SimulationStateError{Op: "read ticks", State: e.state}
	}
	return e.ticks, nil
}

// Stop disposes the engine from any state and releases its arena
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return &SimulationStateError{Op: "stop", State: e.state}
	}
	e.state = StateDisposed
	e.bodies = nil
	e.index = nil
	e.links = nil
	e.dragging = nil
	e.onTick = nil
	e.source = nil
	return nil
}

// SetGraph replaces the node and edge collections while the engine runs.
// Surviving ids keep their position and velocity; new ids are placed fresh
// and wake the simulation up.
func (e *Engine) SetGraph(nodes []graph.Node, edges []graph.Edge) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return &SimulationStateError{Op: "set graph", State: e.state}
	}

	dragged := len(e.dragging)
	added := e.swap(nodes, edges)
	if added > 0 && e.alpha < e.opts.ReheatTarget {
		e.alpha = e.opts.ReheatTarget
	}
	// Removing the last dragged node ends the drag
	if dragged > 0 && len(e.dragging) == 0 {
		e.alphaTarget = 0
	}
	e.updateState()

	e.logger.Debug("Layout graph swapped",
		zap.Int("nodes", len(e.bodies)),
		zap.Int("added", added),
		zap.Int("links", len(e.links)),
	)
	return nil
}

// swap rebuilds the arena for nodes and relinks edges, returning the number
// of ids that were not in the previous arena
func (e *Engine) swap(nodes []graph.Node, edges []graph.Edge) int {
	bodies := make([]body, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	var fresh []int

	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := index[n.ID]; dup {
			continue
		}
		b := body{id: n.ID, parent: n.ParentDocumentID, radius: e.opts.Radius(n.Kind)}
		if i, ok := e.index[n.ID]; ok {
			old := e.bodies[i]
			b.x, b.y, b.vx, b.vy = old.x, old.y, old.vx, old.vy
			b.pinned, b.fx, b.fy = old.pinned, old.fx, old.fy
		} else {
			fresh = append(fresh, len(bodies))
		}
		index[n.ID] = len(bodies)
		bodies = append(bodies, b)
	}

	// Parentless nodes first so memories can orbit a placed document
	for _, i := range fresh {
		if bodies[i].parent == "" {
			e.place(bodies, index, i)
		}
	}
	for _, i := range fresh {
		if bodies[i].parent != "" {
			e.place(bodies, index, i)
		}
	}

	for id := range e.dragging {
		if _, ok := index[id]; !ok {
			delete(e.dragging, id)
		}
	}

	e.bodies = bodies
	e.index = index
	e.relink(edges)
	return len(fresh)
}

// place assigns an initial position to a body entering the arena
func (e *Engine) place(bodies []body, index map[string]int, i int) {
	b := &bodies[i]
	if e.source != nil {
		if x, y, ok := e.source.Lookup(b.id); ok {
			b.x, b.y = x, y
			return
		}
	}
	if b.parent != "" {
		if p, ok := index[b.parent]; ok && bodies[p].parent == "" {
			parent := bodies[p]
			b.x, b.y = orbitPosition(parent.x, parent.y, e.opts.LinkDistance/4, e.rng)
			return
		}
	}
	b.x, b.y = spiralPosition(e.spawned)
	e.spawned++
}

// relink resolves edges to arena indices. Edges with a missing endpoint are
// dropped.
func (e *Engine) relink(edges []graph.Edge) {
	links := make([]link, 0, len(edges))
	count := make([]int, len(e.bodies))
	for _, edge := range edges {
		s, ok := e.index[edge.Source]
		if !ok {
			continue
		}
		t, ok := e.index[edge.Target]
		if !ok || s == t {
			continue
		}
		links = append(links, link{source: s, target: t, strength: e.opts.LinkStrength(edge)})
		count[s]++
		count[t]++
	}
	for i := range links {
		cs, ct := count[links[i].source], count[links[i].target]
		links[i].bias = float64(cs) / float64(cs+ct)
	}
	e.links = links
}

// StartDrag pins id at its current position and reheats the simulation
func (e *Engine) StartDrag(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return &SimulationStateError{Op: "start drag", State: e.state}
	}
	i, ok := e.index[id]
	if !ok {
		return ErrUnknownNode
	}
	b := &e.bodies[i]
	b.pinned = true
	b.fx, b.fy = b.x, b.y
	e.dragging[id] = true
	e.reheat()
	return nil
}

// DragTo moves the pin of a dragged node
func (e *Engine) DragTo(id string, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return &SimulationStateError{Op: "drag", State: e.state}
	}
	i, ok := e.index[id]
	if !ok {
		return ErrUnknownNode
	}
	if !e.dragging[id] {
		return ErrNotDragging
	}
	b := &e.bodies[i]
	b.fx, b.fy = x, y
	b.x, b.y = x, y
	b.vx, b.vy = 0, 0
	return nil
}

// EndDrag releases id. The simulation cools once no drag remains.
func (e *Engine) EndDrag(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return &SimulationStateError{Op: "end drag", State: e.state}
	}
	i, ok := e.index[id]
	if !ok {
		return ErrUnknownNode
	}
	if !e.dragging[id] {
		return nil
	}
	delete(e.dragging, id)
	e.bodies[i].pinned = false
	if len(e.dragging) == 0 {
		e.alphaTarget = 0
		e.updateState()
	}
	return nil
}

// Position returns the current position of id
func (e *Engine) Position(id string) (float64, float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return 0, 0, &SimulationStateError{Op: "read position", State: e.state}
	}
	i, ok := e.index[id]
	if !ok {
		return 0, 0, ErrUnknownNode
	}
	return e.bodies[i].x, e.bodies[i].y, nil
}

// Snapshot copies every node position in arena order
func (e *Engine) Snapshot() ([]NodePosition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return nil, &SimulationStateError{Op: "snapshot", State: e.state}
	}
	out := make([]NodePosition, len(e.bodies))
	for i, b := range e.bodies {
		out[i] = NodePosition{ID: b.id, X: b.x, Y: b.y, VX: b.vx, VY: b.vy, Pinned: b.pinned}
	}
	return out, nil
}

// Visible returns the ids of nodes inside bounds grown by margin
func (e *Engine) Visible(bounds graph.ViewportBounds, margin float64) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return nil, &SimulationStateError{Op: "cull", State: e.state}
	}
	var ids []string
	for _, b := range e.bodies {
		if bounds.Contains(b.x, b.y, margin) {
			ids = append(ids, b.id)
		}
	}
	return ids, nil
}

// Extent returns the bounding box of all nodes, including their radius.
// An empty layout has a zero extent.
func (e *Engine) Extent() (graph.ViewportBounds, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return graph.ViewportBounds{}, &SimulationStateError{Op: "measure extent", State: e.state}
	}
	if len(e.bodies) == 0 {
		return graph.ViewportBounds{}, nil
	}
	ext := graph.ViewportBounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, b := range e.bodies {
		ext.MinX = math.Min(ext.MinX, b.x-b.radius)
		ext.MaxX = math.Max(ext.MaxX, b.x+b.radius)
		ext.MinY = math.Min(ext.MinY, b.y-b.radius)
		ext.MaxY = math.Max(ext.MaxY, b.y+b.radius)
	}
	return ext, nil
}
