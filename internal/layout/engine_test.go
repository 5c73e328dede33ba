// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package layout

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/mimir-graph/internal/graph"
)

func sampleGraph(docs, memoriesPerDoc int) ([]graph.Node, []graph.Edge) {
	var nodes []graph.Node
	var edges []graph.Edge
	for d := 0; d < docs; d++ {
		docID := fmt.Sprintf("doc-%d", d)
		nodes = append(nodes, graph.Node{ID: docID, Kind: graph.KindDocument})
		for m := 0; m < memoriesPerDoc; m++ {
			memID := graph.MemoryNodeID(docID, fmt.Sprintf("m%d", m))
			nodes = append(nodes, graph.Node{ID: memID, Kind: graph.KindMemory, ParentDocumentID: docID})
			edges = append(edges, graph.NewEdge(docID, memID, 0.5, graph.EdgeDocMemory))
		}
		if d > 0 {
			edges = append(edges, graph.NewEdge(fmt.Sprintf("doc-%d", d-1), docID, 0.8, graph.EdgeDocDoc))
		}
	}
	return nodes, edges
}

func runUntilRest(t *testing.T, e *Engine, limit int) int {
	t.Helper()
	for i := 0; i < limit; i++ {
		moved, err := e.Step()
		require.NoError(t, err)
		if !moved {
			return i
		}
	}
	t.Fatalf("simulation still active after %d steps", limit)
	return limit
}

func TestNew_SettlesWithoutCallback(t *testing.T) {
	var calls atomic.Int32
	nodes, edges := sampleGraph(5, 2)

	e := New(nodes, edges, WithTickCallback(func() { calls.Add(1) }))

	assert.Zero(t, calls.Load())
	ticks, err := e.Ticks()
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultOptions().SettleTicks), ticks)
	assert.Equal(t, StateCooling, e.State())
	active, err := e.IsActive()
	require.NoError(t, err)
	assert.True(t, active)

	snap, err := e.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap, len(nodes))
	for _, p := range snap {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y), "node %s", p.ID)
	}
}

func TestStep_InvokesCallbackOncePerTick(t *testing.T) {
	var calls atomic.Int32
	nodes, edges := sampleGraph(3, 1)
	e := New(nodes, edges, WithTickCallback(func() { calls.Add(1) }))

	for i := 0; i < 5; i++ {
		moved, err := e.Step()
		require.NoError(t, err)
		assert.True(t, moved)
	}
	assert.Equal(t, int32(5), calls.Load())
}

func TestStep_ReachesRestThenReheats(t *testing.T) {
	var calls atomic.Int32
	nodes, edges := sampleGraph(4, 2)
	e := New(nodes, edges, WithTickCallback(func() { calls.Add(1) }))

	runUntilRest(t, e, 1000)
	assert.Equal(t, StateResting, e.State())
	active, err := e.IsActive()
	require.NoError(t, err)
	assert.False(t, active)

	// Resting ticks are no-ops and never repaint
	before := calls.Load()
	moved, err := e.Step()
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, before, calls.Load())

	require.NoError(t, e.Reheat())
	active, err = e.IsActive()
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, StateReheated, e.State())

	moved, err = e.Step()
	require.NoError(t, err)
	assert.True(t, moved)
}

func TestReheat_Idempotent(t *testing.T) {
	nodes, edges := sampleGraph(2, 1)
	e := New(nodes, edges)
	runUntilRest(t, e, 1000)

	require.NoError(t, e.Reheat())
	first, err := e.Alpha()
	require.NoError(t, err)
	require.NoError(t, e.Reheat())
	require.NoError(t, e.Reheat())
	second, err := e.Alpha()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, DefaultOptions().ReheatTarget, second)

	require.NoError(t, e.CoolDown())
	require.NoError(t, e.CoolDown())
	assert.Equal(t, StateCooling, e.State())
	runUntilRest(t, e, 1000)
}

func TestStop_DisposesEngine(t *testing.T) {
	nodes, edges := sampleGraph(2, 1)
	e := New(nodes, edges)
	require.NoError(t, e.Stop())
	assert.Equal(t, StateDisposed, e.State())

	calls := map[string]func() error{
		"step":      func() error { _, err := e.Step(); return err },
		"reheat":    e.Reheat,
		"cooldown":  e.CoolDown,
		"active":    func() error { _, err := e.IsActive(); return err },
		"alpha":     func() error { _, err := e.Alpha(); return err },
		"ticks":     func() error { _, err := e.Ticks(); return err },
		"stop":      e.Stop,
		"set graph": func() error { return e.SetGraph(nodes, edges) },
		"drag":      func() error { return e.StartDrag("doc-0") },
		"drag to":   func() error { return e.DragTo("doc-0", 1, 1) },
		"end drag":  func() error { return e.EndDrag("doc-0") },
		"position":  func() error { _, _, err := e.Position("doc-0"); return err },
		"snapshot":  func() error { _, err := e.Snapshot(); return err },
		"visible":   func() error { _, err := e.Visible(graph.ViewportBounds{}, 0); return err },
		"extent":    func() error { _, err := e.Extent(); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			var stateErr *SimulationStateError
			require.ErrorAs(t, call(), &stateErr)
			assert.Equal(t, StateDisposed, stateErr.State)
		})
	}
}

func TestSetGraph_PreservesSurvivingPositions(t *testing.T) {
	nodes, edges := sampleGraph(3, 1)
	e := New(nodes, edges)
	runUntilRest(t, e, 1000)

	before, err := e.Snapshot()
	require.NoError(t, err)
	positions := map[string]NodePosition{}
	for _, p := range before {
		positions[p.ID] = p
	}

	// Drop doc-2 and its memory, add doc-3 with a memory
	next := append([]graph.Node{}, nodes[:4]...)
	next = append(next,
		graph.Node{ID: "doc-3", Kind: graph.KindDocument},
		graph.Node{ID: "doc-3/m0", Kind: graph.KindMemory, ParentDocumentID: "doc-3"},
	)
	nextEdges := []graph.Edge{
		graph.NewEdge("doc-0", "doc-0/m0", 0.5, graph.EdgeDocMemory),
		graph.NewEdge("doc-3", "doc-3/m0", 0.5, graph.EdgeDocMemory),
		graph.NewEdge("doc-2", "doc-3", 0.9, graph.EdgeDocDoc), // dangling, dropped
	}
	require.NoError(t, e.SetGraph(next, nextEdges))

	for _, id := range []string{"doc-0", "doc-0/m0", "doc-1", "doc-1/m0"} {
		x, y, err := e.Position(id)
		require.NoError(t, err)
		assert.Equal(t, positions[id].X, x, id)
		assert.Equal(t, positions[id].Y, y, id)
	}

	_, _, err = e.Position("doc-2")
	assert.ErrorIs(t, err, ErrUnknownNode)

	dx, dy, err := e.Position("doc-3")
	require.NoError(t, err)
	mx, my, err := e.Position("doc-3/m0")
	require.NoError(t, err)
	assert.InDelta(t, DefaultOptions().LinkDistance/4, math.Hypot(mx-dx, my-dy), 1e-9, "memory orbits its document")

	alpha, err := e.Alpha()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, alpha, DefaultOptions().ReheatTarget, "new nodes wake the simulation")
	assert.Len(t, e.links, 2)
}

func TestSetGraph_RemovalOnlyDoesNotReheat(t *testing.T) {
	nodes, edges := sampleGraph(3, 0)
	e := New(nodes, edges)
	runUntilRest(t, e, 1000)

	require.NoError(t, e.SetGraph(nodes[:2], edges[:1]))
	active, err := e.IsActive()
	require.NoError(t, err)
	assert.False(t, active)
}

type mapSource map[string][2]float64

func (m mapSource) Lookup(id string) (float64, float64, bool) {
	p, ok := m[id]
	return p[0], p[1], ok
}

func TestPositionSourceSeedsNewNodes(t *testing.T) {
	src := mapSource{"doc-0": {1234, -567}}
	e := New([]graph.Node{{ID: "doc-0", Kind: graph.KindDocument}}, nil,
		WithPositionSource(src),
		WithOptions(func() Options { o := DefaultOptions(); o.SettleTicks = 0; return o }()),
	)

	x, y, err := e.Position("doc-0")
	require.NoError(t, err)
	assert.Equal(t, 1234.0, x)
	assert.Equal(t, -567.0, y)
}

func TestDrag(t *testing.T) {
	nodes, edges := sampleGraph(3, 1)
	e := New(nodes, edges)
	runUntilRest(t, e, 1000)

	assert.ErrorIs(t, e.DragTo("doc-1", 0, 0), ErrNotDragging)
	assert.ErrorIs(t, e.StartDrag("nope"), ErrUnknownNode)

	require.NoError(t, e.StartDrag("doc-1"))
	assert.Equal(t, StateReheated, e.State())
	require.NoError(t, e.DragTo("doc-1", 500, 500))

	for i := 0; i < 10; i++ {
		_, err := e.Step()
		require.NoError(t, err)
	}
	x, y, err := e.Position("doc-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, x, "pinned node follows the pointer only")
	assert.Equal(t, 500.0, y)

	require.NoError(t, e.EndDrag("doc-1"))
	require.NoError(t, e.EndDrag("doc-1"))
	assert.Equal(t, StateCooling, e.State())
	runUntilRest(t, e, 1000)
}

func TestDrag_RemovedBySetGraphCoolsDown(t *testing.T) {
	nodes, edges := sampleGraph(3, 0)
	e := New(nodes, edges)
	runUntilRest(t, e, 1000)

	require.NoError(t, e.StartDrag("doc-0"))
	assert.Equal(t, StateReheated, e.State())

	require.NoError(t, e.SetGraph(nodes[1:], edges[1:]))
	assert.Equal(t, StateCooling, e.State())
	assert.Empty(t, e.dragging)
	assert.ErrorIs(t, e.EndDrag("doc-0"), ErrUnknownNode)

	runUntilRest(t, e, 1000)
	assert.Equal(t, StateResting, e.State())
}

func TestDrag_SetGraphKeepsOtherDrags(t *testing.T) {
	nodes, edges := sampleGraph(3, 0)
	e := New(nodes, edges)

	require.NoError(t, e.StartDrag("doc-0"))
	require.NoError(t, e.StartDrag("doc-1"))
	require.NoError(t, e.SetGraph(nodes[1:], edges[1:]))
	assert.Equal(t, StateReheated, e.State())

	require.NoError(t, e.EndDrag("doc-1"))
	assert.Equal(t, StateCooling, e.State())
}

func TestDrag_RapidStartStop(t *testing.T) {
	nodes, edges := sampleGraph(3, 1)
	e := New(nodes, edges)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("doc-%d", w%3)
			for i := 0; i < 50; i++ {
				_ = e.StartDrag(id)
				_ = e.DragTo(id, float64(i), float64(w))
				_, _ = e.Step()
				_ = e.EndDrag(id)
			}
		}(w)
	}
	wg.Wait()

	snap, err := e.Snapshot()
	require.NoError(t, err)
	for _, p := range snap {
		assert.False(t, p.Pinned, p.ID)
		assert.False(t, math.IsNaN(p.X), p.ID)
	}
	assert.Empty(t, e.dragging)
}

func TestVisibleAndExtent(t *testing.T) {
	opts := DefaultOptions()
	opts.SettleTicks = 0
	e := New([]graph.Node{
		{ID: "a", Kind: graph.KindDocument},
		{ID: "b", Kind: graph.KindMemory},
	}, nil, WithOptions(opts), WithPositionSource(mapSource{"a": {0, 0}, "b": {1000, 0}}))

	ids, err := e.Visible(graph.ViewportBounds{MinX: -100, MaxX: 100, MinY: -100, MaxY: 100}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	ids, err = e.Visible(graph.ViewportBounds{MinX: -100, MaxX: 100, MinY: -100, MaxY: 100}, 900)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ext, err := e.Extent()
	require.NoError(t, err)
	assert.Equal(t, graph.ViewportBounds{MinX: -80, MaxX: 1040, MinY: -80, MaxY: 80}, ext)
}

func TestEmptyGraph(t *testing.T) {
	e := New(nil, nil)
	ext, err := e.Extent()
	require.NoError(t, err)
	assert.Equal(t, graph.ViewportBounds{}, ext)
	runUntilRest(t, e, 1000)
}

func TestDeterministicWithSeed(t *testing.T) {
	nodes, edges := sampleGraph(6, 2)
	a, err := New(nodes, edges).Snapshot()
	require.NoError(t, err)
	b, err := New(nodes, edges).Snapshot()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "resting", StateResting.String())
	assert.Equal(t, "state(42)", State(42).String())
	err := &SimulationStateError{Op: "step", State: StateDisposed}
	assert.Equal(t, "layout: cannot step: simulation is disposed", err.Error())
}
