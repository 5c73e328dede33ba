// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEdge_ClampsAndDerivesVisuals(t *testing.T) {
	e := NewEdge("a", "b", 1.7, EdgeDocDoc)
	assert.Equal(t, 1.0, e.Similarity)
	assert.Equal(t, 1.0, e.Opacity)
	assert.Equal(t, 4.0, e.Thickness)
	assert.Equal(t, 2*time.Second, e.PulseDuration)

	e = NewEdge("a", "b", -0.3, EdgeDocDoc)
	assert.Equal(t, 0.0, e.Similarity)
	assert.Equal(t, 1.0, e.Thickness)
	assert.Equal(t, 5*time.Second, e.PulseDuration)
	assert.Equal(t, "hsl(220, 60%, 40%)", e.Color)
}

func TestNewGraph_DropsInvalidEdges(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "a", Label: "dup"}, {ID: ""}}
	edges := []Edge{
		NewEdge("a", "b", 0.9, EdgeDocDoc),
		NewEdge("b", "a", 0.8, EdgeDocDoc),
		NewEdge("a", "ghost", 0.9, EdgeDocDoc),
		NewEdge("a", "a", 0.9, EdgeDocDoc),
	}

	g := NewGraph(nodes, edges)

	require.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Nodes[0].Label, "first node with an id wins")
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 0.9, g.Edges[0].Similarity)
}

func TestGraph_HoverAndDrag(t *testing.T) {
	g := NewGraph([]Node{{ID: "a"}, {ID: "b"}}, nil)

	require.NoError(t, g.SetHovered("a"))
	require.NoError(t, g.SetHovered("b"))
	assert.False(t, g.Nodes[0].Hovered)
	assert.True(t, g.Nodes[1].Hovered)

	require.NoError(t, g.SetHovered(""))
	assert.False(t, g.Nodes[1].Hovered)

	assert.ErrorIs(t, g.SetHovered("x"), ErrNodeNotFound)
	require.NoError(t, g.SetDragging("a", true))
	assert.True(t, g.Nodes[0].Dragging)
	assert.ErrorIs(t, g.SetDragging("x", true), ErrNodeNotFound)
}

func TestPairKey_Undirected(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.NotEqual(t, PairKey("a", "bc"), PairKey("ab", "c"))
}

func TestViewportBounds(t *testing.T) {
	b := ViewportBounds{MinX: -100, MaxX: 100, MinY: -50, MaxY: 50}

	assert.True(t, b.Valid())
	assert.Equal(t, 200.0, b.Width())
	assert.Equal(t, 100.0, b.Height())
	cx, cy := b.Center()
	assert.Equal(t, 0.0, cx)
	assert.Equal(t, 0.0, cy)

	assert.True(t, b.Contains(100, 50, 0))
	assert.False(t, b.Contains(120, 0, 0))
	assert.True(t, b.Contains(120, 0, 25))

	assert.Equal(t, ViewportBounds{MinX: -110, MaxX: 110, MinY: -60, MaxY: 60}, b.Expand(10))
	assert.Equal(t, ViewportBounds{MinX: -100, MaxX: 300, MinY: -50, MaxY: 50},
		b.Union(ViewportBounds{MinX: 0, MaxX: 300, MinY: 0, MaxY: 10}))

	outer := ViewportBounds{MinX: -500, MaxX: 500, MinY: -500, MaxY: 500}
	assert.Equal(t, 400.0, EdgeDistance(b, outer))
	assert.False(t, ViewportBounds{MinX: 1, MaxX: 0}.Valid())
}
