// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package layout

import "math"

// maxQuadDepth stops subdivision for points that are nearly coincident
const maxQuadDepth = 32

// quad is a square cell of a point quadtree. Leaves hold item indices;
// internal cells hold up to four children.
type quad struct {
	x0, y0, x1 float64 // square cell: y1 = y0 + (x1 - x0)
	children   [4]*quad
	items      []int
	leaf       bool

	// Aggregates filled in by the force that owns the tree
	cx, cy float64 // center of mass
	value  float64 // total charge, or max radius for collision
}

func (q *quad) width() float64 {
	return q.x1 - q.x0
}

// buildQuadtree indexes the points (xs[i], ys[i]) in a tree covering all of them
func buildQuadtree(xs, ys []float64) *quad {
	if len(xs) == 0 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	size := math.Max(maxX-minX, maxY-minY)
	if size == 0 {
		size = 1
	}

	items := make([]int, len(xs))
	for i := range items {
		items[i] = i
	}
	return subdivide(xs, ys, items, minX, minY, minX+size, 0)
}

func subdivide(xs, ys []float64, items []int, x0, y0, x1 float64, depth int) *quad {
	q := &quad{x0: x0, y0: y0, x1: x1}
	if len(items) == 1 || depth >= maxQuadDepth || coincident(xs, ys, items) {
		q.leaf = true
		q.items = items
		return q
	}

	mx := (x0 + x1) / 2
	my := y0 + (x1-x0)/2
	var parts [4][]int
	for _, i := range items {
		idx := 0
		if xs[i] >= mx {
			idx |= 1
		}
		if ys[i] >= my {
			idx |= 2
		}
		parts[idx] = append(parts[idx], i)
	}

	half := (x1 - x0) / 2
	for idx, part := range parts {
		if len(part) == 0 {
			continue
		}
		cx0 := x0
		if idx&1 != 0 {
			cx0 = mx
		}
		cy0 := y0
		if idx&2 != 0 {
			cy0 = my
		}
		q.children[idx] = subdivide(xs, ys, part, cx0, cy0, cx0+half, depth+1)
	}
	return q
}

func coincident(xs, ys []float64, items []int) bool {
	first := items[0]
	for _, i := range items[1:] {
		if xs[i] != xs[first] || ys[i] != ys[first] {
			return false
		}
	}
	return true
}

// visitAfter calls fn for every cell, children before parents
func (q *quad) visitAfter(fn func(*quad)) {
	if q == nil {
		return
	}
	for _, c := range q.children {
		c.visitAfter(fn)
	}
	fn(q)
}

// visit calls fn for every cell, parents first. Returning true skips the
// cell's children.
func (q *quad) visit(fn func(*quad) bool) {
	if q == nil {
		return
	}
	if fn(q) {
		return
	}
	for _, c := range q.children {
		c.visit(fn)
	}
}
