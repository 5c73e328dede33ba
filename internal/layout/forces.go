// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package layout

import (
	"math"
	"math/rand"
)

// chargeDistanceMin2 keeps the repulsion finite for overlapping bodies
const chargeDistanceMin2 = 1.0

// body is one node in the arena
type body struct {
	id     string
	parent string
	radius float64

	x, y   float64
	vx, vy float64

	pinned bool
	fx, fy float64
}

// link is an edge resolved to arena indices
type link struct {
	source, target int
	strength       float64
	bias           float64 // share of the correction applied to the target
}

func jiggle(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 1e-6
}

// applyLinks pulls linked bodies toward distance apart. Lightly connected
// endpoints move more than heavily connected ones.
func applyLinks(bodies []body, links []link, distance, alpha float64, rng *rand.Rand) {
	for _, l := range links {
		s, t := &bodies[l.source], &bodies[l.target]

		x := t.x + t.vx - s.x - s.vx
		if x == 0 {
			x = jiggle(rng)
		}
		y := t.y + t.vy - s.y - s.vy
		if y == 0 {
			y = jiggle(rng)
		}

		d := math.Sqrt(x*x + y*y)
		k := (d - distance) / d * alpha * l.strength
		x *= k
		y *= k

		t.vx -= x * l.bias
		t.vy -= y * l.bias
		s.vx += x * (1 - l.bias)
		s.vy += y * (1 - l.bias)
	}
}

// applyCharge repels every body from every other with the Barnes-Hut
// approximation: cells that look small from a body act as one point mass
func applyCharge(bodies []body, strength, theta, alpha float64, rng *rand.Rand) {
	if len(bodies) < 2 || strength == 0 {
		return
	}

	xs := make([]float64, len(bodies))
	ys := make([]float64, len(bodies))
	for i := range bodies {
		xs[i], ys[i] = bodies[i].x, bodies[i].y
	}
	root := buildQuadtree(xs, ys)

	root.visitAfter(func(q *quad) {
		if q.leaf {
			q.cx, q.cy = 0, 0
			for _, i := range q.items {
				q.cx += xs[i]
				q.cy += ys[i]
			}
			n := float64(len(q.items))
			q.cx /= n
			q.cy /= n
			q.value = strength * n
			return
		}
		var weight, cx, cy, value float64
		for _, c := range q.children {
			if c == nil || c.value == 0 {
				continue
			}
			w := math.Abs(c.value)
			value += c.value
			weight += w
			cx += w * c.cx
			cy += w * c.cy
		}
		if weight > 0 {
			q.cx, q.cy = cx/weight, cy/weight
		}
		q.value = value
	})

	theta2 := theta * theta
	for i := range bodies {
		b := &bodies[i]
		root.visit(func(q *quad) bool {
			if q.value == 0 {
				return true
			}
			x := q.cx - b.x
			y := q.cy - b.y
			l := x*x + y*y
			w := q.width()

			if w*w/theta2 < l {
				if x == 0 {
					x = jiggle(rng)
					l += x * x
				}
				if y == 0 {
					y = jiggle(rng)
					l += y * y
				}
				if l < chargeDistanceMin2 {
					l = math.Sqrt(chargeDistanceMin2 * l)
				}
				b.vx += x * q.value * alpha / l
				b.vy += y * q.value * alpha / l
				return true
			}
			if !q.leaf {
				return false
			}

			per := strength * alpha
			for _, j := range q.items {
				if j == i {
					continue
				}
				x := xs[j] - b.x
				y := ys[j] - b.y
				if x == 0 {
					x = jiggle(rng)
				}
				if y == 0 {
					y = jiggle(rng)
				}
				l := x*x + y*y
				if l < chargeDistanceMin2 {
					l = math.Sqrt(chargeDistanceMin2 * l)
				}
				b.vx += x * per / l
				b.vy += y * per / l
			}
			return true
		})
	}
}

// applyCollide pushes apart bodies whose predicted positions overlap
func applyCollide(bodies []body, strength float64, rng *rand.Rand) {
	if len(bodies) < 2 || strength == 0 {
		return
	}

	xs := make([]float64, len(bodies))
	ys := make([]float64, len(bodies))
	for i := range bodies {
		xs[i] = bodies[i].x + bodies[i].vx
		ys[i] = bodies[i].y + bodies[i].vy
	}
	root := buildQuadtree(xs, ys)
	root.visitAfter(func(q *quad) {
		q.value = 0
		if q.leaf {
			for _, i := range q.items {
				q.value = math.Max(q.value, bodies[i].radius)
			}
			return
		}
		for _, c := range q.children {
			if c != nil {
				q.value = math.Max(q.value, c.value)
			}
		}
	})

	for i := range bodies {
		b := &bodies[i]
		ri := b.radius
		ri2 := ri * ri
		xi, yi := b.x+b.vx, b.y+b.vy

		root.visit(func(q *quad) bool {
			r := ri + q.value
			if q.leaf {
				for _, j := range q.items {
					// Each pair is resolved once, from its lower index
					if j <= i {
						continue
					}
					o := &bodies[j]
					rj := o.radius
					rr := ri + rj
					x := xi - o.x - o.vx
					y := yi - o.y - o.vy
					l := x*x + y*y
					if l >= rr*rr {
						continue
					}
					if x == 0 {
						x = jiggle(rng)
						l += x * x
					}
					if y == 0 {
						y = jiggle(rng)
						l += y * y
					}
					l = math.Sqrt(l)
					l = (rr - l) / l * strength
					x *= l
					y *= l
					share := rj * rj / (ri2 + rj*rj)
					b.vx += x * share
					b.vy += y * share
					o.vx -= x * (1 - share)
					o.vy -= y * (1 - share)
				}
				return true
			}
			y1 := q.y0 + q.width()
			return q.x0 > xi+r || q.x1 < xi-r || q.y0 > yi+r || y1 < yi-r
		})
	}
}

// applyCenter nudges every body toward the origin
func applyCenter(bodies []body, strength, alpha float64) {
	k := strength * alpha
	for i := range bodies {
		bodies[i].vx -= bodies[i].x * k
		bodies[i].vy -= bodies[i].y * k
	}
}

// integrate damps velocities and moves bodies. Pinned bodies stay on their pin.
func integrate(bodies []body, velocityDecay float64) {
	keep := 1 - velocityDecay
	for i := range bodies {
		b := &bodies[i]
		if b.pinned {
			b.x, b.y = b.fx, b.fy
			b.vx, b.vy = 0, 0
			continue
		}
		b.vx *= keep
		b.vy *= keep
		b.x += b.vx
		b.y += b.vy
	}
}
