// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package layout

import (
	"math"
	"math/rand"
)

const (
	initialRadius = 10.0
	// golden angle
	initialAngle = math.Pi * (3 - 2.23606797749979)
)

// spiralPosition returns the i-th point of a phyllotaxis spiral, which
// spreads new nodes evenly around the origin without overlap
func spiralPosition(i int) (float64, float64) {
	r := initialRadius * math.Sqrt(0.5+float64(i))
	a := float64(i) * initialAngle
	return r * math.Cos(a), r * math.Sin(a)
}

// orbitPosition places a node at a random angle around (cx, cy)
func orbitPosition(cx, cy, distance float64, rng *rand.Rand) (float64, float64) {
	a := rng.Float64() * 2 * math.Pi
	return cx + distance*math.Cos(a), cy + distance*math.Sin(a)
}
