// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

import (
	"math"

	"github.com/tejzpr/mimir-graph/internal/api"
)

// unitVector returns a normalized vector of dim entries pointing along axis,
// tilted towards the next axis by angle radians
func unitVector(dim, axis int, angle float64) []float32 {
	v := make([]float32, dim)
	v[axis%dim] = float32(math.Cos(angle))
	v[(axis+1)%dim] = float32(math.Sin(angle))
	return v
}

func strPtr(s string) *string { return &s }

func doc(id string, embedding []float32, memories ...api.MemoryEntry) api.Document {
	return api.Document{ID: id, Embedding: embedding, MemoryEntries: memories}
}

func memory(id string) api.MemoryEntry {
	return api.MemoryEntry{ID: id, Content: "memory " + id}
}
