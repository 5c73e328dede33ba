// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

// ViewportBounds is the visible region in layout coordinates. It is advisory:
// culling and incremental loading use it, nothing else depends on it.
type ViewportBounds struct {
	MinX float64 `json:"minX" yaml:"minX"`
	MaxX float64 `json:"maxX" yaml:"maxX"`
	MinY float64 `json:"minY" yaml:"minY"`
	MaxY float64 `json:"maxY" yaml:"maxY"`
}

// Valid reports whether the bounds describe a non-inverted region
func (b ViewportBounds) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Width of the region
func (b ViewportBounds) Width() float64 { return b.MaxX - b.MinX }

// Height of the region
func (b ViewportBounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the region
func (b ViewportBounds) Center() (float64, float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Expand grows the region by margin on every side
func (b ViewportBounds) Expand(margin float64) ViewportBounds {
	return ViewportBounds{
		MinX: b.MinX - margin,
		MaxX: b.MaxX + margin,
		MinY: b.MinY - margin,
		MaxY: b.MaxY + margin,
	}
}

// Contains reports whether (x, y) lies inside the region grown by margin
func (b ViewportBounds) Contains(x, y, margin float64) bool {
	return x >= b.MinX-margin && x <= b.MaxX+margin &&
		y >= b.MinY-margin && y <= b.MaxY+margin
}

// Union returns the smallest region covering both b and o
func (b ViewportBounds) Union(o ViewportBounds) ViewportBounds {
	return ViewportBounds{
		MinX: min(b.MinX, o.MinX),
		MaxX: max(b.MaxX, o.MaxX),
		MinY: min(b.MinY, o.MinY),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// EdgeDistance returns how far inside the outer region the inner region's
// closest edge sits. Negative values mean inner pokes out of outer.
func EdgeDistance(inner, outer ViewportBounds) float64 {
	return min(
		inner.MinX-outer.MinX,
		outer.MaxX-inner.MaxX,
		inner.MinY-outer.MinY,
		outer.MaxY-inner.MaxY,
	)
}
