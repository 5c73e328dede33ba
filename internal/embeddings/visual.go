// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package embeddings

import (
	"fmt"
	"math"
	"time"
)

// DefaultConnectionHue is the base hue of connection colors
const DefaultConnectionHue = 220

// VisualProps holds the rendering parameters derived from a similarity
type VisualProps struct {
	Opacity       float64
	Thickness     float64
	Glow          float64
	PulseDuration time.Duration // stronger bonds pulse faster
}

// ConnectionVisualProps maps a similarity to edge rendering parameters
func ConnectionVisualProps(similarity float64) VisualProps {
	s := Clamp01(similarity)
	pulseMillis := 2000 + (1-s)*3000
	return VisualProps{
		Opacity:       s,
		Thickness:     math.Max(1, s*4),
		Glow:          s * 0.6,
		PulseDuration: time.Duration(pulseMillis * float64(time.Millisecond)),
	}
}

// ConnectionColor returns the HSL color for a similarity using DefaultConnectionHue
func ConnectionColor(similarity float64) string {
	return ConnectionColorWithHue(similarity, DefaultConnectionHue)
}

// ConnectionColorWithHue maps similarity linearly onto saturation [60%, 100%]
// and lightness [40%, 70%] at the given hue
func ConnectionColorWithHue(similarity, hue float64) string {
	s := Clamp01(similarity)
	saturation := 60 + s*40
	lightness := 40 + s*30
	return fmt.Sprintf("hsl(%g, %.0f%%, %.0f%%)", hue, saturation, lightness)
}
