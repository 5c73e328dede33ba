// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package embeddings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionVisualProps_Bounds(t *testing.T) {
	zero := ConnectionVisualProps(0)
	assert.Equal(t, 0.0, zero.Opacity)
	assert.Equal(t, 1.0, zero.Thickness)
	assert.Equal(t, 0.0, zero.Glow)
	assert.Equal(t, 5000*time.Millisecond, zero.PulseDuration)

	one := ConnectionVisualProps(1)
	assert.Equal(t, 1.0, one.Opacity)
	assert.Equal(t, 4.0, one.Thickness)
	assert.InDelta(t, 0.6, one.Glow, 1e-9)
	assert.Equal(t, 2000*time.Millisecond, one.PulseDuration)
}

func TestConnectionVisualProps_ClampsInput(t *testing.T) {
	assert.Equal(t, ConnectionVisualProps(1), ConnectionVisualProps(3))
	assert.Equal(t, ConnectionVisualProps(0), ConnectionVisualProps(-2))

	mid := ConnectionVisualProps(0.5)
	assert.Equal(t, 2.0, mid.Thickness)
	assert.Equal(t, 3500*time.Millisecond, mid.PulseDuration)
}

func TestConnectionColor(t *testing.T) {
	assert.Equal(t, "hsl(220, 60%, 40%)", ConnectionColor(0))
	assert.Equal(t, "hsl(220, 100%, 70%)", ConnectionColor(1))
	assert.Equal(t, "hsl(220, 80%, 55%)", ConnectionColor(0.5))
	assert.Equal(t, "hsl(140, 100%, 70%)", ConnectionColorWithHue(2, 140))
}
