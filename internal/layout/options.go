// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package layout

import (
	"math"

	"github.com/tejzpr/mimir-graph/internal/graph"
	"go.uber.org/zap"
)

// Options holds the physical constants of the simulation
type Options struct {
	LinkDistance        float64 `json:"linkDistance" yaml:"linkDistance"`
	DocMemoryStrength   float64 `json:"docMemoryStrength" yaml:"docMemoryStrength"`
	VersionStrength     float64 `json:"versionStrength" yaml:"versionStrength"`
	DocDocStrengthScale float64 `json:"docDocStrengthScale" yaml:"docDocStrengthScale"`

	ChargeStrength float64 `json:"chargeStrength" yaml:"chargeStrength"`
	Theta          float64 `json:"theta" yaml:"theta"`

	CollideStrength float64 `json:"collideStrength" yaml:"collideStrength"`
	DocumentRadius  float64 `json:"documentRadius" yaml:"documentRadius"`
	MemoryRadius    float64 `json:"memoryRadius" yaml:"memoryRadius"`

	CenterStrength float64 `json:"centerStrength" yaml:"centerStrength"`
	VelocityDecay  float64 `json:"velocityDecay" yaml:"velocityDecay"`

	Alpha        float64 `json:"alpha" yaml:"alpha"`
	AlphaMin     float64 `json:"alphaMin" yaml:"alphaMin"`
	AlphaDecay   float64 `json:"alphaDecay" yaml:"alphaDecay"`
	ReheatTarget float64 `json:"reheatTarget" yaml:"reheatTarget"`
	SettleTicks  int     `json:"settleTicks" yaml:"settleTicks"`

	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultOptions returns the standard layout constants. AlphaDecay takes
// alpha from 1 to AlphaMin in roughly 300 ticks.
func DefaultOptions() Options {
	return Options{
		LinkDistance:        300,
		DocMemoryStrength:   0.8,
		VersionStrength:     1.0,
		DocDocStrengthScale: 0.3,
		ChargeStrength:      -1000,
		Theta:               0.9,
		CollideStrength:     0.7,
		DocumentRadius:      80,
		MemoryRadius:        40,
		CenterStrength:      0.05,
		VelocityDecay:       0.6,
		Alpha:               1,
		AlphaMin:            0.001,
		AlphaDecay:          1 - math.Pow(0.001, 1.0/300),
		ReheatTarget:        0.3,
		SettleTicks:         50,
		Seed:                1,
	}
}

// LinkStrength returns the spring strength for an edge
func (o Options) LinkStrength(e graph.Edge) float64 {
	switch e.Type {
	case graph.EdgeDocMemory:
		return o.DocMemoryStrength
	case graph.EdgeVersion:
		return o.VersionStrength
	default:
		return e.Similarity * o.DocDocStrengthScale
	}
}

// Radius returns the collision radius for a node kind
func (o Options) Radius(kind graph.NodeKind) float64 {
	if kind == graph.KindMemory {
		return o.MemoryRadius
	}
	return o.DocumentRadius
}

// PositionSource supplies remembered positions for nodes entering the layout
type PositionSource interface {
	Lookup(id string) (x, y float64, ok bool)
}

type config struct {
	opts   Options
	onTick func()
	source PositionSource
	logger *zap.Logger
}

// Option configures an Engine
type Option func(*config)

// WithOptions replaces the physical constants
func WithOptions(opts Options) Option {
	return func(c *config) {
		c.opts = opts
	}
}

// WithTickCallback registers fn to run once after every tick that moved
// nodes. It carries no payload; read positions from the engine.
func WithTickCallback(fn func()) Option {
	return func(c *config) {
		c.onTick = fn
	}
}

// WithPositionSource seeds new nodes from remembered positions
func WithPositionSource(src PositionSource) Option {
	return func(c *config) {
		c.source = src
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
