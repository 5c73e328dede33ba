// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memgraph

import (
	"time"

	"github.com/tejzpr/mimir-graph/internal/database"
	"github.com/tejzpr/mimir-graph/internal/graph"
	"github.com/tejzpr/mimir-graph/internal/layout"
	"github.com/tejzpr/mimir-graph/internal/loader"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"github.com/tejzpr/mimir-graph/pkg/scheduler"
	"go.uber.org/zap"
)

// DefaultLoadMoreThreshold is how close, in layout units, the viewport edge
// may come to the laid-out extent before the next page is requested
const DefaultLoadMoreThreshold = 200.0

// DefaultVisibleMargin pads the viewport when listing visible nodes
const DefaultVisibleMargin = 100.0

// Options configures an Instance
type Options struct {
	Filter            loader.Filter
	Selector          graph.SelectorOptions
	Layout            layout.Options
	TickInterval      time.Duration
	LoadMoreThreshold float64
	VisibleMargin     float64

	// ManualTicks leaves the engine without a scheduler; callers drive it
	// through Settle
	ManualTicks bool
}

// DefaultOptions returns options for an interactive instance
func DefaultOptions() Options {
	return Options{
		Selector:          graph.DefaultSelectorOptions(),
		Layout:            layout.DefaultOptions(),
		TickInterval:      scheduler.DefaultInterval,
		LoadMoreThreshold: DefaultLoadMoreThreshold,
		VisibleMargin:     DefaultVisibleMargin,
	}
}

// Option configures an Instance
type Option func(*Instance)

// WithOptions replaces the instance options
func WithOptions(opts Options) Option {
	return func(i *Instance) {
		i.opts = opts
	}
}

// WithStore persists positions between runs
func WithStore(store *database.Store) Option {
	return func(i *Instance) {
		i.store = store
	}
}

// WithMetrics reports ticks and graph sizes
func WithMetrics(c *observability.Collector) Option {
	return func(i *Instance) {
		i.metrics = c
	}
}

// WithTickCallback registers fn to run after every simulation tick, the
// signal to repaint. It runs on the ticking goroutine outside the engine
// lock, keeps running across filter changes and must not block.
func WithTickCallback(fn func()) Option {
	return func(i *Instance) {
		i.onTick = fn
	}
}

// WithLogger sets the instance logger
func WithLogger(logger *zap.Logger) Option {
	return func(i *Instance) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithClock overrides time.Now for memory status and run durations
func WithClock(now func() time.Time) Option {
	return func(i *Instance) {
		if now != nil {
			i.now = now
		}
	}
}
