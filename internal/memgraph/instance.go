// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memgraph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/database"
	"github.com/tejzpr/mimir-graph/internal/embeddings"
	"github.com/tejzpr/mimir-graph/internal/export"
	"github.com/tejzpr/mimir-graph/internal/graph"
	"github.com/tejzpr/mimir-graph/internal/layout"
	"github.com/tejzpr/mimir-graph/internal/loader"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"github.com/tejzpr/mimir-graph/pkg/scheduler"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by every operation after Close
	ErrClosed = errors.New("graph instance is closed")

	// ErrInvalidViewport is returned for inverted viewport bounds
	ErrInvalidViewport = errors.New("invalid viewport bounds")
)

// ViewportResult is the outcome of a viewport update
type ViewportResult struct {
	Visible       []string             `json:"visible"`
	Extent        graph.ViewportBounds `json:"extent"`
	LoadTriggered bool                 `json:"loadTriggered"`
	Load          *loader.LoadResult   `json:"load,omitempty"`
}

// Instance is one live memory graph: loaded documents, the graph built from
// them and the simulation laying it out. Instances share nothing.
type Instance struct {
	id      string
	loader  *loader.Loader
	builder *graph.Builder
	store   *database.Store
	metrics *observability.Collector
	onTick  func()
	logger  *zap.Logger
	opts    Options
	now     func() time.Time
	started time.Time

	mu       sync.RWMutex
	graph    *graph.Graph
	graphKey string
	tags     []string
	engine   *layout.Engine
	sched    *scheduler.Scheduler
	hovered  string
	dragging map[string]bool
	closed   bool
}

// New loads the first page for the configured filter, builds the graph and
// starts laying it out
func New(ctx context.Context, l *loader.Loader, opts ...Option) (*Instance, error) {
	i := &Instance{
		id:       uuid.NewString(),
		loader:   l,
		logger:   zap.NewNop(),
		opts:     DefaultOptions(),
		now:      time.Now,
		dragging: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.applyDefaults()
	i.logger = i.logger.With(zap.String("instance", i.id))
	i.builder = graph.NewBuilder(
		graph.WithSelector(graph.NewSelector(i.opts.Selector, i.logger)),
		graph.WithClock(i.now),
		graph.WithLogger(i.logger),
	)
	i.started = i.now()

	res, err := l.Load(ctx, i.opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load first page: %w", err)
	}
	if res.Canceled {
		return nil, fmt.Errorf("failed to load first page: %w", api.ErrCanceled)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.startEngineLocked(ctx)

	i.logger.Info("Graph instance created",
		zap.String("graph_key", i.graphKey),
		zap.Int("documents", res.Added),
		zap.Int("nodes", len(i.graph.Nodes)),
		zap.Int("edges", len(i.graph.Edges)),
		zap.Bool("has_more", res.HasMore),
	)
	return i, nil
}

func (i *Instance) applyDefaults() {
	defaults := DefaultOptions()
	if i.opts.Layout == (layout.Options{}) {
		i.opts.Layout = defaults.Layout
	}
	if i.opts.TickInterval <= 0 {
		i.opts.TickInterval = defaults.TickInterval
	}
	if i.opts.LoadMoreThreshold <= 0 {
		i.opts.LoadMoreThreshold = defaults.LoadMoreThreshold
	}
	if i.opts.VisibleMargin < 0 {
		i.opts.VisibleMargin = defaults.VisibleMargin
	}
}

// ID returns the instance id
func (i *Instance) ID() string {
	return i.id
}

// GraphKey identifies the current filter, and with it the saved positions
func (i *Instance) GraphKey() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.graphKey
}

// Filter returns the filter documents are loaded with
func (i *Instance) Filter() loader.Filter {
	return i.loader.Filter()
}

// HasMore reports whether further pages exist
func (i *Instance) HasMore() bool {
	return i.loader.HasMore()
}

// startEngineLocked builds the graph for the loader's current documents and
// starts a fresh engine for it
func (i *Instance) startEngineLocked(ctx context.Context) {
	filter := i.loader.Filter()
	i.tags = filter.ContainerTags
	i.graphKey = embeddings.FilterKey(filter.ContainerTags)
	i.graph = i.buildLocked()

	engineOpts := []layout.Option{
		layout.WithOptions(i.opts.Layout),
		layout.WithLogger(i.logger),
	}
	if onTick := i.tickCallback(); onTick != nil {
		engineOpts = append(engineOpts, layout.WithTickCallback(onTick))
	}
	if i.store != nil {
		seeds, err := i.store.LoadPositions(ctx, i.graphKey)
		if err != nil {
			i.logger.Warn("Failed to load saved positions", zap.Error(err))
		} else if len(seeds) > 0 {
			engineOpts = append(engineOpts, layout.WithPositionSource(seeds))
		}
	}

	i.engine = layout.New(i.graph.Nodes, i.graph.Edges, engineOpts...)
	i.sched = nil
	if !i.opts.ManualTicks {
		i.sched = scheduler.NewScheduler(i.engine, i.opts.TickInterval, i.logger)
		i.sched.Start()
	}
	i.recordGraphLocked()
}

// tickCallback combines tick metrics with the caller's callback
func (i *Instance) tickCallback() func() {
	render := i.onTick
	if i.metrics == nil {
		return render
	}
	observe := i.metrics.ObserveTick
	if render == nil {
		return observe
	}
	return func() {
		observe()
		render()
	}
}

// stopEngineLocked joins the tick loop, saves positions and disposes the engine
func (i *Instance) stopEngineLocked(ctx context.Context) error {
	if i.sched != nil {
		i.sched.Stop()
		i.sched = nil
	}
	saveErr := i.persistLocked(ctx)
	if err := i.engine.Stop(); err != nil {
		return errors.Join(saveErr, err)
	}
	return saveErr
}

// buildLocked builds a graph from the loaded documents and carries hover
// and drag flags over by id
func (i *Instance) buildLocked() *graph.Graph {
	g := i.builder.Build(i.loader.Documents())
	if i.hovered != "" {
		if err := g.SetHovered(i.hovered); err != nil {
			i.hovered = ""
		}
	}
	for id := range i.dragging {
		if err := g.SetDragging(id, true); err != nil {
			delete(i.dragging, id)
		}
	}
	return g
}

// rebuildLocked hot-swaps a freshly built graph into the running engine
func (i *Instance) rebuildLocked() error {
	g := i.buildLocked()
	if err := i.engine.SetGraph(g.Nodes, g.Edges); err != nil {
		return fmt.Errorf("failed to swap graph: %w", err)
	}
	i.graph = g
	i.recordGraphLocked()
	return nil
}

func (i *Instance) recordGraphLocked() {
	if i.metrics == nil {
		return
	}
	nodes := map[string]int{
		string(graph.KindDocument): i.graph.CountKind(graph.KindDocument),
		string(graph.KindMemory):   i.graph.CountKind(graph.KindMemory),
	}
	edges := map[string]int{
		string(graph.EdgeDocMemory): 0,
		string(graph.EdgeDocDoc):    0,
		string(graph.EdgeVersion):   0,
	}
	for _, e := range i.graph.Edges {
		edges[string(e.Type)]++
	}
	i.metrics.RecordGraph(nodes, edges)
}

func (i *Instance) persistLocked(ctx context.Context) error {
	if i.store == nil {
		return nil
	}
	positions, err := i.engine.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}
	records := make([]database.Position, 0, len(positions))
	for _, p := range positions {
		node, ok := i.graph.Node(p.ID)
		if !ok {
			continue
		}
		records = append(records, database.Position{
			NodeID: p.ID,
			Kind:   string(node.Kind),
			X:      p.X,
			Y:      p.Y,
		})
	}
	return i.store.SavePositions(ctx, i.graphKey, records)
}

// rebuild takes the write lock and hot-swaps the graph
func (i *Instance) rebuild() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	return i.rebuildLocked()
}

func (i *Instance) checkOpen() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrClosed
	}
	return nil
}

// LoadMore fetches the next page and merges it into the graph. Fetching
// happens without holding the instance lock.
func (i *Instance) LoadMore(ctx context.Context) (loader.LoadResult, error) {
	if err := i.checkOpen(); err != nil {
		return loader.LoadResult{}, err
	}
	res, err := i.loader.LoadMore(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load more documents: %w", err)
	}
	if res.Added > 0 {
		if err := i.rebuild(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// LoadAll reloads the current filter with up to maxPages pages
func (i *Instance) LoadAll(ctx context.Context, maxPages int) (loader.LoadResult, error) {
	if err := i.checkOpen(); err != nil {
		return loader.LoadResult{}, err
	}
	res, err := i.loader.LoadAll(ctx, i.loader.Filter(), maxPages)
	if err != nil {
		return res, fmt.Errorf("failed to load documents: %w", err)
	}
	if err := i.rebuild(); err != nil {
		return res, err
	}
	return res, nil
}

// UpdateViewport reports which nodes fall inside bounds and requests the
// next page once the viewport edge comes within LoadMoreThreshold of the
// laid-out extent
func (i *Instance) UpdateViewport(ctx context.Context, bounds graph.ViewportBounds) (ViewportResult, error) {
	if !bounds.Valid() {
		return ViewportResult{}, ErrInvalidViewport
	}

	i.mu.RLock()
	if i.closed {
		i.mu.RUnlock()
		return ViewportResult{}, ErrClosed
	}
	visible, err := i.engine.Visible(bounds, i.opts.VisibleMargin)
	if err != nil {
		i.mu.RUnlock()
		return ViewportResult{}, fmt.Errorf("failed to list visible nodes: %w", err)
	}
	extent, err := i.engine.Extent()
	i.mu.RUnlock()
	if err != nil {
		return ViewportResult{}, fmt.Errorf("failed to measure extent: %w", err)
	}

	result := ViewportResult{Visible: visible, Extent: extent}
	if !i.loader.HasMore() || graph.EdgeDistance(bounds, extent) >= i.opts.LoadMoreThreshold {
		return result, nil
	}

	i.logger.Debug("Viewport near layout edge, loading more",
		zap.Float64("distance", graph.EdgeDistance(bounds, extent)),
	)
	res, err := i.LoadMore(ctx)
	result.LoadTriggered = true
	result.Load = &res
	return result, err
}

// SetFilter reloads from page one with new container tags and rebuilds the
// graph and engine from scratch
func (i *Instance) SetFilter(ctx context.Context, containerTags []string) (loader.LoadResult, error) {
	if err := i.checkOpen(); err != nil {
		return loader.LoadResult{}, err
	}
	filter := i.loader.Filter()
	filter.ContainerTags = containerTags

	res, err := i.loader.Load(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("failed to load filter: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return res, ErrClosed
	}
	if err := i.stopEngineLocked(ctx); err != nil {
		i.logger.Warn("Failed to stop previous layout cleanly", zap.Error(err))
	}
	i.hovered = ""
	i.dragging = make(map[string]bool)
	i.startEngineLocked(ctx)

	i.logger.Info("Graph filter changed",
		zap.String("graph_key", i.graphKey),
		zap.Strings("container_tags", i.tags),
		zap.Int("nodes", len(i.graph.Nodes)),
	)
	return res, nil
}

// Inject inserts a document ahead of its page, e.g. right after it was
// created. It reports false when the id is already present.
func (i *Instance) Inject(doc api.Document) (bool, error) {
	if err := i.checkOpen(); err != nil {
		return false, err
	}
	if !i.loader.Inject(doc) {
		return false, nil
	}
	return true, i.rebuild()
}

// SetHover marks id as hovered. An empty id clears the hover.
func (i *Instance) SetHover(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	if err := i.graph.SetHovered(id); err != nil {
		return fmt.Errorf("failed to hover %q: %w", id, err)
	}
	i.hovered = id
	return nil
}

// StartDrag pins id and reheats the layout
func (i *Instance) StartDrag(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	if !i.graph.Has(id) {
		return fmt.Errorf("failed to drag %q: %w", id, graph.ErrNodeNotFound)
	}
	if err := i.engine.StartDrag(id); err != nil {
		return fmt.Errorf("failed to drag %q: %w", id, err)
	}
	i.dragging[id] = true
	return i.graph.SetDragging(id, true)
}

// DragTo moves a dragged node
func (i *Instance) DragTo(id string, x, y float64) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrClosed
	}
	if err := i.engine.DragTo(id, x, y); err != nil {
		return fmt.Errorf("failed to drag %q: %w", id, err)
	}
	return nil
}

// EndDrag releases a dragged node
func (i *Instance) EndDrag(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	if err := i.engine.EndDrag(id); err != nil {
		return fmt.Errorf("failed to release %q: %w", id, err)
	}
	delete(i.dragging, id)
	if i.graph.Has(id) {
		return i.graph.SetDragging(id, false)
	}
	return nil
}

// Snapshot returns the graph with current positions
func (i *Instance) Snapshot() (*export.Snapshot, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, ErrClosed
	}

	positions, err := i.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	alpha, err := i.engine.Alpha()
	if err != nil {
		return nil, fmt.Errorf("failed to read alpha: %w", err)
	}
	extent, err := i.engine.Extent()
	if err != nil {
		return nil, fmt.Errorf("failed to measure extent: %w", err)
	}
	ticks, err := i.engine.Ticks()
	if err != nil {
		return nil, fmt.Errorf("failed to read ticks: %w", err)
	}

	byID := make(map[string]layout.NodePosition, len(positions))
	for _, p := range positions {
		byID[p.ID] = p
	}

	snap := &export.Snapshot{
		ID:            i.id,
		GraphKey:      i.graphKey,
		ContainerTags: append([]string(nil), i.tags...),
		State:         i.engine.State().String(),
		Alpha:         alpha,
		Ticks:         ticks,
		Pagination:    i.loader.Pagination(),
		Extent:        extent,
		Nodes:         make([]export.PositionedNode, 0, len(i.graph.Nodes)),
		Edges:         make([]export.RenderedEdge, 0, len(i.graph.Edges)),
		GeneratedAt:   i.now(),
	}
	for _, n := range i.graph.Nodes {
		p := byID[n.ID]
		snap.Nodes = append(snap.Nodes, export.PositionedNode{Node: n, X: p.X, Y: p.Y})
	}
	for _, e := range i.graph.Edges {
		snap.Edges = append(snap.Edges, export.NewRenderedEdge(e))
	}
	return snap, nil
}

// Neighbors returns the nodes within hops of id, breadth first
func (i *Instance) Neighbors(id string, hops int) (*graph.Neighborhood, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, ErrClosed
	}
	return i.graph.Traverse(id, hops, true)
}

// Settle steps the engine until it rests or maxTicks ticks have run and
// returns the number of ticks taken. Intended for ManualTicks instances.
func (i *Instance) Settle(ctx context.Context, maxTicks int) (int, error) {
	i.mu.RLock()
	if i.closed {
		i.mu.RUnlock()
		return 0, ErrClosed
	}
	engine := i.engine
	i.mu.RUnlock()

	n := 0
	for n < maxTicks {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		moved, err := engine.Step()
		if err != nil {
			return n, fmt.Errorf("failed to step layout: %w", err)
		}
		if !moved {
			break
		}
		n++
	}
	return n, nil
}

// Close stops the tick loop, saves positions and records the run. No tick
// runs after Close returns. Calling Close again is a no-op.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true

	// The engine stays live until stopEngineLocked
	ticks, _ := i.engine.Ticks()
	err := i.stopEngineLocked(ctx)

	if i.store != nil {
		run := &database.LayoutRun{
			ID:            i.id,
			GraphKey:      i.graphKey,
			ContainerTags: strings.Join(i.tags, ","),
			Documents:     i.loader.Len(),
			Nodes:         len(i.graph.Nodes),
			Edges:         len(i.graph.Edges),
			Ticks:         int64(ticks),
			DurationMS:    i.now().Sub(i.started).Milliseconds(),
		}
		if runErr := i.store.RecordRun(ctx, run); runErr != nil {
			err = errors.Join(err, runErr)
		}
	}

	i.logger.Info("Graph instance closed",
		zap.String("graph_key", i.graphKey),
		zap.Uint64("ticks", ticks),
	)
	return err
}
