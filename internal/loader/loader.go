// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tejzpr/mimir-graph/internal/api"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultPageSize is the number of documents requested per page
const DefaultPageSize = 50

// Filter selects which documents are loaded
type Filter struct {
	ContainerTags []string `json:"containerTags,omitempty" yaml:"containerTags,omitempty"`
	Sort          string   `json:"sort,omitempty" yaml:"sort,omitempty"`
	Order         string   `json:"order,omitempty" yaml:"order,omitempty"`
	PageSize      int      `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
}

func (f Filter) withDefaults() Filter {
	if f.Sort == "" {
		f.Sort = api.SortCreatedAt
	}
	if f.Order == "" {
		f.Order = api.OrderDesc
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	f.ContainerTags = append([]string(nil), f.ContainerTags...)
	return f
}

// LoadResult describes the outcome of a page load
type LoadResult struct {
	Page     int  `json:"page"`
	Added    int  `json:"added"`
	Skipped  int  `json:"skipped"`            // duplicates dropped by first-seen-wins
	Canceled bool `json:"canceled,omitempty"` // caller aborted the fetch
	Busy     bool `json:"busy,omitempty"`     // another page load was in flight
	HasMore  bool `json:"hasMore"`
}

// Observer receives one call per completed page fetch
type Observer interface {
	ObserveFetch(page, documents int, elapsed time.Duration, err error)
}

// Loader fetches document pages and merges them into one ordered set.
// On id collisions the copy already present wins, including documents
// injected before their page arrived.
type Loader struct {
	fetcher  api.Fetcher
	logger   *zap.Logger
	observer Observer

	// guard admits a single LoadMore at a time
	guard *semaphore.Weighted

	mu          sync.RWMutex
	generation  uint64
	filter      Filter
	docs        []api.Document
	index       map[string]int
	currentPage int
	totalPages  int
	totalItems  int
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the loader logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver reports fetch timings, e.g. to metrics
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		l.observer = o
	}
}

// New creates a loader on top of fetcher
func New(fetcher api.Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: fetcher,
		logger:  zap.NewNop(),
		guard:   semaphore.NewWeighted(1),
		index:   make(map[string]int),
		filter:  Filter{}.withDefaults(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load discards everything loaded so far and fetches the first page for
// filter. A LoadMore still in flight for the previous filter is ignored
// when it completes.
func (l *Loader) Load(ctx context.Context, filter Filter) (LoadResult, error) {
	filter = filter.withDefaults()
	return l.fetchAndMerge(ctx, l.reset(filter), filter, 1)
}

// reset drops all loaded state for filter and returns the new generation
func (l *Loader) reset(filter Filter) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.filter = filter
	l.docs = nil
	l.index = make(map[string]int)
	l.currentPage = 0
	l.totalPages = 0
	l.totalItems = 0
	return l.generation
}

// next describes the page a LoadMore would fetch
func (l *Loader) next() (gen uint64, filter Filter, page int, hasMore bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generation, l.filter, l.currentPage + 1, l.hasMoreLocked()
}

// LoadMore fetches the page after the current one when more exist. It is a
// no-op while another LoadMore is pending or when nothing is left to load.
func (l *Loader) LoadMore(ctx context.Context) (LoadResult, error) {
	if !l.guard.TryAcquire(1) {
		return LoadResult{Busy: true, HasMore: l.HasMore()}, nil
	}
	defer l.guard.Release(1)

	gen, filter, page, hasMore := l.next()
	if !hasMore {
		return LoadResult{Page: page - 1}, nil
	}
	return l.fetchAndMerge(ctx, gen, filter, page)
}

// LoadAll loads filter from page 1 until no pages remain or page maxPages
// has been loaded. A non-positive maxPages means no limit. Unlike LoadMore
// it waits for a pending load instead of skipping, and stops as canceled
// when another Load replaces its filter.
func (l *Loader) LoadAll(ctx context.Context, filter Filter, maxPages int) (LoadResult, error) {
	filter = filter.withDefaults()
	gen := l.reset(filter)
	total, err := l.fetchAndMerge(ctx, gen, filter, 1)
	if err != nil || total.Canceled {
		return total, err
	}

	for total.HasMore && (maxPages <= 0 || total.Page < maxPages) {
		res, err := l.loadNext(ctx, gen)
		total.HasMore = res.HasMore
		if err != nil {
			return total, err
		}
		if res.Canceled {
			total.Canceled = true
			return total, nil
		}
		total.Page = res.Page
		total.Added += res.Added
		total.Skipped += res.Skipped
	}
	return total, nil
}

// loadNext waits for the single-flight guard and fetches the next page of
// generation gen
func (l *Loader) loadNext(ctx context.Context, gen uint64) (LoadResult, error) {
	if err := l.guard.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.Canceled) {
			return LoadResult{Canceled: true, HasMore: l.HasMore()}, nil
		}
		return LoadResult{HasMore: l.HasMore()}, fmt.Errorf("failed to wait for pending load: %w", err)
	}
	defer l.guard.Release(1)

	current, filter, page, hasMore := l.next()
	if current != gen {
		return LoadResult{Canceled: true, HasMore: hasMore}, nil
	}
	if !hasMore {
		return LoadResult{Page: page - 1}, nil
	}
	return l.fetchAndMerge(ctx, gen, filter, page)
}

func (l *Loader) fetchAndMerge(ctx context.Context, gen uint64, filter Filter, page int) (LoadResult, error) {
	req := api.DocumentsRequest{
		Page:          page,
		Limit:         filter.PageSize,
		Sort:          filter.Sort,
		Order:         filter.Order,
		ContainerTags: filter.ContainerTags,
	}

	started := time.Now()
	resp, err := l.fetcher.FetchDocuments(ctx, req)
	elapsed := time.Since(started)

	if err != nil {
		if api.IsCanceled(err) {
			l.logger.Debug("Page load canceled", zap.Int("page", page))
			return LoadResult{Page: page, Canceled: true, HasMore: l.HasMore()}, nil
		}
		if l.observer != nil {
			l.observer.ObserveFetch(page, 0, elapsed, err)
		}
		return LoadResult{Page: page, HasMore: l.HasMore()}, fmt.Errorf("failed to load page %d: %w", page, err)
	}
	if l.observer != nil {
		l.observer.ObserveFetch(page, len(resp.Documents), elapsed, nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		// The filter changed while this page was in flight
		return LoadResult{Page: page, Canceled: true, HasMore: l.hasMoreLocked()}, nil
	}

	result := LoadResult{Page: page}
	for _, doc := range resp.Documents {
		if l.insertLocked(doc) {
			result.Added++
		} else {
			result.Skipped++
		}
	}

	l.currentPage = page
	if resp.Pagination.CurrentPage > 0 {
		l.currentPage = resp.Pagination.CurrentPage
		result.Page = l.currentPage
	}
	l.totalPages = resp.Pagination.TotalPages
	l.totalItems = resp.Pagination.TotalItems
	result.HasMore = l.hasMoreLocked()

	l.logger.Debug("Merged documents page",
		zap.Int("page", result.Page),
		zap.Int("totalPages", l.totalPages),
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// insertLocked adds doc unless its id is already present
func (l *Loader) insertLocked(doc api.Document) bool {
	if doc.ID == "" {
		return false
	}
	if _, exists := l.index[doc.ID]; exists {
		return false
	}
	l.index[doc.ID] = len(l.docs)
	l.docs = append(l.docs, doc)
	return true
}

// Inject adds a document ahead of server confirmation. It reports false
// when a document with the same id is already loaded.
func (l *Loader) Inject(doc api.Document) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.insertLocked(doc)
}

// Documents returns a copy of the loaded documents in merge order
func (l *Loader) Documents() []api.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]api.Document(nil), l.docs...)
}

// Len returns the number of loaded documents
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}

// HasMore reports whether pages remain after the current one
func (l *Loader) HasMore() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasMoreLocked()
}

func (l *Loader) hasMoreLocked() bool {
	return l.currentPage < l.totalPages
}

// Pagination returns the latest pagination state
func (l *Loader) Pagination() api.Pagination {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return api.Pagination{
		CurrentPage: l.currentPage,
		TotalPages:  l.totalPages,
		TotalItems:  l.totalItems,
	}
}

// Filter returns the active filter
func (l *Loader) Filter() Filter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f := l.filter
	f.ContainerTags = append([]string(nil), f.ContainerTags...)
	return f
}
