// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

import (
	"time"

	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/embeddings"
	"go.uber.org/zap"
)

// Node sizes per kind
const (
	DocumentNodeSize = 50.0
	MemoryNodeSize   = 28.0
)

// Node colors
const (
	DocumentColor        = "#4f7cff"
	MemoryColor          = "#8fb3ff"
	MemoryNewColor       = "#4ade80"
	MemoryExpiringColor  = "#f59e0b"
	MemoryForgottenColor = "#6b7280"
)

const (
	newMemoryWindow    = 24 * time.Hour
	expiringSoonWindow = 7 * 24 * time.Hour
)

// MemoryNodeID namespaces a memory entry id by its document, since entry ids
// are only unique within one document
func MemoryNodeID(documentID, entryID string) string {
	return documentID + "/" + entryID
}

// Builder converts documents into graph nodes and edges
type Builder struct {
	selector *Selector
	now      func() time.Time
	logger   *zap.Logger
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithSelector replaces the default k-NN selector
func WithSelector(s *Selector) BuilderOption {
	return func(b *Builder) {
		b.selector = s
	}
}

// WithClock sets the time source used to classify memory status
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// WithLogger sets the builder logger
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder with the default selector
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.selector == nil {
		b.selector = NewSelector(DefaultSelectorOptions(), b.logger)
	}
	return b
}

// Build constructs the graph for docs from scratch. Duplicate document ids
// keep their first occurrence. The same input always yields the same node
// and edge sequence.
func (b *Builder) Build(docs []api.Document) *Graph {
	unique := dedupeDocuments(docs)

	memoryCount := 0
	for _, doc := range unique {
		memoryCount += len(doc.MemoryEntries)
	}

	g := &Graph{
		Nodes: make([]Node, 0, len(unique)+memoryCount),
		Edges: make([]Edge, 0, memoryCount),
		index: make(map[string]int, len(unique)+memoryCount),
	}
	now := b.now()

	for _, doc := range unique {
		g.addNode(Node{
			ID:        doc.ID,
			Kind:      KindDocument,
			Label:     doc.Label(),
			Size:      DocumentNodeSize,
			Color:     DocumentColor,
			CreatedAt: doc.CreatedAt,
		})
	}

	for _, doc := range unique {
		for _, entry := range doc.MemoryEntries {
			if entry.ID == "" {
				continue
			}
			status := memoryStatus(entry, now)
			g.addNode(Node{
				ID:               MemoryNodeID(doc.ID, entry.ID),
				Kind:             KindMemory,
				Label:            entry.Label(),
				Size:             MemoryNodeSize,
				Color:            memoryColor(status),
				ParentDocumentID: doc.ID,
				Status:           status,
				CreatedAt:        entry.CreatedAt,
			})
		}
	}

	seen := make(map[string]bool, cap(g.Edges))

	// Version links come first so they win over a similarity edge on the same pair
	for _, doc := range unique {
		if doc.PreviousVersionID != nil {
			g.addEdge(NewEdge(*doc.PreviousVersionID, doc.ID, 1, EdgeVersion), seen)
		}
		for _, entry := range doc.MemoryEntries {
			if entry.UpdatesMemoryID != nil {
				g.addEdge(NewEdge(
					MemoryNodeID(doc.ID, *entry.UpdatesMemoryID),
					MemoryNodeID(doc.ID, entry.ID),
					1, EdgeVersion,
				), seen)
			}
		}
	}

	for _, doc := range unique {
		for _, entry := range doc.MemoryEntries {
			if entry.ID == "" {
				continue
			}
			sim := embeddings.DocumentMemorySimilarity(doc.Embedding, entry.Embedding, entry.RelevanceScore)
			g.addEdge(NewEdge(doc.ID, MemoryNodeID(doc.ID, entry.ID), sim, EdgeDocMemory), seen)
		}
	}

	for _, e := range b.selector.Select(unique) {
		g.addEdge(e, seen)
	}

	b.logger.Debug("Built graph",
		zap.Int("documents", len(unique)),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
	)
	return g
}

// dedupeDocuments drops documents without an id and repeated ids after the first
func dedupeDocuments(docs []api.Document) []api.Document {
	seen := make(map[string]bool, len(docs))
	out := make([]api.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" || seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		out = append(out, doc)
	}
	return out
}

func memoryStatus(entry api.MemoryEntry, now time.Time) MemoryStatus {
	switch {
	case entry.IsForgotten:
		return StatusForgotten
	case entry.ForgetAfter != nil && entry.ForgetAfter.Sub(now) <= expiringSoonWindow:
		return StatusExpiring
	case !entry.CreatedAt.IsZero() && now.Sub(entry.CreatedAt) < newMemoryWindow:
		return StatusNew
	default:
		return StatusDefault
	}
}

func memoryColor(status MemoryStatus) string {
	switch status {
	case StatusForgotten:
		return MemoryForgottenColor
	case StatusExpiring:
		return MemoryExpiringColor
	case StatusNew:
		return MemoryNewColor
	default:
		return MemoryColor
	}
}
