// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package graph

import (
	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/embeddings"
	"go.uber.org/zap"
)

// Strategy selects how candidate pairs are chosen
type Strategy string

const (
	// StrategyWindow compares each document with the next k documents in
	// input order, wrapping around
	StrategyWindow Strategy = "window"
	// StrategyNearest ranks all other documents and keeps the best k
	StrategyNearest Strategy = "nearest"
)

// Default selector settings
const (
	DefaultSimilarityThreshold  = 0.725
	DefaultMaxComparisonsPerDoc = 10
)

// SelectorOptions bounds doc-doc edge construction. A negative Threshold
// keeps every compared pair.
type SelectorOptions struct {
	Threshold            float64  `json:"threshold" yaml:"threshold"`
	MaxComparisonsPerDoc int      `json:"maxComparisonsPerDoc" yaml:"maxComparisonsPerDoc"`
	Strategy             Strategy `json:"strategy" yaml:"strategy"`
}

// DefaultSelectorOptions returns the window strategy with default bounds
func DefaultSelectorOptions() SelectorOptions {
	return SelectorOptions{
		Threshold:            DefaultSimilarityThreshold,
		MaxComparisonsPerDoc: DefaultMaxComparisonsPerDoc,
		Strategy:             StrategyWindow,
	}
}

// Selector picks doc-doc similarity edges. Each document originates at most
// MaxComparisonsPerDoc edges, so the total stays O(n*k).
type Selector struct {
	opts   SelectorOptions
	logger *zap.Logger
}

// NewSelector creates a selector. A zero Threshold, a non-positive
// MaxComparisonsPerDoc and an empty Strategy fall back to defaults.
func NewSelector(opts SelectorOptions, logger *zap.Logger) *Selector {
	defaults := DefaultSelectorOptions()
	if opts.Threshold == 0 {
		opts.Threshold = defaults.Threshold
	}
	if opts.MaxComparisonsPerDoc <= 0 {
		opts.MaxComparisonsPerDoc = defaults.MaxComparisonsPerDoc
	}
	if opts.Strategy == "" {
		opts.Strategy = defaults.Strategy
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{opts: opts, logger: logger}
}

// Options returns the effective options
func (s *Selector) Options() SelectorOptions {
	return s.opts
}

// Select returns doc-doc edges for docs. Documents without an embedding are
// skipped. If a pair is discovered from both sides only the first edge is kept.
func (s *Selector) Select(docs []api.Document) []Edge {
	embedded := make([]api.Document, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) > 0 {
			embedded = append(embedded, doc)
		}
	}
	if len(embedded) < 2 {
		return nil
	}

	if s.opts.Strategy == StrategyNearest {
		return s.selectNearest(embedded)
	}
	return s.selectWindow(embedded)
}

func (s *Selector) selectWindow(docs []api.Document) []Edge {
	n := len(docs)
	k := min(s.opts.MaxComparisonsPerDoc, n-1)

	seen := make(map[string]bool)
	var edges []Edge
	for i := range docs {
		for step := 1; step <= k; step++ {
			other := docs[(i+step)%n]
			key := PairKey(docs[i].ID, other.ID)
			if seen[key] {
				continue
			}
			sim, err := embeddings.CosineSimilarity(docs[i].Embedding, other.Embedding)
			if err != nil {
				s.logger.Debug("Skipping incomparable document pair",
					zap.String("source", docs[i].ID),
					zap.String("target", other.ID),
					zap.Error(err),
				)
				continue
			}
			sim = embeddings.Clamp01(sim)
			if sim < s.opts.Threshold {
				continue
			}
			seen[key] = true
			edges = append(edges, NewEdge(docs[i].ID, other.ID, sim, EdgeDocDoc))
		}
	}
	return edges
}

func (s *Selector) selectNearest(docs []api.Document) []Edge {
	candidates := make([]embeddings.Candidate, len(docs))
	for i, doc := range docs {
		candidates[i] = embeddings.Candidate{ID: doc.ID, Embedding: doc.Embedding}
	}

	k := s.opts.MaxComparisonsPerDoc
	seen := make(map[string]bool)
	var edges []Edge
	for _, doc := range docs {
		// One extra slot for the document matching itself
		results := embeddings.NearestNeighbors(doc.Embedding, candidates, s.opts.Threshold, k+1)
		originated := 0
		for _, r := range results {
			if r.ID == doc.ID || originated >= k {
				continue
			}
			originated++
			key := PairKey(doc.ID, r.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, NewEdge(doc.ID, r.ID, r.Similarity, EdgeDocDoc))
		}
	}
	return edges
}
