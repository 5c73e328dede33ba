// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package embeddings

import "sort"

// Candidate is an embedding that may be compared against a query
type Candidate struct {
	ID        string
	Embedding []float32
}

// SearchResult represents a search result with similarity score
type SearchResult struct {
	ID         string
	Similarity float64
}

// NearestNeighbors ranks candidates by similarity to query and returns at most
// limit results at or above threshold, highest first. Candidates without a
// comparable embedding are skipped.
func NearestNeighbors(query []float32, candidates []Candidate, threshold float64, limit int) []SearchResult {
	if len(query) == 0 || limit <= 0 {
		return nil
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		sim, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			continue
		}
		sim = Clamp01(sim)
		if sim < threshold {
			continue
		}
		results = append(results, SearchResult{ID: c.ID, Similarity: sim})
	}

	// Stable so equal scores keep candidate order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
