// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package embeddings

import (
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultDocumentMemorySimilarity is used for a document/memory pair when
// neither embeddings nor a relevance score are available
const DefaultDocumentMemorySimilarity = 0.5

// InvalidVectorError reports a vector pair that cannot be compared.
// It always indicates a caller bug and is never worth retrying.
type InvalidVectorError struct {
	Reason string
	Index  int // offending entry, -1 when the whole vector is at fault
}

// Error implements the error interface
func (e *InvalidVectorError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid vector: %s at index %d", e.Reason, e.Index)
	}
	return "invalid vector: " + e.Reason
}

// CosineSimilarity calculates cosine similarity between two embeddings.
// Embeddings arrive pre-normalized, so the dot product is the cosine.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &InvalidVectorError{
			Reason: fmt.Sprintf("length mismatch (%d != %d)", len(a), len(b)),
			Index:  -1,
		}
	}

	var dot float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if !isFinite(x) || !isFinite(y) {
			return 0, &InvalidVectorError{Reason: "non-numeric entry", Index: i}
		}
		dot += x * y
	}
	return dot, nil
}

// SemanticSimilarity returns the similarity of two optional embeddings in [0, 1].
// Negative correlation counts as unrelated. Missing or incomparable
// embeddings yield 0.
func SemanticSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0
	}
	return Clamp01(sim)
}

// DocumentMemorySimilarity scores how strongly a memory belongs to its document.
// Preference order: embeddings, then relevanceScore (0-100 scale), then
// DefaultDocumentMemorySimilarity.
func DocumentMemorySimilarity(docEmbedding, memEmbedding []float32, relevanceScore *float64) float64 {
	if len(docEmbedding) > 0 && len(memEmbedding) > 0 {
		if sim, err := CosineSimilarity(docEmbedding, memEmbedding); err == nil {
			return Clamp01(sim)
		}
	}
	if relevanceScore != nil && !math.IsNaN(*relevanceScore) {
		return Clamp01(*relevanceScore / 100)
	}
	return DefaultDocumentMemorySimilarity
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CalculateContentHash computes a SHA256 hash of the content
func CalculateContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash[:16]) // Use first 16 bytes for shorter hash
}

// FilterKey derives a stable key for a set of container tags, independent of order
func FilterKey(containerTags []string) string {
	tags := append([]string(nil), containerTags...)
	sort.Strings(tags)
	return CalculateContentHash(strings.Join(tags, "\x00"))
}
