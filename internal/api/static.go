// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

// StaticFetcher serves documents held in memory, paged and filtered the
// way the documents endpoint does. It backs offline layouts of exported
// document sets.
type StaticFetcher struct {
	validate *validator.Validate

	mu   sync.RWMutex
	docs []Document
}

// NewStaticFetcher serves docs
func NewStaticFetcher(docs []Document) *StaticFetcher {
	return &StaticFetcher{
		validate: validator.New(),
		docs:     append([]Document(nil), docs...),
	}
}

// LoadStaticFetcher reads a documents file. Both a bare JSON array and a
// documents response body are accepted.
func LoadStaticFetcher(path string) (*StaticFetcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open documents file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents file: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		var resp DocumentsResponse
		if err2 := json.Unmarshal(data, &resp); err2 != nil {
			return nil, fmt.Errorf("failed to parse documents file: %w", err)
		}
		docs = resp.Documents
	}
	return NewStaticFetcher(docs), nil
}

// Add appends documents to the served set
func (s *StaticFetcher) Add(docs ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
}

// FetchDocuments implements Fetcher
func (s *StaticFetcher) FetchDocuments(ctx context.Context, req DocumentsRequest) (*DocumentsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CancellationError{Cause: err}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	s.mu.RLock()
	matched := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		if matchesTags(d, req.ContainerTags) {
			matched = append(matched, d)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].CreatedAt, matched[j].CreatedAt
		if req.Sort == SortUpdatedAt {
			a, b = matched[i].UpdatedAt, matched[j].UpdatedAt
		}
		if req.Order == OrderAsc {
			return a.Before(b)
		}
		return a.After(b)
	})

	total := len(matched)
	pages := (total + req.Limit - 1) / req.Limit
	start := min((req.Page-1)*req.Limit, total)
	end := min(start+req.Limit, total)

	return &DocumentsResponse{
		Documents:  matched[start:end],
		Pagination: Pagination{CurrentPage: req.Page, TotalPages: pages, TotalItems: total},
	}, nil
}

func matchesTags(d Document, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if slices.Contains(d.ContainerTags, t) {
			return true
		}
	}
	return false
}
