// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import "time"

// Sort fields accepted by the documents endpoint
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
)

// Sort orders accepted by the documents endpoint
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Document is a saved item with its derived memory entries
type Document struct {
	ID                string        `json:"id"`
	Title             *string       `json:"title,omitempty"`
	Summary           *string       `json:"summary,omitempty"`
	URL               *string       `json:"url,omitempty"`
	Type              *string       `json:"type,omitempty"`
	Embedding         []float32     `json:"embedding,omitempty"`
	ContainerTags     []string      `json:"containerTags,omitempty"`
	PreviousVersionID *string       `json:"previousVersionId,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	MemoryEntries     []MemoryEntry `json:"memoryEntries,omitempty"`
}

// Label returns the best human-readable name for the document
func (d *Document) Label() string {
	switch {
	case d.Title != nil && *d.Title != "":
		return *d.Title
	case d.Summary != nil && *d.Summary != "":
		return *d.Summary
	case d.URL != nil && *d.URL != "":
		return *d.URL
	default:
		return d.ID
	}
}

// MemoryEntry is a fragment of content extracted from exactly one document
type MemoryEntry struct {
	ID              string     `json:"id"`
	DocumentID      string     `json:"documentId"`
	Content         string     `json:"content"`
	Summary         *string    `json:"summary,omitempty"`
	Title           *string    `json:"title,omitempty"`
	Embedding       []float32  `json:"embedding,omitempty"`
	RelevanceScore  *float64   `json:"relevanceScore,omitempty"` // 0-100
	IsForgotten     bool       `json:"isForgotten,omitempty"`
	ForgetAfter     *time.Time `json:"forgetAfter,omitempty"`
	UpdatesMemoryID *string    `json:"updatesMemoryId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Label returns the best human-readable name for the memory
func (m *MemoryEntry) Label() string {
	switch {
	case m.Title != nil && *m.Title != "":
		return *m.Title
	case m.Summary != nil && *m.Summary != "":
		return *m.Summary
	case m.Content != "":
		return m.Content
	default:
		return m.ID
	}
}

// DocumentsRequest is the body of a documents page request
type DocumentsRequest struct {
	Page          int      `json:"page" validate:"min=1"`
	Limit         int      `json:"limit" validate:"min=1,max=1000"`
	Sort          string   `json:"sort" validate:"oneof=createdAt updatedAt"`
	Order         string   `json:"order" validate:"oneof=asc desc"`
	ContainerTags []string `json:"containerTags,omitempty" validate:"omitempty,dive,required"`
}

// Pagination describes where a page sits in the full result set
type Pagination struct {
	CurrentPage int `json:"currentPage" validate:"gte=0"`
	TotalPages  int `json:"totalPages" validate:"gte=0"`
	TotalItems  int `json:"totalItems" validate:"gte=0"`
}

// DocumentsResponse is one validated page of documents
type DocumentsResponse struct {
	Documents  []Document `json:"documents"`
	Pagination Pagination `json:"pagination"`
}
