// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"time"
)

// LayoutPosition is the last known position of a node within one graph.
// A graph is identified by the key of the filter it was loaded with.
type LayoutPosition struct {
	GraphKey  string    `gorm:"primaryKey;size:64" json:"graph_key"`
	NodeID    string    `gorm:"primaryKey;size:512" json:"node_id"`
	Kind      string    `gorm:"size:16;not null" json:"kind"`
	X         float64   `gorm:"not null" json:"x"`
	Y         float64   `gorm:"not null" json:"y"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for LayoutPosition
func (LayoutPosition) TableName() string {
	return "graph_layout_positions"
}

// LayoutRun records one completed batch layout
type LayoutRun struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	GraphKey      string    `gorm:"index;size:64;not null" json:"graph_key"`
	ContainerTags string    `gorm:"type:text" json:"container_tags"`
	Documents     int       `json:"documents"`
	Nodes         int       `json:"nodes"`
	Edges         int       `json:"edges"`
	Ticks         int64     `json:"ticks"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for LayoutRun
func (LayoutRun) TableName() string {
	return "graph_layout_runs"
}
