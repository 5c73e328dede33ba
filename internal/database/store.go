// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const saveBatchSize = 500

// Position is a node position to persist
type Position struct {
	NodeID string
	Kind   string
	X, Y   float64
}

// PositionSet maps node ids to remembered positions
type PositionSet map[string][2]float64

// Lookup returns the remembered position of id
func (p PositionSet) Lookup(id string) (float64, float64, bool) {
	pos, ok := p[id]
	return pos[0], pos[1], ok
}

// Store persists layout state so a graph reopens where it was left
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on a migrated database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SavePositions upserts positions for graphKey
func (s *Store) SavePositions(ctx context.Context, graphKey string, positions []Position) error {
	if len(positions) == 0 {
		return nil
	}

	now := time.Now()
	records := make([]LayoutPosition, len(positions))
	for i, p := range positions {
		records[i] = LayoutPosition{
			GraphKey:  graphKey,
			NodeID:    p.NodeID,
			Kind:      p.Kind,
			X:         p.X,
			Y:         p.Y,
			UpdatedAt: now,
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "graph_key"}, {Name: "node_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "x", "y", "updated_at"}),
		}).
		CreateInBatches(records, saveBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to save positions: %w", err)
	}
	return nil
}

// LoadPositions returns every remembered position for graphKey
func (s *Store) LoadPositions(ctx context.Context, graphKey string) (PositionSet, error) {
	var records []LayoutPosition
	if err := s.db.WithContext(ctx).Where("graph_key = ?", graphKey).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	set := make(PositionSet, len(records))
	for _, r := range records {
		set[r.NodeID] = [2]float64{r.X, r.Y}
	}
	return set, nil
}

// DeletePositions forgets the layout of graphKey
func (s *Store) DeletePositions(ctx context.Context, graphKey string) error {
	if err := s.db.WithContext(ctx).Where("graph_key = ?", graphKey).Delete(&LayoutPosition{}).Error; err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	return nil
}

// RecordRun stores a completed layout run, assigning an id when missing
func (s *Store) RecordRun(ctx context.Context, run *LayoutRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record layout run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs for graphKey, newest first
func (s *Store) ListRuns(ctx context.Context, graphKey string, limit int) ([]LayoutRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []LayoutRun
	err := s.db.WithContext(ctx).
		Where("graph_key = ?", graphKey).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list layout runs: %w", err)
	}
	return runs, nil
}
