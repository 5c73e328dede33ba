// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoadPositions(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SavePositions(ctx, "key-a", []Position{
		{NodeID: "doc-1", Kind: "document", X: 1, Y: 2},
		{NodeID: "doc-1/m1", Kind: "memory", X: 3, Y: 4},
	}))
	require.NoError(t, store.SavePositions(ctx, "key-b", []Position{
		{NodeID: "doc-1", Kind: "document", X: 100, Y: 200},
	}))

	set, err := store.LoadPositions(ctx, "key-a")
	require.NoError(t, err)
	assert.Len(t, set, 2)

	x, y, ok := set.Lookup("doc-1/m1")
	assert.True(t, ok)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)

	_, _, ok = set.Lookup("missing")
	assert.False(t, ok)

	other, err := store.LoadPositions(ctx, "key-b")
	require.NoError(t, err)
	assert.Equal(t, PositionSet{"doc-1": {100, 200}}, other)
}

func TestStore_SavePositionsUpserts(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.SavePositions(ctx, "k", []Position{{NodeID: "n", Kind: "document", X: 1, Y: 1}}))
	require.NoError(t, store.SavePositions(ctx, "k", []Position{{NodeID: "n", Kind: "document", X: 9, Y: -9}}))

	var count int64
	require.NoError(t, db.Model(&LayoutPosition{}).Where("graph_key = ?", "k").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	set, err := store.LoadPositions(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, [2]float64{9, -9}, set["n"])
}

func TestStore_SaveManyPositions(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	positions := make([]Position, 1200)
	for i := range positions {
		positions[i] = Position{NodeID: fmt.Sprintf("n-%d", i), Kind: "document", X: float64(i)}
	}
	require.NoError(t, store.SavePositions(ctx, "big", positions))
	require.NoError(t, store.SavePositions(ctx, "big", nil))

	set, err := store.LoadPositions(ctx, "big")
	require.NoError(t, err)
	assert.Len(t, set, 1200)
}

func TestStore_DeletePositions(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SavePositions(ctx, "k", []Position{{NodeID: "n", Kind: "document"}}))
	require.NoError(t, store.DeletePositions(ctx, "k"))

	set, err := store.LoadPositions(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestStore_Runs(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &LayoutRun{GraphKey: "k", Documents: i, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, store.RecordRun(ctx, run))
		assert.Len(t, run.ID, 36)
	}
	require.NoError(t, store.RecordRun(ctx, &LayoutRun{GraphKey: "other"}))

	runs, err := store.ListRuns(ctx, "k", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Documents)
	assert.Equal(t, 1, runs[1].Documents)
}
