package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func (w widget) RecordID() string { return w.ID }

func TestTable_SeedsOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	calls := 0
	table := NewTable[widget](NewMemoryBackend(), "widgets", func() []widget {
		calls++
		return []widget{{ID: "w1", Count: 1}, {ID: "w2", Count: 2}}
	})

	all, err := table.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []widget{{ID: "w1", Count: 1}, {ID: "w2", Count: 2}}, all)

	_, err = table.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTable_UpdateMutatesOnce(t *testing.T) {
	ctx := context.Background()
	table := NewTable[widget](NewMemoryBackend(), "widgets", nil)
	require.NoError(t, table.Insert(ctx, widget{ID: "w1"}))

	updated, err := table.Update(ctx, "w1", func(w *widget) error {
		w.Count += 5
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Count)

	got, version, err := table.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Count)
	assert.Equal(t, int64(2), version)
}

func TestTable_UpdateAbortsOnMutateError(t *testing.T) {
	ctx := context.Background()
	table := NewTable[widget](NewMemoryBackend(), "widgets", nil)
	require.NoError(t, table.Insert(ctx, widget{ID: "w1", Count: 1}))

	boom := errors.New("boom")
	_, err := table.Update(ctx, "w1", func(w *widget) error {
		w.Count = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _, err := table.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestTable_UpdateDetectsConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	table := NewTable[widget](NewMemoryBackend(), "widgets", nil)
	require.NoError(t, table.Insert(ctx, widget{ID: "w1"}))

	_, err := table.Update(ctx, "w1", func(w *widget) error {
		// a second writer lands between our read and our swap
		_, innerErr := table.Update(ctx, "w1", func(inner *widget) error {
			inner.Count = 7
			return nil
		})
		require.NoError(t, innerErr)
		w.Count = 1
		return nil
	})
	assert.ErrorIs(t, err, ErrConflict)

	got, _, err := table.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Count)
}

func TestTable_FindAndMissing(t *testing.T) {
	ctx := context.Background()
	table := NewTable[widget](NewMemoryBackend(), "widgets", nil)
	require.NoError(t, table.Insert(ctx, widget{ID: "w1", Count: 3}))

	found, err := table.Find(ctx, func(w widget) bool { return w.Count == 3 })
	require.NoError(t, err)
	assert.Equal(t, "w1", found.ID)

	_, err = table.Find(ctx, func(w widget) bool { return w.Count == 4 })
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = table.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, table.Delete(ctx, "nope"), ErrNotFound)
}
