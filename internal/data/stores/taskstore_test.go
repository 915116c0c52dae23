package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/phaseline/internal/core/task"
)

func TestTaskStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	created, err := store.Create(ctx, task.Task{Title: "File annual request"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, task.StatusOpen, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "File annual request", got.Title)

	_, err = store.Get(ctx, "tsk_missing")
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestTaskStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	due1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	due2 := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, task.Task{ID: "tsk_a", Title: "later", DueDate: &due1})
	require.NoError(t, err)
	_, err = store.Create(ctx, task.Task{ID: "tsk_b", Title: "sooner", DueDate: &due2, Tags: []string{"request"}})
	require.NoError(t, err)
	_, err = store.Create(ctx, task.Task{ID: "tsk_c", Title: "no due date"})
	require.NoError(t, err)

	t.Run("orders by due date with undated last", func(t *testing.T) {
		all, err := store.List(ctx, task.ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "tsk_b", all[0].ID)
		assert.Equal(t, "tsk_a", all[1].ID)
		assert.Equal(t, "tsk_c", all[2].ID)
	})

	t.Run("filters by tag", func(t *testing.T) {
		tagged, err := store.List(ctx, task.ListFilter{Tag: "request"})
		require.NoError(t, err)
		require.Len(t, tagged, 1)
		assert.Equal(t, "tsk_b", tagged[0].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		require.NoError(t, store.SetStatus(ctx, "tsk_a", task.StatusDone))

		open, err := store.List(ctx, task.ListFilter{Status: task.StatusOpen})
		require.NoError(t, err)
		assert.Len(t, open, 2)
	})
}

func TestTaskStore_FindByTags(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	_, err := store.Create(ctx, task.Task{
		ID:   "tsk_1",
		Tags: []string{"tpl:tpl-short-term", "phase:short_term:bucket:2025-01-08"},
	})
	require.NoError(t, err)

	t.Run("matches all tags", func(t *testing.T) {
		got, found, err := store.FindByTags(ctx, []string{"tpl:tpl-short-term", "phase:short_term:bucket:2025-01-08"})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "tsk_1", got.ID)
	})

	t.Run("misses on partial match", func(t *testing.T) {
		_, found, err := store.FindByTags(ctx, []string{"tpl:tpl-short-term", "phase:short_term:bucket:2025-01-09"})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("empty tag list never matches", func(t *testing.T) {
		_, found, err := store.FindByTags(ctx, nil)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestTaskStore_SetLinkedItems(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	_, err := store.Create(ctx, task.Task{ID: "tsk_1", LinkedItemIDs: []string{"itm-1"}})
	require.NoError(t, err)

	require.NoError(t, store.SetLinkedItems(ctx, "tsk_1", []string{"itm-1", "itm-2"}))

	got, err := store.Get(ctx, "tsk_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"itm-1", "itm-2"}, got.LinkedItemIDs)

	require.ErrorIs(t, store.SetLinkedItems(ctx, "tsk_x", nil), task.ErrNotFound)
}

func TestTaskStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	_, err := store.Create(ctx, task.Task{ID: "tsk_1", Tags: []string{"a"}})
	require.NoError(t, err)

	got, err := store.Get(ctx, "tsk_1")
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := store.Get(ctx, "tsk_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Tags)
}
