package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTask(t *testing.T, store interface {
	InsertTasks(ctx context.Context, tasks []model.StoredTask) error
}, task model.StoredTask) {
	t.Helper()
	require.NoError(t, store.InsertTasks(context.Background(), []model.StoredTask{task}))
}

func TestEngineComplete(t *testing.T) {
	store := testutil.SetupTestDB(t)
	now := testutil.Date(2025, time.March, 15)
	engine := NewEngine(store, Config{Now: func() time.Time { return now }})
	ctx := context.Background()

	task := openTask("t1", testutil.Date(2025, time.March, 1), testutil.Date(2025, time.March, 28))
	seedTask(t, store, task)

	require.NoError(t, engine.Complete(ctx, "t1", "olena"))

	stored, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, stored.Completed())
	assert.Equal(t, "olena", stored.CompletedBy)
	require.NotNil(t, stored.CompletedAt)

	err = engine.Complete(ctx, "t1", "olena")
	assert.ErrorIs(t, err, common.ErrAlreadyCompleted)
}

func TestEngineCompleteLocked(t *testing.T) {
	store := testutil.SetupTestDB(t)
	now := testutil.Date(2025, time.March, 15)
	engine := NewEngine(store, Config{Now: func() time.Time { return now }})

	task := openTask("t1", testutil.Date(2025, time.April, 1), testutil.Date(2025, time.April, 28))
	seedTask(t, store, task)

	err := engine.Complete(context.Background(), "t1", "olena")
	assert.ErrorIs(t, err, common.ErrTaskLocked)
}

func TestEngineCompleteBlocked(t *testing.T) {
	store := testutil.SetupTestDB(t)
	now := testutil.Date(2025, time.March, 25)
	engine := NewEngine(store, Config{Now: func() time.Time { return now }})
	ctx := context.Background()

	predecessor := openTask("vat_c1_2025-02", testutil.Date(2025, time.February, 1), testutil.Date(2025, time.March, 20))
	predecessor.SeriesID = "vat"
	successor := openTask("vat_c1_2025-03", testutil.Date(2025, time.March, 1), testutil.Date(2025, time.April, 21))
	successor.SeriesID = "vat"
	seedTask(t, store, predecessor)
	seedTask(t, store, successor)

	err := engine.Complete(ctx, successor.ID, "olena")
	var blocked *common.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, successor.ID, blocked.TaskID)
	assert.Equal(t, predecessor.ID, blocked.PredecessorID)

	// Completing the chain in order unblocks the successor.
	require.NoError(t, engine.Complete(ctx, predecessor.ID, "olena"))
	require.NoError(t, engine.Complete(ctx, successor.ID, "olena"))
}

func TestEngineReopen(t *testing.T) {
	store := testutil.SetupTestDB(t)
	now := testutil.Date(2025, time.March, 15)
	engine := NewEngine(store, Config{Now: func() time.Time { return now }})
	ctx := context.Background()

	task := openTask("t1", testutil.Date(2025, time.March, 1), testutil.Date(2025, time.March, 28))
	seedTask(t, store, task)

	err := engine.Reopen(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrNotCompleted)

	require.NoError(t, engine.Complete(ctx, "t1", "olena"))
	require.NoError(t, engine.Reopen(ctx, "t1"))

	stored, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, stored.Completed())
	assert.Nil(t, stored.CompletedAt)
	assert.Empty(t, stored.CompletedBy)
}

func TestEngineTasksForClient(t *testing.T) {
	store := testutil.SetupTestDB(t)
	now := testutil.Date(2025, time.March, 15)
	engine := NewEngine(store, Config{Now: func() time.Time { return now }})
	ctx := context.Background()

	visible := openTask("t1", testutil.Date(2025, time.March, 1), testutil.Date(2025, time.March, 28))
	deleted := openTask("t2", testutil.Date(2025, time.March, 1), testutil.Date(2025, time.March, 10))
	deleted.SoftDeleted = true
	seedTask(t, store, visible)
	seedTask(t, store, deleted)

	tasks, err := engine.TasksForClient(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].Task.ID)
	assert.Equal(t, model.StatusUpcoming, tasks[0].Status)
}
