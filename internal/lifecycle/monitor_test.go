package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorTick(t *testing.T) {
	store := testutil.SetupTestDB(t)
	now := testutil.Date(2025, time.March, 15)
	engine := NewEngine(store, Config{Now: func() time.Time { return now }})

	overdue := openTask("t1", testutil.Date(2025, time.February, 1), testutil.Date(2025, time.March, 10))
	upcoming := openTask("t2", testutil.Date(2025, time.March, 1), testutil.Date(2025, time.March, 28))
	done := openTask("t3", testutil.Date(2025, time.February, 1), testutil.Date(2025, time.February, 20))
	seedTask(t, store, overdue)
	seedTask(t, store, upcoming)
	seedTask(t, store, done)
	require.NoError(t, store.Complete(context.Background(), "t3", "olena", now))

	var snapshot Snapshot
	monitor := NewMonitor(engine, store, time.Minute, func(s Snapshot) { snapshot = s })

	require.NoError(t, monitor.tick(context.Background()))

	// Completed tasks drop out of the open set entirely.
	assert.Len(t, snapshot.Tasks, 2)
	assert.Equal(t, 1, snapshot.Counts[model.StatusOverdue])
	assert.Equal(t, 1, snapshot.Counts[model.StatusUpcoming])
	assert.Zero(t, snapshot.Counts[model.StatusCompleted])
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	store := testutil.SetupTestDB(t)
	engine := NewEngine(store, Config{})
	monitor := NewMonitor(engine, store, time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := monitor.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
