package reconcile

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/dueflow/dueflow/internal/generator"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/schedule"
	"github.com/dueflow/dueflow/internal/storage"
	"github.com/dueflow/dueflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T) (*Reconciler, *storage.SQLiteStorage) {
	t.Helper()
	store := testutil.SetupTestDB(t)
	gen := generator.New(schedule.NewResolver(testutil.NewFakeCalendar()), schedule.EnglishLocale)
	config := Config{
		HorizonMonths: 12,
		Workers:       2,
		Now:           func() time.Time { return testutil.Date(2025, time.January, 15) },
	}
	return New(store, store, store, store, gen, config), store
}

func seedCatalog(t *testing.T, store *storage.SQLiteStorage, profiles []model.ClientProfile, rules []model.Rule) {
	t.Helper()
	ctx := context.Background()
	for i := range profiles {
		require.NoError(t, store.SaveClient(ctx, &profiles[i]))
	}
	for i := range rules {
		require.NoError(t, store.SaveRule(ctx, &rules[i]))
	}
}

func TestReconcileClientCreatesTasks(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	ctx := context.Background()

	seedCatalog(t, store,
		[]model.ClientProfile{testutil.EmployerProfile("c1")},
		[]model.Rule{testutil.MonthlyRule("vat-report", 20)})

	diff, err := reconciler.ReconcileClient(ctx, "c1", reconciler.DefaultSpan())
	require.NoError(t, err)
	assert.Len(t, diff.ToInsert, 12)

	tasks, err := store.GetTasksByClient(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, tasks, 12)
	assert.Equal(t, "vat-report_c1_2025-01", tasks[0].ID)
}

func TestReconcileClientIsIdempotent(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	ctx := context.Background()

	seedCatalog(t, store,
		[]model.ClientProfile{testutil.EmployerProfile("c1")},
		[]model.Rule{testutil.MonthlyRule("vat-report", 20)})

	_, err := reconciler.ReconcileClient(ctx, "c1", reconciler.DefaultSpan())
	require.NoError(t, err)

	second, err := reconciler.ReconcileClient(ctx, "c1", reconciler.DefaultSpan())
	require.NoError(t, err)
	assert.True(t, second.Empty())
}

func TestReconcileAllIsolatesFailures(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	ctx := context.Background()

	seedCatalog(t, store,
		[]model.ClientProfile{testutil.EmployerProfile("c1"), testutil.SoloProfile("c2")},
		[]model.Rule{testutil.MonthlyRule("vat-report", 20)})

	var results []ClientResult
	err := reconciler.ReconcileAll(ctx, func(result ClientResult) {
		results = append(results, result)
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	sort.Slice(results, func(i, j int) bool { return results[i].ClientID < results[j].ClientID })
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)

	tasks, err := store.GetTasksByClient(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, tasks, 12)
}

func TestProfileChangeRemovesFutureTasksOnly(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	ctx := context.Background()

	payroll := testutil.MonthlyRule("payroll", 15)
	payroll.Applicability = model.FieldEquals(model.FieldHasEmployees, "true")

	seedCatalog(t, store,
		[]model.ClientProfile{testutil.EmployerProfile("c1")},
		[]model.Rule{payroll})

	_, err := reconciler.ReconcileClient(ctx, "c1", reconciler.DefaultSpan())
	require.NoError(t, err)

	// August's payroll was already filed before the change arrived.
	require.NoError(t, store.Complete(ctx, "payroll_c1_2025-08", "olena",
		testutil.Date(2025, time.June, 1)))

	// The client lets all staff go with effect from July 1st.
	former := testutil.EmployerProfile("c1")
	former.HasEmployees = false
	require.NoError(t, store.SaveClient(ctx, &former))
	require.NoError(t, store.RecordChange(ctx, "c1", testutil.Date(2025, time.July, 1)))

	require.NoError(t, reconciler.ProcessProfileChanges(ctx))

	tasks, err := store.GetTasksByClient(ctx, "c1")
	require.NoError(t, err)

	byID := make(map[string]model.StoredTask, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	// First half of the year predates the change and stays live.
	for _, key := range []string{"2025-01", "2025-03", "2025-06"} {
		task := byID["payroll_c1_"+key]
		assert.False(t, task.SoftDeleted, "task %s must survive", key)
	}
	// From July on the rule no longer applies, except the completed August
	// filing, which reconciliation never touches.
	for _, key := range []string{"2025-07", "2025-09", "2025-12"} {
		task := byID["payroll_c1_"+key]
		assert.True(t, task.SoftDeleted, "task %s must be soft-deleted", key)
	}
	august := byID["payroll_c1_2025-08"]
	assert.False(t, august.SoftDeleted)
	assert.True(t, august.Completed())

	// The feed is drained.
	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProfileChangeRevertRestoresTasks(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	ctx := context.Background()

	payroll := testutil.MonthlyRule("payroll", 15)
	payroll.Applicability = model.FieldEquals(model.FieldHasEmployees, "true")

	seedCatalog(t, store,
		[]model.ClientProfile{testutil.EmployerProfile("c1")},
		[]model.Rule{payroll})

	_, err := reconciler.ReconcileClient(ctx, "c1", reconciler.DefaultSpan())
	require.NoError(t, err)

	former := testutil.EmployerProfile("c1")
	former.HasEmployees = false
	require.NoError(t, store.SaveClient(ctx, &former))
	require.NoError(t, store.RecordChange(ctx, "c1", testutil.Date(2025, time.July, 1)))
	require.NoError(t, reconciler.ProcessProfileChanges(ctx))

	// The change turns out to be wrong; the profile is reverted.
	restored := testutil.EmployerProfile("c1")
	require.NoError(t, store.SaveClient(ctx, &restored))
	require.NoError(t, store.RecordChange(ctx, "c1", testutil.Date(2025, time.July, 1)))
	require.NoError(t, reconciler.ProcessProfileChanges(ctx))

	tasks, err := store.GetTasksByClient(ctx, "c1")
	require.NoError(t, err)
	for _, task := range tasks {
		assert.False(t, task.SoftDeleted, "task %s must be restored", task.ID)
	}
	// Ids are deterministic, so the revert resurrects the same rows instead
	// of minting duplicates.
	assert.Len(t, tasks, 12)
}

func TestProcessProfileChangesAcknowledgesStaleClient(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.RecordChange(ctx, "ghost", testutil.Date(2025, time.July, 1)))
	require.NoError(t, reconciler.ProcessProfileChanges(ctx))

	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReconcilePreservesManualTasks(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	ctx := context.Background()

	seedCatalog(t, store,
		[]model.ClientProfile{testutil.EmployerProfile("c1")},
		[]model.Rule{testutil.MonthlyRule("vat-report", 20)})

	manual := model.NewManualTask("c1", "Call the auditor", model.KindNotification,
		testutil.Date(2025, time.March, 10), false, testutil.Date(2025, time.January, 2))
	require.NoError(t, store.InsertTasks(ctx, []model.StoredTask{manual}))

	_, err := reconciler.ReconcileClient(ctx, "c1", reconciler.DefaultSpan())
	require.NoError(t, err)

	stored, err := store.GetTask(ctx, manual.ID)
	require.NoError(t, err)
	assert.False(t, stored.SoftDeleted)
	assert.Equal(t, model.SourceManual, stored.Source)
}
