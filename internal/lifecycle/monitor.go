package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/service"
)

// DefaultMonitorInterval is how often loaded task statuses are recomputed.
const DefaultMonitorInterval = 60 * time.Second

// Snapshot is one periodic status recomputation over the open task set.
type Snapshot struct {
	TakenAt time.Time
	Counts  map[model.Status]int
	Tasks   []TaskWithStatus
}

// Monitor periodically re-derives display statuses for all open tasks
// against the current clock. It only reads, so it never races with
// reconciliation writes.
type Monitor struct {
	engine   *Engine
	store    service.TaskStore
	interval time.Duration
	onUpdate func(Snapshot)
}

// NewMonitor creates a status monitor. onUpdate may be nil; snapshots are
// then only logged at debug level.
func NewMonitor(engine *Engine, store service.TaskStore, interval time.Duration, onUpdate func(Snapshot)) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &Monitor{engine: engine, store: store, interval: interval, onUpdate: onUpdate}
}

// Run recomputes statuses on each tick until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.tick(ctx); err != nil {
				slog.Error("Status recomputation failed", "error", err)
			}
		}
	}
}

func (m *Monitor) tick(ctx context.Context) error {
	tasks, err := m.store.GetTasks(ctx, service.TaskFilter{OnlyOpen: true})
	if err != nil {
		return err
	}

	now := time.Now()
	snapshot := Snapshot{
		TakenAt: now,
		Counts:  make(map[model.Status]int),
		Tasks:   make([]TaskWithStatus, 0, len(tasks)),
	}
	for i := range tasks {
		status := m.engine.Status(&tasks[i])
		snapshot.Counts[status]++
		snapshot.Tasks = append(snapshot.Tasks, TaskWithStatus{Task: tasks[i], Status: status})
	}

	slog.Debug("Recomputed task statuses",
		"tasks", len(snapshot.Tasks),
		"overdue", snapshot.Counts[model.StatusOverdue],
		"due_today", snapshot.Counts[model.StatusDueToday])

	if m.onUpdate != nil {
		m.onUpdate(snapshot)
	}
	return nil
}
