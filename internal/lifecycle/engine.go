package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/service"
)

// Engine enforces completion rules at the service boundary and answers
// status queries against the store. Blocking is not a UI concern: an
// attempt to complete a blocked task fails here with the predecessor.
type Engine struct {
	store    service.TaskStore
	now      func() time.Time
	leadDays int
}

// Config holds configuration options for the lifecycle engine.
type Config struct {
	CompletionLeadDays int
	Now                func() time.Time
}

// NewEngine creates a lifecycle engine over the given task store.
func NewEngine(store service.TaskStore, config Config) *Engine {
	leadDays := config.CompletionLeadDays
	if leadDays <= 0 {
		leadDays = DefaultCompletionLeadDays
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, now: now, leadDays: leadDays}
}

// TaskWithStatus pairs a stored task with its derived display status.
type TaskWithStatus struct {
	Task   model.StoredTask
	Status model.Status
}

// Status derives the display status of a single task.
func (e *Engine) Status(task *model.StoredTask) model.Status {
	return Derive(task, e.now(), e.leadDays)
}

// TasksForClient loads a client's live tasks with derived statuses.
func (e *Engine) TasksForClient(ctx context.Context, clientID string) ([]TaskWithStatus, error) {
	tasks, err := e.store.GetTasksByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	now := e.now()
	result := make([]TaskWithStatus, 0, len(tasks))
	for i := range tasks {
		if tasks[i].SoftDeleted {
			continue
		}
		result = append(result, TaskWithStatus{
			Task:   tasks[i],
			Status: Derive(&tasks[i], now, e.leadDays),
		})
	}
	return result, nil
}

// Complete marks a task done on behalf of an actor. It fails with
// common.ErrTaskLocked when the task's period has not begun and with a
// common.BlockedError naming the predecessor when the series chain is
// unsatisfied.
func (e *Engine) Complete(ctx context.Context, id, actor string) error {
	task, err := e.store.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", id, err)
	}
	if task.Completed() {
		return fmt.Errorf("%w: %s", common.ErrAlreadyCompleted, id)
	}

	now := e.now()
	if Derive(task, now, e.leadDays) == model.StatusLocked {
		return fmt.Errorf("%w: %s starts %s", common.ErrTaskLocked, id,
			task.PeriodStart.Format("2006-01-02"))
	}

	siblings, err := e.store.GetTasksByClient(ctx, task.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client tasks: %w", err)
	}
	if predecessor := BlockingPredecessor(task, siblings, now); predecessor != nil {
		return &common.BlockedError{TaskID: id, PredecessorID: predecessor.ID}
	}

	return e.store.Complete(ctx, id, actor, now)
}

// Reopen clears a task's completion state.
func (e *Engine) Reopen(ctx context.Context, id string) error {
	task, err := e.store.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", id, err)
	}
	if !task.Completed() {
		return fmt.Errorf("%w: %s", common.ErrNotCompleted, id)
	}
	return e.store.Reopen(ctx, id)
}
