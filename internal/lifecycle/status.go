// Package lifecycle derives a task's display status as a pure function of
// the clock and its persisted completion state. Status is never stored, so
// it is always consistent with current time; any number of readers may
// derive it concurrently without locking.
package lifecycle

import (
	"sort"
	"time"

	"github.com/dueflow/dueflow/internal/model"
)

// DefaultCompletionLeadDays is the window before the due date in which an
// open task shows as due soon.
const DefaultCompletionLeadDays = 3

// Derive maps a task to its display status at the given instant.
func Derive(task *model.StoredTask, now time.Time, leadDays int) model.Status {
	if task.Completed() {
		return model.StatusCompleted
	}

	today := model.DateOnly(now)

	// A task is not completable before its statutory period begins,
	// independent of its due date.
	if today.Before(model.DateOnly(task.PeriodStart)) {
		return model.StatusLocked
	}

	due := task.DueDate(now)
	switch {
	case due.Before(today):
		return model.StatusOverdue
	case due.Equal(today):
		return model.StatusDueToday
	case !due.After(today.AddDate(0, 0, leadDays)):
		return model.StatusDueSoon
	default:
		return model.StatusUpcoming
	}
}

// BlockingPredecessor returns the earliest task in the same series that
// prevents completing the given task: an earlier-period task that is still
// open and already due. A predecessor that is completed, soft-deleted, or
// not yet due does not block. Returns nil when nothing blocks.
func BlockingPredecessor(task *model.StoredTask, all []model.StoredTask, now time.Time) *model.StoredTask {
	if task.SeriesID == "" {
		return nil
	}

	today := model.DateOnly(now)

	var predecessors []*model.StoredTask
	for i := range all {
		candidate := &all[i]
		if candidate.ID == task.ID ||
			candidate.SeriesID != task.SeriesID ||
			candidate.ClientID != task.ClientID ||
			candidate.SoftDeleted {
			continue
		}
		if candidate.PeriodStart.Before(task.PeriodStart) {
			predecessors = append(predecessors, candidate)
		}
	}

	sort.Slice(predecessors, func(i, j int) bool {
		return predecessors[i].PeriodStart.Before(predecessors[j].PeriodStart)
	})

	for _, predecessor := range predecessors {
		if predecessor.Completed() {
			continue
		}
		if !predecessor.DueDate(now).After(today) {
			return predecessor
		}
	}
	return nil
}

// CanComplete reports whether the task may be completed now: its period has
// begun, it is still open, and no earlier same-series task is open and due.
func CanComplete(task *model.StoredTask, all []model.StoredTask, now time.Time) bool {
	if task.Completed() || task.SoftDeleted {
		return false
	}
	if Derive(task, now, DefaultCompletionLeadDays) == model.StatusLocked {
		return false
	}
	return BlockingPredecessor(task, all, now) == nil
}
