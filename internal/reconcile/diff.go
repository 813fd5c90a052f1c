// Package reconcile keeps the persisted task set consistent with the rule
// catalog and client profiles. It diffs freshly generated candidates
// against stored tasks and applies the result, never touching completed or
// manually created tasks.
package reconcile

import (
	"time"

	"github.com/dueflow/dueflow/internal/model"
)

// DueDateUpdate corrects the dates of one stored task.
type DueDateUpdate struct {
	ID        string
	Nominal   time.Time
	Effective time.Time
}

// Diff is the set of store mutations one reconciliation pass produces for a
// client. Applying the same diff twice is a no-op given id-based upserts.
type Diff struct {
	ToInsert        []model.StoredTask
	ToUpdateDueDate []DueDateUpdate
	ToRestore       []DueDateUpdate
	ToSoftDelete    []string
}

// Empty reports whether the diff carries no mutations.
func (d Diff) Empty() bool {
	return len(d.ToInsert) == 0 &&
		len(d.ToUpdateDueDate) == 0 &&
		len(d.ToRestore) == 0 &&
		len(d.ToSoftDelete) == 0
}

// Compute diffs generated candidates against the stored set for one client.
//
//   - A candidate with no stored counterpart is inserted.
//   - A stored open automatic task whose freshly resolved effective date
//     differs (holiday list updates, rule edits) gets a date-only update.
//   - A stored open automatic task inside the span with no candidate (its
//     rule no longer applies) is soft-deleted.
//   - A soft-deleted open automatic task whose candidate reappeared (a
//     profile change was reverted, or invalidation regenerated the period)
//     is restored with fresh dates.
//   - Completed tasks and manual tasks are never touched.
//
// Deletion is scoped to the generation span so tasks for periods the pass
// did not expand are left alone. The function is pure; same inputs always
// yield the same diff.
func Compute(stored []model.StoredTask, generated []model.GeneratedTask, span model.PeriodRange, now time.Time) Diff {
	var diff Diff

	byID := make(map[string]*model.StoredTask, len(stored))
	for i := range stored {
		byID[stored[i].ID] = &stored[i]
	}

	matched := make(map[string]bool, len(generated))
	for _, candidate := range generated {
		matched[candidate.ID] = true

		existing, ok := byID[candidate.ID]
		if !ok {
			diff.ToInsert = append(diff.ToInsert, model.FromGenerated(candidate, now))
			continue
		}
		if existing.Source != model.SourceAutomatic || existing.Completed() {
			continue
		}

		update := DueDateUpdate{
			ID:        candidate.ID,
			Nominal:   candidate.NominalDate,
			Effective: candidate.EffectiveDate,
		}
		switch {
		case existing.SoftDeleted:
			diff.ToRestore = append(diff.ToRestore, update)
		case !model.DateOnly(existing.CurrentDueDate).Equal(model.DateOnly(candidate.EffectiveDate)):
			diff.ToUpdateDueDate = append(diff.ToUpdateDueDate, update)
		}
	}

	for i := range stored {
		task := &stored[i]
		if task.Source != model.SourceAutomatic ||
			task.Completed() ||
			task.SoftDeleted ||
			matched[task.ID] {
			continue
		}
		due := model.DateOnly(task.CurrentDueDate)
		if due.Before(model.DateOnly(span.From)) || due.After(model.DateOnly(span.To)) {
			continue
		}
		diff.ToSoftDelete = append(diff.ToSoftDelete, task.ID)
	}

	return diff
}
