package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskSource says whether a task came from rule generation or a human.
type TaskSource string

// Task source constants. Manual tasks are never touched by reconciliation.
const (
	SourceAutomatic TaskSource = "automatic"
	SourceManual    TaskSource = "manual"
)

// CompletionState is the persisted completion state of a task.
type CompletionState string

// Completion state constants.
const (
	CompletionOpen      CompletionState = "open"
	CompletionCompleted CompletionState = "completed"
)

// Status is a derived display state, computed at read time and never stored.
type Status string

// Display status constants.
const (
	StatusUpcoming  Status = "upcoming"
	StatusDueSoon   Status = "due_soon"
	StatusDueToday  Status = "due_today"
	StatusOverdue   Status = "overdue"
	StatusCompleted Status = "completed"
	StatusLocked    Status = "locked"
)

// TaskID derives the deterministic identity of a generated task. The format
// is stable and persisted; the same rule, client and period always map to
// the same id across passes.
func TaskID(ruleID, clientID, periodKey string) string {
	return fmt.Sprintf("%s_%s_%s", ruleID, clientID, periodKey)
}

// GeneratedTask is one candidate task produced by a generation pass. It is
// ephemeral; reconciliation diffs it against the stored set.
type GeneratedTask struct {
	ID            string
	ClientID      string
	SeriesID      string // rule id, groups same-rule tasks across periods
	Title         string
	Kind          TaskKind
	Period        Period
	NominalDate   time.Time
	EffectiveDate time.Time
}

// StoredTask is the persisted record of one task instance.
type StoredTask struct {
	ID              string          `json:"id"`
	ClientID        string          `json:"client_id"`
	SeriesID        string          `json:"series_id,omitempty"`
	Title           string          `json:"title"`
	Kind            TaskKind        `json:"kind"`
	Source          TaskSource      `json:"source"`
	PeriodKey       string          `json:"period_key,omitempty"`
	PeriodStart     time.Time       `json:"period_start"`
	OriginalDueDate time.Time       `json:"original_due_date"`
	CurrentDueDate  time.Time       `json:"current_due_date"`
	Completion      CompletionState `json:"completion"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CompletedBy     string          `json:"completed_by,omitempty"`
	SoftDeleted     bool            `json:"soft_deleted"`
	Archived        bool            `json:"archived"`
	IsFloating      bool            `json:"is_floating"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Completed reports whether the task has been marked done.
func (t *StoredTask) Completed() bool {
	return t.Completion == CompletionCompleted
}

// DueDate returns the task's effective due date at day granularity. For a
// floating task that is still open the due date is always "today".
func (t *StoredTask) DueDate(today time.Time) time.Time {
	if t.IsFloating && !t.Completed() {
		return DateOnly(today)
	}
	return DateOnly(t.CurrentDueDate)
}

// FromGenerated converts a generation candidate into its stored form.
func FromGenerated(g GeneratedTask, now time.Time) StoredTask {
	return StoredTask{
		ID:              g.ID,
		ClientID:        g.ClientID,
		SeriesID:        g.SeriesID,
		Title:           g.Title,
		Kind:            g.Kind,
		Source:          SourceAutomatic,
		PeriodKey:       g.Period.Key(),
		PeriodStart:     g.Period.Start(),
		OriginalDueDate: g.NominalDate,
		CurrentDueDate:  g.EffectiveDate,
		Completion:      CompletionOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewManualTask creates a human-entered one-off task with an opaque id.
func NewManualTask(clientID, title string, kind TaskKind, dueDate time.Time, floating bool, now time.Time) StoredTask {
	return StoredTask{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		Title:           title,
		Kind:            kind,
		Source:          SourceManual,
		PeriodStart:     DateOnly(dueDate),
		OriginalDueDate: DateOnly(dueDate),
		CurrentDueDate:  DateOnly(dueDate),
		Completion:      CompletionOpen,
		IsFloating:      floating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
