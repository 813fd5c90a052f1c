// Package service defines the interfaces for all engine collaborators.
package service

import (
	"context"
	"time"

	"github.com/dueflow/dueflow/internal/model"
)

// TaskFilter defines filtering options for task queries.
type TaskFilter struct {
	ClientID       string
	Kind           model.TaskKind
	IncludeDeleted bool
	OnlyOpen       bool
	DueBefore      *time.Time
	DueAfter       *time.Time
}

// TaskStore defines the contract for the persisted task set. Reconciliation
// never hard-deletes: obsolete automatic tasks are soft-deleted by id.
type TaskStore interface {
	GetTasksByClient(ctx context.Context, clientID string) ([]model.StoredTask, error)
	GetTask(ctx context.Context, id string) (*model.StoredTask, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.StoredTask, error)
	InsertTasks(ctx context.Context, tasks []model.StoredTask) error
	UpdateDueDate(ctx context.Context, id string, nominal, effective time.Time) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string, nominal, effective time.Time) error
	Complete(ctx context.Context, id, actor string, at time.Time) error
	Reopen(ctx context.Context, id string) error

	BeginTx(ctx context.Context) (Transaction, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Transaction represents a store transaction. One client's reconciliation
// diff is applied inside a single transaction so readers never observe a
// partial apply.
type Transaction interface {
	Commit() error
	Rollback() error
	TaskStore
}

// RuleCatalog supplies the declarative rule set. Rules are loaded once per
// generation cycle and treated as immutable for the duration of the pass.
type RuleCatalog interface {
	ListActiveRules(ctx context.Context) ([]model.Rule, error)
	SaveRule(ctx context.Context, rule *model.Rule) error
}

// ClientStore supplies client profile snapshots.
type ClientStore interface {
	GetClient(ctx context.Context, id string) (*model.ClientProfile, error)
	ListClients(ctx context.Context) ([]model.ClientProfile, error)
	SaveClient(ctx context.Context, profile *model.ClientProfile) error
}

// HolidaySource supplies the per-year jurisdiction holiday list, keyed by
// ISO date at day granularity.
type HolidaySource interface {
	HolidaysForYear(ctx context.Context, year int) ([]model.Holiday, error)
	SaveHolidays(ctx context.Context, year int, holidays []model.Holiday) error
}

// ProfileChangeFeed is the log of pending client-profile changes. Entries
// are delivered at least once; consumers must dedupe by processed id.
type ProfileChangeFeed interface {
	PendingChanges(ctx context.Context) ([]model.ProfileChange, error)
	RecordChange(ctx context.Context, clientID string, effectiveDate time.Time) error
	MarkProcessed(ctx context.Context, id int64) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
