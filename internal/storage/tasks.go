package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/service"
)

const taskColumns = `id, client_id, series_id, title, kind, source, period_key,
	period_start, original_due_date, current_due_date, completion,
	completed_at, completed_by, soft_deleted, archived, is_floating,
	created_at, updated_at`

// GetTasksByClient returns every task for a client, including soft-deleted
// ones; reconciliation needs the full set to diff against.
func (s *SQLiteStorage) GetTasksByClient(ctx context.Context, clientID string) ([]model.StoredTask, error) {
	return getTasksByClient(ctx, s.db, clientID)
}

func (t *sqliteTransaction) GetTasksByClient(ctx context.Context, clientID string) ([]model.StoredTask, error) {
	return getTasksByClient(ctx, t.tx, clientID)
}

func getTasksByClient(ctx context.Context, db dbtx, clientID string) ([]model.StoredTask, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(clientID, "clientID"); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE client_id = ? ORDER BY current_due_date, id`,
		clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTasks(rows)
}

// GetTask returns one task by id.
func (s *SQLiteStorage) GetTask(ctx context.Context, id string) (*model.StoredTask, error) {
	return getTask(ctx, s.db, id)
}

func (t *sqliteTransaction) GetTask(ctx context.Context, id string) (*model.StoredTask, error) {
	return getTask(ctx, t.tx, id)
}

func getTask(ctx context.Context, db dbtx, id string) (*model.StoredTask, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return task, nil
}

// GetTasks returns tasks matching the filter across all clients.
func (s *SQLiteStorage) GetTasks(ctx context.Context, filter service.TaskFilter) ([]model.StoredTask, error) {
	return getTasks(ctx, s.db, filter)
}

func (t *sqliteTransaction) GetTasks(ctx context.Context, filter service.TaskFilter) ([]model.StoredTask, error) {
	return getTasks(ctx, t.tx, filter)
}

func getTasks(ctx context.Context, db dbtx, filter service.TaskFilter) ([]model.StoredTask, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any

	if !filter.IncludeDeleted {
		query += ` AND soft_deleted = 0`
	}
	if filter.OnlyOpen {
		query += ` AND completion = ?`
		args = append(args, string(model.CompletionOpen))
	}
	if filter.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, filter.ClientID)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.DueAfter != nil {
		query += ` AND current_due_date >= ?`
		args = append(args, *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		query += ` AND current_due_date <= ?`
		args = append(args, *filter.DueBefore)
	}
	query += ` ORDER BY current_due_date, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTasks(rows)
}

// InsertTasks saves new tasks. Inserts are id-keyed upserts on the insert
// path: re-inserting an existing id is ignored, which keeps reconciliation
// retries harmless.
func (s *SQLiteStorage) InsertTasks(ctx context.Context, tasks []model.StoredTask) error {
	return insertTasks(ctx, s.db, tasks)
}

func (t *sqliteTransaction) InsertTasks(ctx context.Context, tasks []model.StoredTask) error {
	return insertTasks(ctx, t.tx, tasks)
}

func insertTasks(ctx context.Context, db dbtx, tasks []model.StoredTask) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTasks(tasks); err != nil {
		return err
	}

	for i := range tasks {
		task := &tasks[i]
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO tasks (
				id, client_id, series_id, title, kind, source, period_key,
				period_start, original_due_date, current_due_date, completion,
				completed_at, completed_by, soft_deleted, archived, is_floating,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.ID,
			task.ClientID,
			task.SeriesID,
			task.Title,
			string(task.Kind),
			string(task.Source),
			task.PeriodKey,
			task.PeriodStart,
			task.OriginalDueDate,
			task.CurrentDueDate,
			string(task.Completion),
			task.CompletedAt,
			task.CompletedBy,
			task.SoftDeleted,
			task.Archived,
			task.IsFloating,
			task.CreatedAt,
			task.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
		}
	}
	return nil
}

// UpdateDueDate corrects the dates of an open task. Completed tasks are
// never rewritten; the guard lives in the query itself.
func (s *SQLiteStorage) UpdateDueDate(ctx context.Context, id string, nominal, effective time.Time) error {
	return updateDueDate(ctx, s.db, id, nominal, effective)
}

func (t *sqliteTransaction) UpdateDueDate(ctx context.Context, id string, nominal, effective time.Time) error {
	return updateDueDate(ctx, t.tx, id, nominal, effective)
}

func updateDueDate(ctx context.Context, db dbtx, id string, nominal, effective time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET original_due_date = ?, current_due_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND completion = ?`,
		nominal, effective, id, string(model.CompletionOpen))
	if err != nil {
		return fmt.Errorf("failed to update due date of %s: %w", id, err)
	}
	return nil
}

// SoftDelete marks an open automatic task deleted. Completed and manual
// tasks are excluded by the query guard.
func (s *SQLiteStorage) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, s.db, id)
}

func (t *sqliteTransaction) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, t.tx, id)
}

func softDelete(ctx context.Context, db dbtx, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET soft_deleted = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND completion = ? AND source = ?`,
		id, string(model.CompletionOpen), string(model.SourceAutomatic))
	if err != nil {
		return fmt.Errorf("failed to soft-delete %s: %w", id, err)
	}
	return nil
}

// Restore undeletes an open automatic task and refreshes its dates, used
// when a rule applies again after a profile change was reverted.
func (s *SQLiteStorage) Restore(ctx context.Context, id string, nominal, effective time.Time) error {
	return restoreTask(ctx, s.db, id, nominal, effective)
}

func (t *sqliteTransaction) Restore(ctx context.Context, id string, nominal, effective time.Time) error {
	return restoreTask(ctx, t.tx, id, nominal, effective)
}

func restoreTask(ctx context.Context, db dbtx, id string, nominal, effective time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET soft_deleted = 0, original_due_date = ?, current_due_date = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND completion = ? AND source = ?`,
		nominal, effective, id, string(model.CompletionOpen), string(model.SourceAutomatic))
	if err != nil {
		return fmt.Errorf("failed to restore %s: %w", id, err)
	}
	return nil
}

// Complete marks a task done by an actor at the given time.
func (s *SQLiteStorage) Complete(ctx context.Context, id, actor string, at time.Time) error {
	return completeTask(ctx, s.db, id, actor, at)
}

func (t *sqliteTransaction) Complete(ctx context.Context, id, actor string, at time.Time) error {
	return completeTask(ctx, t.tx, id, actor, at)
}

func completeTask(ctx context.Context, db dbtx, id, actor string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET completion = ?, completed_at = ?, completed_by = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND completion = ?`,
		string(model.CompletionCompleted), at, actor, id, string(model.CompletionOpen))
	if err != nil {
		return fmt.Errorf("failed to complete %s: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: task %s not open", common.ErrNotFound, id)
	}
	return nil
}

// Reopen clears a task's completion state.
func (s *SQLiteStorage) Reopen(ctx context.Context, id string) error {
	return reopenTask(ctx, s.db, id)
}

func (t *sqliteTransaction) Reopen(ctx context.Context, id string) error {
	return reopenTask(ctx, t.tx, id)
}

func reopenTask(ctx context.Context, db dbtx, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET completion = ?, completed_at = NULL, completed_by = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND completion = ?`,
		string(model.CompletionOpen), id, string(model.CompletionCompleted))
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: task %s not completed", common.ErrNotFound, id)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the task scan helper.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*model.StoredTask, error) {
	var task model.StoredTask
	var completedAt sql.NullTime
	var completedBy, seriesID, periodKey sql.NullString

	err := row.Scan(
		&task.ID,
		&task.ClientID,
		&seriesID,
		&task.Title,
		&task.Kind,
		&task.Source,
		&periodKey,
		&task.PeriodStart,
		&task.OriginalDueDate,
		&task.CurrentDueDate,
		&task.Completion,
		&completedAt,
		&completedBy,
		&task.SoftDeleted,
		&task.Archived,
		&task.IsFloating,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.SeriesID = seriesID.String
	task.PeriodKey = periodKey.String
	task.CompletedBy = completedBy.String
	if completedAt.Valid {
		at := completedAt.Time
		task.CompletedAt = &at
	}
	return &task, nil
}

func scanTasks(rows *sql.Rows) ([]model.StoredTask, error) {
	var tasks []model.StoredTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}
