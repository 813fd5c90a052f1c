package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dueflow/dueflow/internal/model"
)

// PendingChanges returns unprocessed profile changes in arrival order.
// Entries stay pending until explicitly acknowledged, so delivery is
// at-least-once and consumers must dedupe by id.
func (s *SQLiteStorage) PendingChanges(ctx context.Context) ([]model.ProfileChange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, effective_date, created_at, processed_at
		FROM profile_changes WHERE processed_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var changes []model.ProfileChange
	for rows.Next() {
		var change model.ProfileChange
		var processedAt sql.NullTime
		if err := rows.Scan(
			&change.ID,
			&change.ClientID,
			&change.EffectiveDate,
			&change.CreatedAt,
			&processedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile change: %w", err)
		}
		if processedAt.Valid {
			at := processedAt.Time
			change.ProcessedAt = &at
		}
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profile changes: %w", err)
	}
	return changes, nil
}

// RecordChange appends a profile-change entry to the feed.
func (s *SQLiteStorage) RecordChange(ctx context.Context, clientID string, effectiveDate time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(clientID, "clientID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile_changes (client_id, effective_date) VALUES (?, ?)`,
		clientID, model.DateOnly(effectiveDate))
	if err != nil {
		return fmt.Errorf("failed to record profile change for %s: %w", clientID, err)
	}
	return nil
}

// MarkProcessed acknowledges a change. Acknowledging twice is a no-op.
func (s *SQLiteStorage) MarkProcessed(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE profile_changes SET processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND processed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to mark change %d processed: %w", id, err)
	}
	return nil
}
