package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dueflow/dueflow/internal/model"
)

// HolidaysForYear returns the jurisdiction holidays for one year.
// An empty result is a valid answer (a year with no imported data behaves
// as weekend-only once the calendar resolver caches it).
func (s *SQLiteStorage) HolidaysForYear(ctx context.Context, year int) ([]model.Holiday, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, name FROM holidays WHERE year = ? ORDER BY date`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays for %d: %w", year, err)
	}
	defer func() { _ = rows.Close() }()

	var holidays []model.Holiday
	for rows.Next() {
		var iso string
		var name sql.NullString
		if err := rows.Scan(&iso, &name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		date, err := time.ParseInLocation("2006-01-02", iso, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("malformed holiday date %q: %w", iso, err)
		}
		holidays = append(holidays, model.Holiday{Date: date, Name: name.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}
	return holidays, nil
}

// SaveHolidays replaces the holiday list for one year.
func (s *SQLiteStorage) SaveHolidays(ctx context.Context, year int, holidays []model.Holiday) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE year = ?`, year); err != nil {
		return fmt.Errorf("failed to clear holidays for %d: %w", year, err)
	}
	for _, h := range holidays {
		date := model.DateOnly(h.Date)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO holidays (date, year, name) VALUES (?, ?, ?)`,
			date.Format("2006-01-02"), date.Year(), h.Name); err != nil {
			return fmt.Errorf("failed to insert holiday %s: %w", date.Format("2006-01-02"), err)
		}
	}

	return tx.Commit()
}
