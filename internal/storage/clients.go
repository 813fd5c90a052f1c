package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"
)

// GetClient returns one client profile snapshot.
func (s *SQLiteStorage) GetClient(ctx context.Context, id string) (*model.ClientProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var profile model.ClientProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, legal_form, tax_regime, vat_payer, has_employees, profit_advance
		FROM clients WHERE id = ?`, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.LegalForm,
		&profile.TaxRegime,
		&profile.VATPayer,
		&profile.HasEmployees,
		&profile.ProfitAdvance,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: client %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client %s: %w", id, err)
	}
	return &profile, nil
}

// ListClients returns all client profiles ordered by id.
func (s *SQLiteStorage) ListClients(ctx context.Context) ([]model.ClientProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, legal_form, tax_regime, vat_payer, has_employees, profit_advance
		FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []model.ClientProfile
	for rows.Next() {
		var profile model.ClientProfile
		if err := rows.Scan(
			&profile.ID,
			&profile.Name,
			&profile.LegalForm,
			&profile.TaxRegime,
			&profile.VATPayer,
			&profile.HasEmployees,
			&profile.ProfitAdvance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return profiles, nil
}

// SaveClient inserts or replaces a client profile snapshot.
func (s *SQLiteStorage) SaveClient(ctx context.Context, profile *model.ClientProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, legal_form, tax_regime, vat_payer, has_employees, profit_advance)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			legal_form = excluded.legal_form,
			tax_regime = excluded.tax_regime,
			vat_payer = excluded.vat_payer,
			has_employees = excluded.has_employees,
			profit_advance = excluded.profit_advance,
			updated_at = CURRENT_TIMESTAMP`,
		profile.ID,
		profile.Name,
		string(profile.LegalForm),
		string(profile.TaxRegime),
		profile.VATPayer,
		profile.HasEmployees,
		string(profile.ProfitAdvance),
	)
	if err != nil {
		return fmt.Errorf("failed to save client %s: %w", profile.ID, err)
	}
	return nil
}
