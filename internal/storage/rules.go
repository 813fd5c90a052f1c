package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dueflow/dueflow/internal/model"
)

// ListActiveRules loads the active rule set, ordered by id for stable
// generation passes. Date expressions and applicability conditions are
// stored as JSON so rules stay introspectable data.
func (s *SQLiteStorage) ListActiveRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title_template, kind, periodicity, date_expression,
			transfer, applicability, excluded_periods, active
		FROM rules WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var rule model.Rule
		var dateJSON, applicabilityJSON string
		var excludedJSON *string

		if err := rows.Scan(
			&rule.ID,
			&rule.TitleTemplate,
			&rule.Kind,
			&rule.Periodicity,
			&dateJSON,
			&rule.Transfer,
			&applicabilityJSON,
			&excludedJSON,
			&rule.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		if err := json.Unmarshal([]byte(dateJSON), &rule.Date); err != nil {
			return nil, fmt.Errorf("rule %s has malformed date expression: %w", rule.ID, err)
		}
		if err := json.Unmarshal([]byte(applicabilityJSON), &rule.Applicability); err != nil {
			return nil, fmt.Errorf("rule %s has malformed applicability: %w", rule.ID, err)
		}
		if excludedJSON != nil && *excludedJSON != "" {
			if err := json.Unmarshal([]byte(*excludedJSON), &rule.ExcludedPeriods); err != nil {
				return nil, fmt.Errorf("rule %s has malformed excluded periods: %w", rule.ID, err)
			}
		}

		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

// SaveRule inserts or replaces a rule definition. The rule is validated
// first so the catalog never stores a definition generation would reject.
func (s *SQLiteStorage) SaveRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	dateJSON, err := json.Marshal(rule.Date)
	if err != nil {
		return fmt.Errorf("failed to encode date expression: %w", err)
	}
	applicabilityJSON, err := json.Marshal(rule.Applicability)
	if err != nil {
		return fmt.Errorf("failed to encode applicability: %w", err)
	}
	excludedJSON, err := json.Marshal(rule.ExcludedPeriods)
	if err != nil {
		return fmt.Errorf("failed to encode excluded periods: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (
			id, title_template, kind, periodicity, date_expression,
			transfer, applicability, excluded_periods, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title_template = excluded.title_template,
			kind = excluded.kind,
			periodicity = excluded.periodicity,
			date_expression = excluded.date_expression,
			transfer = excluded.transfer,
			applicability = excluded.applicability,
			excluded_periods = excluded.excluded_periods,
			active = excluded.active,
			updated_at = CURRENT_TIMESTAMP`,
		rule.ID,
		rule.TitleTemplate,
		string(rule.Kind),
		string(rule.Periodicity),
		string(dateJSON),
		string(rule.Transfer),
		string(applicabilityJSON),
		string(excludedJSON),
		rule.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save rule %s: %w", rule.ID, err)
	}
	return nil
}
