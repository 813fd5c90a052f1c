// Package generator expands the declarative rule catalog into dated task
// candidates for one client. Generation is a pure function of the rule set,
// the calendar, the client profile and the period range: no hidden state
// and no randomness, so regenerating a period is always byte-identical.
// Reconciliation depends on that purity.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/schedule"
)

// Generator expands rules into task candidates.
type Generator struct {
	resolver *schedule.Resolver
	locale   schedule.Locale
}

// New creates a generator using the given date resolver and title locale.
func New(resolver *schedule.Resolver, locale schedule.Locale) *Generator {
	return &Generator{resolver: resolver, locale: locale}
}

// Generate produces the candidate task set for one client over a period
// range. A malformed rule is skipped and logged, never fatal to the pass;
// the remaining rules still generate.
func (g *Generator) Generate(ctx context.Context, profile model.ClientProfile, rules []model.Rule, span model.PeriodRange) ([]model.GeneratedTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tasks []model.GeneratedTask

	for i := range rules {
		rule := &rules[i]
		if !rule.Active {
			continue
		}

		if err := rule.Validate(); err != nil {
			common.LogWarn("Skipping malformed rule", common.Fields{
				"rule_id": rule.ID,
				"error":   fmt.Errorf("%w: %v", common.ErrInvalidRuleDefinition, err),
			})
			continue
		}

		applies, err := rule.Applicability.Evaluate(profile)
		if err != nil {
			common.LogWarn("Skipping rule with unevaluable applicability", common.Fields{
				"rule_id":   rule.ID,
				"client_id": profile.ID,
				"error":     err,
			})
			continue
		}
		if !applies {
			continue
		}

		ruleTasks, err := g.expandRule(ctx, profile, rule, span)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			common.LogWarn("Skipping rule that failed to expand", common.Fields{
				"rule_id": rule.ID,
				"error":   err,
			})
			continue
		}

		for _, task := range ruleTasks {
			if seen[task.ID] {
				continue
			}
			seen[task.ID] = true
			tasks = append(tasks, task)
		}
	}

	// Deterministic output order regardless of map iteration.
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].EffectiveDate.Equal(tasks[j].EffectiveDate) {
			return tasks[i].EffectiveDate.Before(tasks[j].EffectiveDate)
		}
		return tasks[i].ID < tasks[j].ID
	})

	slog.Debug("Generated tasks for client",
		"client_id", profile.ID,
		"rules", len(rules),
		"tasks", len(tasks))

	return tasks, nil
}

// expandRule enumerates the rule's periods inside the span and resolves one
// task per non-excluded period. Period exclusion happens before nominal
// date resolution.
func (g *Generator) expandRule(ctx context.Context, profile model.ClientProfile, rule *model.Rule, span model.PeriodRange) ([]model.GeneratedTask, error) {
	var tasks []model.GeneratedTask

	for _, period := range span.Periods(rule.Periodicity) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rule.PeriodExcluded(period.Index()) {
			continue
		}

		nominal, effective, err := g.resolver.Effective(ctx, rule.Date, rule.Transfer, period)
		if err != nil {
			return nil, fmt.Errorf("rule %s period %s: %w", rule.ID, period.Key(), err)
		}

		tasks = append(tasks, model.GeneratedTask{
			ID:            model.TaskID(rule.ID, profile.ID, period.Key()),
			ClientID:      profile.ID,
			SeriesID:      rule.ID,
			Title:         schedule.RenderTitle(rule.TitleTemplate, period, g.locale),
			Kind:          rule.Kind,
			Period:        period,
			NominalDate:   nominal,
			EffectiveDate: effective,
		})
	}

	return tasks, nil
}
