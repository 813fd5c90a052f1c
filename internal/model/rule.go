package model

import (
	"errors"
	"fmt"
	"time"
)

// TaskKind classifies what a deadline obliges the client to do.
type TaskKind string

// Task kind constants.
const (
	KindNotification TaskKind = "notification"
	KindPayment      TaskKind = "payment"
	KindReport       TaskKind = "report"
)

// TransferPolicy says how a nominal date landing on a non-workday moves.
type TransferPolicy string

// Transfer policy constants.
const (
	TransferNextBusinessDay     TransferPolicy = "next_business_day"
	TransferPreviousBusinessDay TransferPolicy = "previous_business_day"
	TransferNone                TransferPolicy = "no_transfer"
)

// SpecialDateRule overrides day/month resolution for dates that cannot be
// expressed as a fixed day-of-month.
type SpecialDateRule string

// Special date rule constants.
const (
	SpecialNone                  SpecialDateRule = ""
	SpecialLastWorkingDayOfYear  SpecialDateRule = "last_working_day_of_year"
	SpecialLastWorkingDayOfMonth SpecialDateRule = "last_working_day_of_month"
)

// Rule validation errors.
var (
	ErrRuleMissingID       = errors.New("rule is missing an id")
	ErrRuleMissingTitle    = errors.New("rule is missing a title template")
	ErrRuleBadPeriodicity  = errors.New("rule has an invalid periodicity")
	ErrRuleBadKind         = errors.New("rule has an invalid task kind")
	ErrRuleBadTransfer     = errors.New("rule has an invalid transfer policy")
	ErrDateExprAmbiguous   = errors.New("date expression sets more than one month selector")
	ErrDateExprBadDay      = errors.New("date expression day must be between 1 and 31")
	ErrDateExprBadMonth    = errors.New("date expression month must be between 1 and 12")
	ErrDateExprBadSpecial  = errors.New("date expression has an unknown special rule")
)

// DateExpression describes how the nominal statutory date for one period is
// derived. At most one of Month, MonthOffset, QuarterMonthOffset may be set;
// SpecialRule overrides Day and the month selectors entirely.
type DateExpression struct {
	Day                int             `json:"day"`
	Month              *time.Month     `json:"month,omitempty"`
	MonthOffset        *int            `json:"month_offset,omitempty"`
	QuarterMonthOffset *int            `json:"quarter_month_offset,omitempty"`
	SpecialRule        SpecialDateRule `json:"special_rule,omitempty"`
}

// Validate checks the expression for internal consistency.
func (e DateExpression) Validate() error {
	switch e.SpecialRule {
	case SpecialNone:
	case SpecialLastWorkingDayOfYear, SpecialLastWorkingDayOfMonth:
		return nil // special rules ignore day/month
	default:
		return fmt.Errorf("%w: %q", ErrDateExprBadSpecial, e.SpecialRule)
	}

	selectors := 0
	if e.Month != nil {
		selectors++
		if *e.Month < time.January || *e.Month > time.December {
			return fmt.Errorf("%w: %d", ErrDateExprBadMonth, int(*e.Month))
		}
	}
	if e.MonthOffset != nil {
		selectors++
	}
	if e.QuarterMonthOffset != nil {
		selectors++
	}
	if selectors > 1 {
		return ErrDateExprAmbiguous
	}

	if e.Day < 1 || e.Day > 31 {
		return fmt.Errorf("%w: got %d", ErrDateExprBadDay, e.Day)
	}
	return nil
}

// Rule is the immutable declarative definition of one deadline class.
// A rule read for a generation pass is never mutated; catalog changes take
// effect on the next pass.
type Rule struct {
	ID              string          `json:"id"`
	TitleTemplate   string          `json:"title_template"`
	Kind            TaskKind        `json:"kind"`
	Periodicity     Periodicity     `json:"periodicity"`
	Date            DateExpression  `json:"date"`
	Transfer        TransferPolicy  `json:"transfer"`
	Applicability   Condition       `json:"applicability"`
	ExcludedPeriods []int           `json:"excluded_periods,omitempty"`
	Active          bool            `json:"active"`
}

// Validate checks the rule definition. A rule failing validation is skipped
// by generation, never fatal to the whole pass.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return ErrRuleMissingID
	}
	if r.TitleTemplate == "" {
		return fmt.Errorf("%w: %s", ErrRuleMissingTitle, r.ID)
	}
	switch r.Kind {
	case KindNotification, KindPayment, KindReport:
	default:
		return fmt.Errorf("%w: %s has kind %q", ErrRuleBadKind, r.ID, r.Kind)
	}
	switch r.Periodicity {
	case PeriodicityMonthly, PeriodicityQuarterly, PeriodicityYearly:
	default:
		// PeriodicityNone is reserved for manual one-off tasks.
		return fmt.Errorf("%w: %s has periodicity %q", ErrRuleBadPeriodicity, r.ID, r.Periodicity)
	}
	switch r.Transfer {
	case TransferNextBusinessDay, TransferPreviousBusinessDay, TransferNone:
	default:
		return fmt.Errorf("%w: %s has policy %q", ErrRuleBadTransfer, r.ID, r.Transfer)
	}
	if err := r.Date.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if err := r.Applicability.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return nil
}

// PeriodExcluded reports whether the rule must not fire for the period with
// the given in-year index (month number or quarter number).
func (r *Rule) PeriodExcluded(index int) bool {
	for _, excluded := range r.ExcludedPeriods {
		if excluded == index {
			return true
		}
	}
	return false
}
