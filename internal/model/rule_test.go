package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validRule() Rule {
	return Rule{
		ID:            "vat-report",
		TitleTemplate: "VAT report for {month:gen} {year}",
		Kind:          KindReport,
		Periodicity:   PeriodicityMonthly,
		Date:          DateExpression{Day: 20},
		Transfer:      TransferNextBusinessDay,
		Active:        true,
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr error
	}{
		{name: "valid", mutate: func(*Rule) {}, wantErr: nil},
		{name: "missing id", mutate: func(r *Rule) { r.ID = "" }, wantErr: ErrRuleMissingID},
		{name: "missing title", mutate: func(r *Rule) { r.TitleTemplate = "" }, wantErr: ErrRuleMissingTitle},
		{name: "bad kind", mutate: func(r *Rule) { r.Kind = "chore" }, wantErr: ErrRuleBadKind},
		{name: "none periodicity", mutate: func(r *Rule) { r.Periodicity = PeriodicityNone }, wantErr: ErrRuleBadPeriodicity},
		{name: "bad transfer", mutate: func(r *Rule) { r.Transfer = "skip" }, wantErr: ErrRuleBadTransfer},
		{name: "day zero", mutate: func(r *Rule) { r.Date.Day = 0 }, wantErr: ErrDateExprBadDay},
		{name: "day 32", mutate: func(r *Rule) { r.Date.Day = 32 }, wantErr: ErrDateExprBadDay},
		{
			name:    "bad applicability",
			mutate:  func(r *Rule) { r.Applicability = Condition{Op: "xor"} },
			wantErr: ErrConditionBadOp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(&rule)
			err := rule.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDateExpressionValidate(t *testing.T) {
	month := time.March
	badMonth := time.Month(13)
	offset := 1

	tests := []struct {
		name    string
		expr    DateExpression
		wantErr error
	}{
		{name: "day only", expr: DateExpression{Day: 15}, wantErr: nil},
		{name: "fixed month", expr: DateExpression{Day: 1, Month: &month}, wantErr: nil},
		{name: "month offset", expr: DateExpression{Day: 20, MonthOffset: &offset}, wantErr: nil},
		{name: "quarter offset", expr: DateExpression{Day: 25, QuarterMonthOffset: &offset}, wantErr: nil},
		{
			name:    "special rule ignores day",
			expr:    DateExpression{SpecialRule: SpecialLastWorkingDayOfYear},
			wantErr: nil,
		},
		{
			name:    "two selectors",
			expr:    DateExpression{Day: 1, Month: &month, MonthOffset: &offset},
			wantErr: ErrDateExprAmbiguous,
		},
		{name: "month 13", expr: DateExpression{Day: 1, Month: &badMonth}, wantErr: ErrDateExprBadMonth},
		{
			name:    "unknown special",
			expr:    DateExpression{SpecialRule: "first_monday"},
			wantErr: ErrDateExprBadSpecial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expr.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRulePeriodExcluded(t *testing.T) {
	rule := validRule()
	rule.ExcludedPeriods = []int{1, 12}

	assert.True(t, rule.PeriodExcluded(1))
	assert.True(t, rule.PeriodExcluded(12))
	assert.False(t, rule.PeriodExcluded(6))

	rule.ExcludedPeriods = nil
	assert.False(t, rule.PeriodExcluded(1))
}

func TestStoredTaskDueDate(t *testing.T) {
	today := time.Date(2025, time.June, 10, 14, 30, 0, 0, time.UTC)
	due := time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)

	fixed := StoredTask{CurrentDueDate: due, Completion: CompletionOpen}
	assert.Equal(t, due, fixed.DueDate(today))

	floating := StoredTask{CurrentDueDate: due, Completion: CompletionOpen, IsFloating: true}
	assert.Equal(t, DateOnly(today), floating.DueDate(today))

	floatingDone := StoredTask{CurrentDueDate: due, Completion: CompletionCompleted, IsFloating: true}
	assert.Equal(t, due, floatingDone.DueDate(today))
}

func TestNewManualTask(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	task := NewManualTask("c1", "Call the auditor", KindNotification, due, false, now)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, SourceManual, task.Source)
	assert.Equal(t, due, task.CurrentDueDate)
	assert.Equal(t, CompletionOpen, task.Completion)

	other := NewManualTask("c1", "Call the auditor", KindNotification, due, false, now)
	assert.NotEqual(t, task.ID, other.ID)
}
