package generator

import (
	"context"
	"testing"
	"time"

	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/schedule"
	"github.com/dueflow/dueflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(holidays ...time.Time) *Generator {
	resolver := schedule.NewResolver(testutil.NewFakeCalendar(holidays...))
	return New(resolver, schedule.EnglishLocale)
}

func octoberSpan() model.PeriodRange {
	return model.PeriodRange{
		From: testutil.Date(2025, time.October, 1),
		To:   testutil.Date(2025, time.October, 31),
	}
}

func TestGenerateResolvesDates(t *testing.T) {
	gen := newGenerator()
	rule := testutil.MonthlyRule("vat-report", 25)

	// 2025-10-25 is a Saturday: nominal stays on the statutory date, the
	// effective date transfers to Monday the 27th.
	tasks, err := gen.Generate(context.Background(), testutil.EmployerProfile("c1"),
		[]model.Rule{rule}, octoberSpan())
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "vat-report_c1_2025-10", task.ID)
	assert.Equal(t, "vat-report", task.SeriesID)
	assert.Equal(t, testutil.Date(2025, time.October, 25), task.NominalDate)
	assert.Equal(t, testutil.Date(2025, time.October, 27), task.EffectiveDate)
	assert.Equal(t, "Report for October 2025", task.Title)
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := newGenerator()
	rules := []model.Rule{
		testutil.MonthlyRule("vat-report", 20),
		testutil.MonthlyRule("payroll", 15),
	}
	span := model.PeriodRange{
		From: testutil.Date(2025, time.January, 1),
		To:   testutil.Date(2025, time.June, 30),
	}
	profile := testutil.EmployerProfile("c1")

	first, err := gen.Generate(context.Background(), profile, rules, span)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), profile, rules, span)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 12)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].EffectiveDate.Before(first[i-1].EffectiveDate),
			"tasks must be ordered by effective date")
	}
}

func TestGenerateSkipsInactiveRules(t *testing.T) {
	gen := newGenerator()
	rule := testutil.MonthlyRule("vat-report", 20)
	rule.Active = false

	tasks, err := gen.Generate(context.Background(), testutil.EmployerProfile("c1"),
		[]model.Rule{rule}, octoberSpan())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestGenerateSkipsMalformedRules(t *testing.T) {
	gen := newGenerator()
	broken := testutil.MonthlyRule("broken", 0) // day 0 fails validation
	good := testutil.MonthlyRule("vat-report", 20)

	tasks, err := gen.Generate(context.Background(), testutil.EmployerProfile("c1"),
		[]model.Rule{broken, good}, octoberSpan())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "vat-report_c1_2025-10", tasks[0].ID)
}

func TestGenerateFiltersByApplicability(t *testing.T) {
	gen := newGenerator()
	payroll := testutil.MonthlyRule("payroll", 15)
	payroll.Applicability = model.FieldEquals(model.FieldHasEmployees, "true")

	withStaff, err := gen.Generate(context.Background(), testutil.EmployerProfile("c1"),
		[]model.Rule{payroll}, octoberSpan())
	require.NoError(t, err)
	assert.Len(t, withStaff, 1)

	solo, err := gen.Generate(context.Background(), testutil.SoloProfile("c2"),
		[]model.Rule{payroll}, octoberSpan())
	require.NoError(t, err)
	assert.Empty(t, solo)
}

func TestGenerateHonorsPeriodExclusions(t *testing.T) {
	gen := newGenerator()
	rule := testutil.MonthlyRule("vat-report", 20)
	rule.ExcludedPeriods = []int{3, 6, 9, 12} // quarter-end months reported separately

	span := model.PeriodRange{
		From: testutil.Date(2025, time.January, 1),
		To:   testutil.Date(2025, time.December, 31),
	}
	tasks, err := gen.Generate(context.Background(), testutil.EmployerProfile("c1"),
		[]model.Rule{rule}, span)
	require.NoError(t, err)
	require.Len(t, tasks, 8)
	for _, task := range tasks {
		assert.NotContains(t, []time.Month{time.March, time.June, time.September, time.December},
			task.Period.Month)
	}
}

func TestGenerateQuarterlyRule(t *testing.T) {
	gen := newGenerator()
	offset := 1 // month after the quarter ends
	rule := model.Rule{
		ID:            "profit-advance",
		TitleTemplate: "Profit tax advance Q{quarter} {year}",
		Kind:          model.KindPayment,
		Periodicity:   model.PeriodicityQuarterly,
		Date:          model.DateExpression{Day: 19, QuarterMonthOffset: &offset},
		Transfer:      model.TransferPreviousBusinessDay,
		Active:        true,
	}

	span := model.PeriodRange{
		From: testutil.Date(2025, time.January, 1),
		To:   testutil.Date(2025, time.June, 30),
	}
	tasks, err := gen.Generate(context.Background(), testutil.EmployerProfile("c1"),
		[]model.Rule{rule}, span)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "profit-advance_c1_2025-Q1", tasks[0].ID)
	assert.Equal(t, "Profit tax advance Q1 2025", tasks[0].Title)
	// Q1's offset month is February; the 19th is a Wednesday, no transfer.
	assert.Equal(t, testutil.Date(2025, time.February, 19), tasks[0].EffectiveDate)
}

func TestGenerateCanceledContext(t *testing.T) {
	gen := newGenerator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, testutil.EmployerProfile("c1"),
		[]model.Rule{testutil.MonthlyRule("vat-report", 20)}, octoberSpan())
	assert.ErrorIs(t, err, context.Canceled)
}
