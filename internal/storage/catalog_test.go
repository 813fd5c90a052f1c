package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndListRules(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	offset := 1
	rule := model.Rule{
		ID:            "profit-advance",
		TitleTemplate: "Profit tax advance Q{quarter} {year}",
		Kind:          model.KindPayment,
		Periodicity:   model.PeriodicityQuarterly,
		Date:          model.DateExpression{Day: 19, QuarterMonthOffset: &offset},
		Transfer:      model.TransferPreviousBusinessDay,
		Applicability: model.And(
			model.FieldEquals(model.FieldLegalForm, "company"),
			model.FieldEquals(model.FieldProfitAdvance, "quarterly"),
		),
		ExcludedPeriods: []int{4},
		Active:          true,
	}
	require.NoError(t, store.SaveRule(ctx, &rule))

	rules, err := store.ListActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, rule.ID, rules[0].ID)
	assert.Equal(t, rule.Date, rules[0].Date)
	assert.Equal(t, rule.Applicability, rules[0].Applicability)
	assert.Equal(t, rule.ExcludedPeriods, rules[0].ExcludedPeriods)
}

func TestListActiveRulesSkipsInactive(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	active := testutil.MonthlyRule("vat-report", 20)
	retired := testutil.MonthlyRule("old-levy", 10)
	retired.Active = false
	require.NoError(t, store.SaveRule(ctx, &active))
	require.NoError(t, store.SaveRule(ctx, &retired))

	rules, err := store.ListActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "vat-report", rules[0].ID)
}

func TestSaveRuleUpserts(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	rule := testutil.MonthlyRule("vat-report", 20)
	require.NoError(t, store.SaveRule(ctx, &rule))

	rule.Date.Day = 25
	require.NoError(t, store.SaveRule(ctx, &rule))

	rules, err := store.ListActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 25, rules[0].Date.Day)
}

func TestSaveRuleRejectsInvalid(t *testing.T) {
	store := testutil.SetupTestDB(t)

	broken := testutil.MonthlyRule("broken", 0)
	err := store.SaveRule(context.Background(), &broken)
	assert.ErrorIs(t, err, model.ErrDateExprBadDay)
}

func TestSaveAndGetClient(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	profile := testutil.EmployerProfile("c1")
	require.NoError(t, store.SaveClient(ctx, &profile))

	got, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, profile, *got)
}

func TestGetClientNotFound(t *testing.T) {
	store := testutil.SetupTestDB(t)

	_, err := store.GetClient(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveClientUpserts(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	profile := testutil.EmployerProfile("c1")
	require.NoError(t, store.SaveClient(ctx, &profile))

	profile.HasEmployees = false
	require.NoError(t, store.SaveClient(ctx, &profile))

	got, err := store.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, got.HasEmployees)
}

func TestListClients(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	b := testutil.SoloProfile("b-client")
	a := testutil.EmployerProfile("a-client")
	require.NoError(t, store.SaveClient(ctx, &b))
	require.NoError(t, store.SaveClient(ctx, &a))

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "a-client", clients[0].ID)
	assert.Equal(t, "b-client", clients[1].ID)
}

func TestSaveAndLoadHolidays(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	holidays := []model.Holiday{
		{Date: testutil.Date(2025, time.December, 25), Name: "Christmas"},
		{Date: testutil.Date(2025, time.January, 1), Name: "New Year"},
	}
	require.NoError(t, store.SaveHolidays(ctx, 2025, holidays))

	got, err := store.HolidaysForYear(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(testutil.Date(2025, time.January, 1)))
	assert.Equal(t, "New Year", got[0].Name)
	assert.Equal(t, "Christmas", got[1].Name)

	empty, err := store.HolidaysForYear(ctx, 2026)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSaveHolidaysReplacesYear(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHolidays(ctx, 2025, []model.Holiday{
		{Date: testutil.Date(2025, time.March, 8)},
		{Date: testutil.Date(2025, time.May, 1)},
	}))
	require.NoError(t, store.SaveHolidays(ctx, 2025, []model.Holiday{
		{Date: testutil.Date(2025, time.May, 1)},
	}))

	got, err := store.HolidaysForYear(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Date.Equal(testutil.Date(2025, time.May, 1)))
}

func TestProfileChangeFeed(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.RecordChange(ctx, "c1", testutil.Date(2025, time.July, 1)))
	require.NoError(t, store.RecordChange(ctx, "c2", testutil.Date(2025, time.August, 1)))

	pending, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "c1", pending[0].ClientID)
	assert.True(t, pending[0].EffectiveDate.Equal(testutil.Date(2025, time.July, 1)))
	assert.Nil(t, pending[0].ProcessedAt)

	require.NoError(t, store.MarkProcessed(ctx, pending[0].ID))

	remaining, err := store.PendingChanges(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "c2", remaining[0].ClientID)

	// Acknowledging twice is a no-op.
	require.NoError(t, store.MarkProcessed(ctx, pending[0].ID))
}
