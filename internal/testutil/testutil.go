// Package testutil provides shared fixtures for engine tests: an in-memory
// migrated store, a deterministic fake calendar, and profile builders.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite store with cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// FakeCalendar is a deterministic workday calendar: Saturday/Sunday plus an
// explicit holiday set are non-working. It implements schedule.Workdays.
type FakeCalendar struct {
	Holidays map[string]bool
}

// NewFakeCalendar creates a fake calendar with the given holiday dates.
func NewFakeCalendar(holidays ...time.Time) *FakeCalendar {
	set := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		set[model.DateOnly(h).Format("2006-01-02")] = true
	}
	return &FakeCalendar{Holidays: set}
}

// IsWorkday reports whether the date is a working day in the fake calendar.
func (f *FakeCalendar) IsWorkday(_ context.Context, date time.Time) bool {
	date = model.DateOnly(date)
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}
	return !f.Holidays[date.Format("2006-01-02")]
}

// Date is shorthand for a UTC day-granularity time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EmployerProfile returns a company client with employees.
func EmployerProfile(id string) model.ClientProfile {
	return model.ClientProfile{
		ID:            id,
		Name:          "Client " + id,
		LegalForm:     model.LegalFormCompany,
		TaxRegime:     model.TaxRegimeGeneral,
		VATPayer:      true,
		HasEmployees:  true,
		ProfitAdvance: model.PeriodicityQuarterly,
	}
}

// SoloProfile returns an individual client without employees.
func SoloProfile(id string) model.ClientProfile {
	return model.ClientProfile{
		ID:            id,
		Name:          "Client " + id,
		LegalForm:     model.LegalFormIndividual,
		TaxRegime:     model.TaxRegimeSimplified,
		VATPayer:      false,
		HasEmployees:  false,
		ProfitAdvance: model.PeriodicityNone,
	}
}

// MonthlyRule returns a valid monthly rule due on the given day with
// next-business-day transfer, applicable to every client.
func MonthlyRule(id string, day int) model.Rule {
	return model.Rule{
		ID:            id,
		TitleTemplate: "Report for {month:gen} {year}",
		Kind:          model.KindReport,
		Periodicity:   model.PeriodicityMonthly,
		Date:          model.DateExpression{Day: day},
		Transfer:      model.TransferNextBusinessDay,
		Active:        true,
	}
}
