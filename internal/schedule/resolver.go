// Package schedule computes statutory due dates: the nominal date a rule's
// date expression selects for a period, and the effective date after the
// rule's weekend/holiday transfer policy.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/dueflow/dueflow/internal/model"
)

// Workdays is the calendar contract the resolver needs. Production code
// passes *calendar.Resolver; tests supply a deterministic fake.
type Workdays interface {
	IsWorkday(ctx context.Context, date time.Time) bool
}

// maxScanDays bounds workday scans so a broken calendar cannot loop forever.
const maxScanDays = 366

// Resolver resolves date expressions against a workday calendar.
type Resolver struct {
	workdays Workdays
}

// NewResolver creates a date resolver using the given calendar.
func NewResolver(workdays Workdays) *Resolver {
	return &Resolver{workdays: workdays}
}

// Nominal computes the statutory date a date expression selects for the
// reference period, before any transfer. Day-of-month values past the end
// of the target month clamp to the month's last day.
func (r *Resolver) Nominal(ctx context.Context, expr model.DateExpression, period model.Period) (time.Time, error) {
	if err := expr.Validate(); err != nil {
		return time.Time{}, err
	}

	switch expr.SpecialRule {
	case model.SpecialLastWorkingDayOfYear:
		return r.lastWorkdayBefore(ctx, time.Date(period.Year, time.December, 31, 0, 0, 0, 0, time.UTC))
	case model.SpecialLastWorkingDayOfMonth:
		return r.lastWorkdayBefore(ctx, period.End())
	}

	var year int
	var month time.Month

	switch {
	case expr.MonthOffset != nil:
		year, month = addMonths(period.Year, period.Month, *expr.MonthOffset)
	case expr.QuarterMonthOffset != nil:
		first := time.Month((period.Quarter-1)*3 + 1)
		year, month = addMonths(period.Year, first, *expr.QuarterMonthOffset)
	case expr.Month != nil:
		year, month = period.Year, *expr.Month
	default:
		year, month = period.Year, period.Month
		if period.Periodicity != model.PeriodicityMonthly {
			return time.Time{}, fmt.Errorf("%w: %s period needs a month selector",
				model.ErrDateExprAmbiguous, period.Periodicity)
		}
	}

	day := expr.Day
	if last := model.LastDayOfMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// Transfer applies a transfer policy to a nominal date. NoTransfer returns
// the date unchanged even when it lands on a non-workday.
func (r *Resolver) Transfer(ctx context.Context, nominal time.Time, policy model.TransferPolicy) time.Time {
	nominal = model.DateOnly(nominal)

	var step int
	switch policy {
	case model.TransferNextBusinessDay:
		step = 1
	case model.TransferPreviousBusinessDay:
		step = -1
	default:
		return nominal
	}

	date := nominal
	for i := 0; i < maxScanDays && !r.workdays.IsWorkday(ctx, date); i++ {
		date = date.AddDate(0, 0, step)
	}
	return date
}

// Effective resolves the nominal date and applies the transfer policy.
func (r *Resolver) Effective(ctx context.Context, expr model.DateExpression, policy model.TransferPolicy, period model.Period) (nominal, effective time.Time, err error) {
	nominal, err = r.Nominal(ctx, expr, period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return nominal, r.Transfer(ctx, nominal, policy), nil
}

// lastWorkdayBefore scans backward from the given date to the nearest
// working day, inclusive.
func (r *Resolver) lastWorkdayBefore(ctx context.Context, date time.Time) (time.Time, error) {
	date = model.DateOnly(date)
	for i := 0; i < maxScanDays; i++ {
		if r.workdays.IsWorkday(ctx, date) {
			return date, nil
		}
		date = date.AddDate(0, 0, -1)
	}
	return time.Time{}, fmt.Errorf("no working day found within %d days before %s",
		maxScanDays, date.Format("2006-01-02"))
}

// addMonths offsets a year/month pair, carrying across year boundaries.
func addMonths(year int, month time.Month, offset int) (int, time.Month) {
	total := year*12 + int(month) - 1 + offset
	return total / 12, time.Month(total%12 + 1)
}
