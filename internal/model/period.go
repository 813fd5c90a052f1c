// Package model defines the core data structures for the dueflow engine.
package model

import (
	"fmt"
	"time"
)

// Periodicity describes how often a rule fires.
type Periodicity string

// Periodicity constants.
const (
	PeriodicityNone      Periodicity = "none"
	PeriodicityMonthly   Periodicity = "monthly"
	PeriodicityQuarterly Periodicity = "quarterly"
	PeriodicityYearly    Periodicity = "yearly"
)

// Period is one concrete instance a rule is expanded for: a month, a
// quarter, or a year.
type Period struct {
	Periodicity Periodicity
	Year        int
	Month       time.Month // monthly only
	Quarter     int        // quarterly only, 1-4
}

// MonthlyPeriod returns the period for a single month.
func MonthlyPeriod(year int, month time.Month) Period {
	return Period{Periodicity: PeriodicityMonthly, Year: year, Month: month}
}

// QuarterlyPeriod returns the period for a single quarter (1-4).
func QuarterlyPeriod(year, quarter int) Period {
	return Period{Periodicity: PeriodicityQuarterly, Year: year, Quarter: quarter}
}

// YearlyPeriod returns the period for a whole year.
func YearlyPeriod(year int) Period {
	return Period{Periodicity: PeriodicityYearly, Year: year}
}

// PeriodOf returns the period containing t at the given granularity.
func PeriodOf(t time.Time, periodicity Periodicity) Period {
	switch periodicity {
	case PeriodicityMonthly:
		return MonthlyPeriod(t.Year(), t.Month())
	case PeriodicityQuarterly:
		return QuarterlyPeriod(t.Year(), (int(t.Month())-1)/3+1)
	default:
		return YearlyPeriod(t.Year())
	}
}

// Key encodes the period as a stable string: YYYY for yearly, YYYY-Qn for
// quarterly, YYYY-MM for monthly. Keys are part of persisted task identity
// and must never change format.
func (p Period) Key() string {
	switch p.Periodicity {
	case PeriodicityMonthly:
		return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
	case PeriodicityQuarterly:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// Start returns the first calendar day of the period.
func (p Period) Start() time.Time {
	switch p.Periodicity {
	case PeriodicityMonthly:
		return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	case PeriodicityQuarterly:
		return time.Date(p.Year, time.Month((p.Quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// End returns the last calendar day of the period.
func (p Period) End() time.Time {
	return p.Next().Start().AddDate(0, 0, -1)
}

// Next returns the immediately following period at the same granularity.
func (p Period) Next() Period {
	switch p.Periodicity {
	case PeriodicityMonthly:
		if p.Month == time.December {
			return MonthlyPeriod(p.Year+1, time.January)
		}
		return MonthlyPeriod(p.Year, p.Month+1)
	case PeriodicityQuarterly:
		if p.Quarter == 4 {
			return QuarterlyPeriod(p.Year+1, 1)
		}
		return QuarterlyPeriod(p.Year, p.Quarter+1)
	default:
		return YearlyPeriod(p.Year + 1)
	}
}

// Index returns the period's ordinal within its year: month number for
// monthly, quarter number for quarterly, 1 for yearly. Used by rule
// period exclusions.
func (p Period) Index() int {
	switch p.Periodicity {
	case PeriodicityMonthly:
		return int(p.Month)
	case PeriodicityQuarterly:
		return p.Quarter
	default:
		return 1
	}
}

// Before reports whether p starts before other. Both periods must share a
// granularity for the ordering to be meaningful.
func (p Period) Before(other Period) bool {
	return p.Start().Before(other.Start())
}

// PeriodRange is a half-open span of calendar time to expand rules over.
type PeriodRange struct {
	From time.Time
	To   time.Time
}

// Periods enumerates every period at the given granularity that overlaps
// the range, in chronological order.
func (r PeriodRange) Periods(periodicity Periodicity) []Period {
	if periodicity == PeriodicityNone || r.To.Before(r.From) {
		return nil
	}

	var periods []Period
	p := PeriodOf(r.From, periodicity)
	for !p.Start().After(r.To) {
		periods = append(periods, p)
		p = p.Next()
	}
	return periods
}

// DateOnly truncates t to day granularity in UTC. All due-date arithmetic
// in the engine operates on day-granularity UTC times.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
