// Package calendar answers whether a calendar date is a working day for the
// jurisdiction, combining the Saturday/Sunday weekend rule with a per-year
// holiday list cached for the process lifetime.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/service"
)

// DateProperties describes one calendar date.
type DateProperties struct {
	IsWeekend bool
	IsHoliday bool
	IsWorkday bool
}

// Resolver is an injectable workday resolver with an explicit lifecycle:
// construct, Preload on start, Refresh on demand. It is safe for concurrent
// readers.
type Resolver struct {
	source   service.HolidaySource
	mu       sync.RWMutex
	years    map[int]map[string]bool
	degraded map[int]bool
}

// NewResolver creates a resolver backed by the given holiday source.
func NewResolver(source service.HolidaySource) *Resolver {
	return &Resolver{
		source:   source,
		years:    make(map[int]map[string]bool),
		degraded: make(map[int]bool),
	}
}

// Preload loads holiday data for the inclusive year range. Generation
// expects [current_year-1, current_year+10] to be available so forward
// looking yearly rules resolve without lazy loads.
func (r *Resolver) Preload(ctx context.Context, fromYear, toYear int) {
	for year := fromYear; year <= toYear; year++ {
		r.loadYear(ctx, year)
	}
}

// Refresh discards the cached table for a year and reloads it, e.g. after a
// newly gazetted holiday was imported.
func (r *Resolver) Refresh(ctx context.Context, year int) {
	r.mu.Lock()
	delete(r.years, year)
	delete(r.degraded, year)
	r.mu.Unlock()
	r.loadYear(ctx, year)
}

// IsWorkday reports whether the date is a working day.
func (r *Resolver) IsWorkday(ctx context.Context, date time.Time) bool {
	return r.DateProperties(ctx, date).IsWorkday
}

// DateProperties returns the weekend/holiday/workday flags for a date.
func (r *Resolver) DateProperties(ctx context.Context, date time.Time) DateProperties {
	date = model.DateOnly(date)
	weekday := date.Weekday()

	props := DateProperties{
		IsWeekend: weekday == time.Saturday || weekday == time.Sunday,
	}

	holidays := r.loadYear(ctx, date.Year())
	if holidays != nil {
		props.IsHoliday = holidays[date.Format("2006-01-02")]
	}

	props.IsWorkday = !props.IsWeekend && !props.IsHoliday
	return props
}

// loadYear returns the cached holiday set for a year, loading it from the
// source on first use. A load failure degrades that year to weekend-only
// determination rather than failing generation.
func (r *Resolver) loadYear(ctx context.Context, year int) map[string]bool {
	r.mu.RLock()
	cached, ok := r.years[year]
	degraded := r.degraded[year]
	r.mu.RUnlock()
	if ok {
		return cached
	}
	if degraded {
		return nil
	}

	holidays, err := r.source.HolidaysForYear(ctx, year)
	if err != nil {
		slog.Warn("Degrading to weekend-only determination",
			"year", year,
			"error", fmt.Errorf("%w: %v", common.ErrCalendarDataUnavailable, err))
		r.mu.Lock()
		r.degraded[year] = true
		r.mu.Unlock()
		return nil
	}

	table := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		table[model.DateOnly(h.Date).Format("2006-01-02")] = true
	}

	r.mu.Lock()
	r.years[year] = table
	r.mu.Unlock()
	return table
}
