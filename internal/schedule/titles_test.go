package schedule

import (
	"testing"
	"time"

	"github.com/dueflow/dueflow/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRenderTitle(t *testing.T) {
	tests := []struct {
		name     string
		template string
		period   model.Period
		locale   Locale
		want     string
	}{
		{
			name:     "monthly nominative",
			template: "{month} {year} payroll",
			period:   model.MonthlyPeriod(2025, time.January),
			locale:   EnglishLocale,
			want:     "January 2025 payroll",
		},
		{
			name:     "monthly genitive",
			template: "Звіт за {month:gen} {year}",
			period:   model.MonthlyPeriod(2025, time.January),
			locale:   UkrainianLocale,
			want:     "Звіт за січня 2025",
		},
		{
			name:     "genitive and nominative in one template",
			template: "{month} ({month:gen})",
			period:   model.MonthlyPeriod(2025, time.March),
			locale:   UkrainianLocale,
			want:     "Березень (березня)",
		},
		{
			name:     "quarterly",
			template: "VAT return Q{quarter} {year}",
			period:   model.QuarterlyPeriod(2025, 2),
			locale:   EnglishLocale,
			want:     "VAT return Q2 2025",
		},
		{
			name:     "previous year",
			template: "Annual report for {year-1}",
			period:   model.YearlyPeriod(2026),
			locale:   EnglishLocale,
			want:     "Annual report for 2025",
		},
		{
			name:     "last day of month",
			template: "Pay by {last_day} {month:gen}",
			period:   model.MonthlyPeriod(2025, time.February),
			locale:   UkrainianLocale,
			want:     "Pay by 28 лютого",
		},
		{
			name:     "quarter end month for quarterly period",
			template: "Due in {month}",
			period:   model.QuarterlyPeriod(2025, 1),
			locale:   EnglishLocale,
			want:     "Due in March",
		},
		{
			name:     "no placeholders",
			template: "Fixed asset inventory",
			period:   model.MonthlyPeriod(2025, time.July),
			locale:   EnglishLocale,
			want:     "Fixed asset inventory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTitle(tt.template, tt.period, tt.locale))
		})
	}
}
