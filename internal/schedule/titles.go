package schedule

import (
	"strconv"
	"strings"

	"github.com/dueflow/dueflow/internal/model"
)

// Locale carries the month-name forms a jurisdiction's task titles need.
// Slavic locales decline month names, so the genitive form ("25 січня") is
// kept separately from the nominative ("Січень").
type Locale struct {
	Months         [12]string
	MonthsGenitive [12]string
}

// EnglishLocale uses the same form for both cases.
var EnglishLocale = Locale{
	Months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	MonthsGenitive: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
}

// UkrainianLocale declines month names for genitive placeholders.
var UkrainianLocale = Locale{
	Months: [12]string{
		"Січень", "Лютий", "Березень", "Квітень", "Травень", "Червень",
		"Липень", "Серпень", "Вересень", "Жовтень", "Листопад", "Грудень",
	},
	MonthsGenitive: [12]string{
		"січня", "лютого", "березня", "квітня", "травня", "червня",
		"липня", "серпня", "вересня", "жовтня", "листопада", "грудня",
	},
}

// Title template placeholders.
const (
	placeholderMonth         = "{month}"
	placeholderMonthGenitive = "{month:gen}"
	placeholderQuarter       = "{quarter}"
	placeholderYear          = "{year}"
	placeholderPrevYear      = "{year-1}"
	placeholderLastDay       = "{last_day}"
)

// RenderTitle substitutes period placeholders into a rule's title template.
// {year-1} supports backward-looking annual filings ("Annual report for
// {year-1}") generated in the following year.
func RenderTitle(template string, period model.Period, locale Locale) string {
	replacements := []string{
		placeholderQuarter, strconv.Itoa(period.Quarter),
		placeholderPrevYear, strconv.Itoa(period.Year - 1),
		placeholderYear, strconv.Itoa(period.Year),
	}

	// {month:gen} must be listed before {month}: the replacer tries pairs
	// in argument order and {month} is a prefix of {month:gen}.
	if period.Periodicity == model.PeriodicityMonthly {
		monthIdx := int(period.Month) - 1
		replacements = append(replacements,
			placeholderMonthGenitive, locale.MonthsGenitive[monthIdx],
			placeholderMonth, locale.Months[monthIdx],
			placeholderLastDay, strconv.Itoa(model.LastDayOfMonth(period.Year, period.Month)),
		)
	} else {
		// Non-monthly periods render month placeholders from the period's
		// last month so quarter-end templates still resolve.
		end := period.End()
		monthIdx := int(end.Month()) - 1
		replacements = append(replacements,
			placeholderMonthGenitive, locale.MonthsGenitive[monthIdx],
			placeholderMonth, locale.Months[monthIdx],
			placeholderLastDay, strconv.Itoa(end.Day()),
		)
	}

	return strings.NewReplacer(replacements...).Replace(template)
}
