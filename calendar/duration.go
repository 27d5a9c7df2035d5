package calendar

import (
	"strconv"
	"strings"
)

// =============================================================================
// EXACT DURATION - Successive subtraction, no fixed-length approximations
// =============================================================================

// Duration is the gap between two dates, decomposed by successive
// subtraction. TotalDays is measured directly between the two dates and is
// NOT derived from Years/Months/Days.
type Duration struct {
	Years     int    `json:"years"`
	Months    int    `json:"months"`
	Days      int    `json:"days"`
	TotalDays int    `json:"total_days"`
	Formatted string `json:"formatted"`
}

// ExactDifference decomposes from -> to into complete years, then complete
// months, then the remaining days:
//
//	years       = complete years from `from` to `to`
//	afterYears  = from + years   (clamped)
//	months      = complete months from afterYears to `to`
//	afterMonths = afterYears + months (clamped)
//	days        = DaysBetween(afterMonths, to)
//
// A year (month) is complete only once `to` reaches the same month/day (day)
// as its start, so 29 Feb 2020 -> 28 Feb 2021 is 0y 11m 30d.
//
// When to is before from, the decomposition of (to, from) is negated
// component-wise and TotalDays is negative.
func ExactDifference(from, to Date) Duration {
	if to.Before(from) {
		d := ExactDifference(to, from)
		return newDuration(-d.Years, -d.Months, -d.Days, -d.TotalDays)
	}

	years := completeYears(from, to)
	afterYears := from.AddYears(years)

	months := completeMonths(afterYears, to)
	afterMonths := afterYears.AddMonths(months)

	days := DaysBetween(afterMonths, to)

	return newDuration(years, months, days, DaysBetween(from, to))
}

// IsZero reports whether both dates were the same day.
func (d Duration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Days == 0 && d.TotalDays == 0
}

func (d Duration) String() string { return d.Formatted }

func newDuration(years, months, days, totalDays int) Duration {
	return Duration{
		Years:     years,
		Months:    months,
		Days:      days,
		TotalDays: totalDays,
		Formatted: FormatComponents(years, months, days),
	}
}

// completeYears requires from <= to.
func completeYears(from, to Date) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

// completeMonths requires from <= to.
func completeMonths(from, to Date) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

// FormatComponents renders "3 years, 1 month, 12 days", omitting zero parts.
// All-zero renders as "0 days".
func FormatComponents(years, months, days int) string {
	parts := make([]string, 0, 3)
	if years != 0 {
		parts = append(parts, pluralize(years, "year"))
	}
	if months != 0 {
		parts = append(parts, pluralize(months, "month"))
	}
	if days != 0 {
		parts = append(parts, pluralize(days, "day"))
	}
	if len(parts) == 0 {
		return "0 days"
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, unit string) string {
	s := strconv.Itoa(n) + " " + unit
	if n != 1 && n != -1 {
		s += "s"
	}
	return s
}
