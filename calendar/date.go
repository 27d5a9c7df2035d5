/*
Package calendar provides civil-date arithmetic for the retirement engine.

PURPOSE:
  Every figure the engine reports (limit dates, service lengths, the
  service-to-cutoff figure) is a calendar quantity. This package owns the
  date type and the exact arithmetic on it, so nothing else in the module
  ever touches month lengths or leap years directly.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: a year/month/day with no time zone, pinned to UTC midnight
  - AddYears/AddMonths: clamp to the last valid day of the target month
    (29 Feb 2020 + 1 year = 28 Feb 2021, never 1 Mar 2021)
  - DaysBetween: signed day count, exact for any span

WHY NOT time.Time.AddDate:
  AddDate normalises overflow forwards (Feb 29 + 1y = Mar 1). Statutory
  anniversaries fall on the last day of February instead.

SEE ALSO:
  - duration.go: ExactDifference (years/months/days decomposition)
  - retirement/engine.go: the only consumer of the arithmetic
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Civil calendar date
// =============================================================================

// Layouts used for parsing and display.
const (
	ISOLayout           = "2006-01-02"
	InstitutionalLayout = "02 January 2006"
)

// Date is a calendar date. The zero value is the zero time and reports IsZero.
type Date struct {
	t time.Time
}

// NewDate builds a date. Out-of-range values normalise the way time.Date does;
// use ParseDate when the input must be rejected instead.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the wall-clock year, month and day of t in its own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current date in the given location.
func Today(loc *time.Location) Date {
	return DateOf(time.Now().In(loc))
}

// ParseDate parses a YYYY-MM-DD string. Impossible dates such as 2021-02-30
// are rejected rather than rolled over.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return Date{}, &ParseError{Input: s, Err: err}
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in presets and tests.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// AddMonths moves n calendar months, clamping the day to the target month.
func (d Date) AddMonths(n int) Date {
	total := int(d.Month()) - 1 + n
	year := d.Year() + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	day := d.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// AddYears moves n calendar years, clamping 29 February to 28 February in
// non-leap years.
func (d Date) AddYears(n int) Date { return d.AddMonths(12 * n) }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(ISOLayout)
}

// Institutional formats the date the way printed reports show it: "30 June 2004".
func (d Date) Institutional() string { return d.t.Format(InstitutionalLayout) }

// MarshalText encodes the date as YYYY-MM-DD; the zero date encodes as "".
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts YYYY-MM-DD or "" (zero date).
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the signed number of calendar days from -> to.
// Both dates sit on UTC midnight, so the division is exact; Unix seconds are
// used instead of time.Duration to stay correct across spans over 290 years.
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / secondsPerDay)
}

// DaysIn returns the length of the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsLeapYear reports whether year has a 29 February.
func IsLeapYear(year int) bool { return DaysIn(year, time.February) == 29 }

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// =============================================================================
// ERRORS
// =============================================================================

// ParseError reports a date string that is not a valid YYYY-MM-DD date.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", e.Input)
}

func (e *ParseError) Unwrap() error { return ErrInvalidDate }
