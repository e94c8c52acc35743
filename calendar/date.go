/*
Package calendar provides the date and period model for the allocation engine.

PURPOSE:
  Allocations are bucketed by ISO-8601 week ("2025-W40") or calendar month
  ("2025-10"). This package converts between calendar days and those period
  identifiers, computes their date bounds and enumerates the periods that
  cover a date range. Everything here is pure and stateless.

KEY CONCEPTS:
  - Date:       A calendar day (UTC midnight, no time of day)
  - Period:     An inclusive [Start, End] span of days
  - PeriodType: "week" or "month"
  - PeriodID:   The string identifier of one week or month

ISO WEEKS:
  Weeks start on Monday. Week 1 is the week containing the year's first
  Thursday, so a week that straddles New Year belongs to the ISO year of
  its Thursday (2026-12-28 is in 2026-W53, 2027-01-01 too).

SEE ALSO:
  - period.go: Period type, week/month bounds and enumeration
  - allocation/aggregate.go: Overlap selection built on Period
*/
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for dates in requests and seed files.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date is a calendar day. The time component is always UTC midnight.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

// Monday returns the Monday of d's week.
func (d Date) Monday() Date {
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDays(-offset)
}

// Thursday returns the Thursday of d's week. Its year is d's ISO year.
func (d Date) Thursday() Date {
	return d.Monday().AddDays(3)
}

func (d Date) String() string { return d.Time.Format(DateLayout) }

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
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

func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

// EndOfMonth returns the last calendar day of the month.
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}
