package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrInvalidPeriodID is returned for identifiers that are not YYYY-Www or YYYY-MM.
	ErrInvalidPeriodID = errors.New("invalid period id")

	// ErrUnknownPeriodType is returned for a period type other than week or month.
	ErrUnknownPeriodType = errors.New("unknown period type")
)

// =============================================================================
// PERIOD - An inclusive span of days
// =============================================================================

// Period is the inclusive day span [Start, End].
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewPeriod returns [start, end], rejecting start > end.
func NewPeriod(start, end Date) (Period, error) {
	if start.After(end) {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether p contributes to the range r: p's start or end
// falls inside r, or p fully contains r. Display and export both select
// periods with this test so they always agree.
func (p Period) Overlaps(r Period) bool {
	return r.Contains(p.Start) ||
		r.Contains(p.End) ||
		(p.Start.BeforeOrEqual(r.Start) && p.End.AfterOrEqual(r.End))
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD TYPES AND IDENTIFIERS
// =============================================================================

// PeriodType is the allocation granularity.
type PeriodType string

const (
	Week  PeriodType = "week"
	Month PeriodType = "month"
)

// PeriodTypes lists the granularities in their canonical order.
var PeriodTypes = []PeriodType{Week, Month}

// ParsePeriodType accepts "week" or "month". Empty defaults to week.
func ParsePeriodType(s string) (PeriodType, error) {
	switch PeriodType(strings.ToLower(s)) {
	case "", Week:
		return Week, nil
	case Month:
		return Month, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriodType, s)
	}
}

// PeriodID identifies one week ("2025-W40") or month ("2025-10").
type PeriodID string

// Year returns the year prefix of the id (the ISO year for weeks).
func (id PeriodID) Year() string {
	s := string(id)
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

// SortPeriods sorts ids of one type chronologically. Ids are zero padded,
// so lexical order is chronological.
func SortPeriods(ids []PeriodID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// ComparePeriods orders two ids of the same type.
func ComparePeriods(a, b PeriodID) int {
	return strings.Compare(string(a), string(b))
}

// =============================================================================
// WEEKS
// =============================================================================

// WeekOf returns the ISO week containing d. The Thursday of d's week
// decides the year; the week number counts whole weeks since that year's
// first Thursday.
func WeekOf(d Date) PeriodID {
	thursday := d.Thursday()
	firstThursday := NewDate(thursday.Year(), time.January, 4).Thursday()
	week := DaysBetween(firstThursday, thursday)/7 + 1
	return FormatWeek(thursday.Year(), week)
}

// FormatWeek renders YYYY-Www with a zero-padded two-digit week.
func FormatWeek(year, week int) PeriodID {
	return PeriodID(fmt.Sprintf("%04d-W%02d", year, week))
}

// ParseWeek splits a YYYY-Www id into its ISO year and week number.
func ParseWeek(id PeriodID) (year, week int, err error) {
	yearPart, weekPart, ok := strings.Cut(string(id), "-W")
	if !ok || len(yearPart) != 4 || len(weekPart) != 2 {
		return 0, 0, fmt.Errorf("%w: %q is not YYYY-Www", ErrInvalidPeriodID, id)
	}
	year, err = strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriodID, id)
	}
	week, err = strconv.Atoi(weekPart)
	if err != nil || week < 1 || week > WeeksInYear(year) {
		return 0, 0, fmt.Errorf("%w: %q has no such week", ErrInvalidPeriodID, id)
	}
	return year, week, nil
}

// WeeksInYear returns 52 or 53. December 28 is always in the last ISO week.
func WeeksInYear(year int) int {
	_, week, _ := strings.Cut(string(WeekOf(NewDate(year, time.December, 28))), "-W")
	n, _ := strconv.Atoi(week)
	return n
}

// WeekBounds returns Monday..Sunday of an ISO week. January 4 is always in
// week 1, so week 1's Monday is the Monday on or before January 4.
func WeekBounds(id PeriodID) (Period, error) {
	year, week, err := ParseWeek(id)
	if err != nil {
		return Period{}, err
	}
	mondayOfWeek1 := NewDate(year, time.January, 4).Monday()
	start := mondayOfWeek1.AddDays((week - 1) * 7)
	return Period{Start: start, End: start.AddDays(6)}, nil
}

// WeeksBetween returns every ISO week intersecting [start, end], in order.
func WeeksBetween(start, end Date) ([]PeriodID, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	var weeks []PeriodID
	for cur := start.Monday(); cur.BeforeOrEqual(end); cur = cur.AddDays(7) {
		weeks = append(weeks, WeekOf(cur))
	}
	return weeks, nil
}

// WeekLabel renders "2025 Week 40" for display.
func WeekLabel(id PeriodID) string {
	return strings.Replace(string(id), "-W", " Week ", 1)
}

// WeekFriday returns the Friday of the week, used as a column label.
func WeekFriday(id PeriodID) (Date, error) {
	bounds, err := WeekBounds(id)
	if err != nil {
		return Date{}, err
	}
	return bounds.Start.AddDays(4), nil
}

// =============================================================================
// MONTHS
// =============================================================================

// MonthOf returns the YYYY-MM id of d's month.
func MonthOf(d Date) PeriodID {
	return FormatMonth(d.Year(), d.Month())
}

func FormatMonth(year int, month time.Month) PeriodID {
	return PeriodID(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// ParseMonth splits a YYYY-MM id.
func ParseMonth(id PeriodID) (int, time.Month, error) {
	yearPart, monthPart, ok := strings.Cut(string(id), "-")
	if !ok || len(yearPart) != 4 || len(monthPart) != 2 {
		return 0, 0, fmt.Errorf("%w: %q is not YYYY-MM", ErrInvalidPeriodID, id)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriodID, id)
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q has no such month", ErrInvalidPeriodID, id)
	}
	return year, time.Month(month), nil
}

// MonthBounds returns the first and last day of the month.
func MonthBounds(id PeriodID) (Period, error) {
	year, month, err := ParseMonth(id)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}, nil
}

// MonthsBetween returns every calendar month intersecting [start, end].
func MonthsBetween(start, end Date) ([]PeriodID, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	var months []PeriodID
	for cur := StartOfMonth(start.Year(), start.Month()); cur.BeforeOrEqual(end); cur = cur.AddMonths(1) {
		months = append(months, MonthOf(cur))
	}
	return months, nil
}

// =============================================================================
// DISPATCH BY TYPE
// =============================================================================

// Bounds returns the day span of a week or month id.
func Bounds(pt PeriodType, id PeriodID) (Period, error) {
	switch pt {
	case Week:
		return WeekBounds(id)
	case Month:
		return MonthBounds(id)
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriodType, pt)
	}
}

// Between enumerates the periods of type pt intersecting [start, end].
func Between(pt PeriodType, start, end Date) ([]PeriodID, error) {
	switch pt {
	case Week:
		return WeeksBetween(start, end)
	case Month:
		return MonthsBetween(start, end)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriodType, pt)
	}
}
