// Package dateutil provides the calendar arithmetic shared by the grid,
// the expander and the CLI: week boundaries, day truncation and date parsing.
package dateutil

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the only date format accepted on input.
const DateLayout = "2006-01-02"

// Validation errors.
var (
	ErrInvalidDateFormat = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTimezone   = errors.New("unknown timezone")
)

// weekdayMap maps weekday names to time.Weekday values.
var weekdayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Week is the half-open range [Start, End) of one Monday-aligned week.
type Week struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End).
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Next returns the following week.
func (w Week) Next() Week { return WeekOf(w.End) }

// Prev returns the preceding week.
func (w Week) Prev() Week { return WeekOf(w.Start.AddDate(0, 0, -1)) }

// Day returns the midnight of the given column (0 = Monday).
func (w Week) Day(col int) time.Time {
	return w.Start.AddDate(0, 0, col)
}

// WeekOf returns the ISO week containing t, in t's location.
func WeekOf(t time.Time) Week {
	monday := StartOfWeek(t)
	return Week{Start: monday, End: monday.AddDate(0, 0, 7)}
}

// StartOfWeek returns midnight of the Monday of the ISO week containing t.
func StartOfWeek(t time.Time) time.Time {
	t = TruncateToDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday becomes day 7 in ISO week
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	monday = StartOfWeek(t)
	return monday, monday.AddDate(0, 0, 6)
}

// DayColumn returns the grid column of t: 0 for Monday through 6 for Sunday.
func DayColumn(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// LoadLocation resolves a timezone name. Empty and "Local" mean time.Local.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
// If the string is empty, returns today's date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if s == "" {
		return TruncateToDay(time.Now().In(loc)), nil
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// ParseRelativeDate parses a date used to pick a week or a day:
//   - Empty string or "today": relativeTo
//   - "tomorrow", "yesterday"
//   - "next-week", "last-week": same weekday, +/- 7 days
//   - Weekday names: "monday" through "sunday" (that day of relativeTo's week)
//   - Absolute date: "2025-01-15"
//
// Past dates are allowed; browsing previous weeks is normal.
func ParseRelativeDate(s string, relativeTo time.Time) (time.Time, error) {
	today := TruncateToDay(relativeTo)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "next-week":
		return today.AddDate(0, 0, 7), nil
	case "last-week":
		return today.AddDate(0, 0, -7), nil
	}

	if target, ok := weekdayMap[input]; ok {
		col := (int(target) + 6) % 7
		return StartOfWeek(today).AddDate(0, 0, col), nil
	}

	result, err := time.ParseInLocation(DateLayout, input, relativeTo.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return result, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
