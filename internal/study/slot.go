package study

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PreferredStudySlot is a user's recurring weekly intention to study.
// DayOfWeek uses ISO numbering: Monday = 1 ... Sunday = 7.
type PreferredStudySlot struct {
	ID                  string
	UserID              string
	DayOfWeek           int
	SlotCount           int
	SlotDurationMinutes int
	PreferredStartHour  int
	CreatedAt           time.Time
}

// NewSlot creates a PreferredStudySlot with validation.
func NewSlot(userID string, dayOfWeek, slotCount, durationMinutes, startHour int) (*PreferredStudySlot, error) {
	s := &PreferredStudySlot{
		UserID:              userID,
		DayOfWeek:           dayOfWeek,
		SlotCount:           slotCount,
		SlotDurationMinutes: durationMinutes,
		PreferredStartHour:  startHour,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the slot's ranges.
func (s *PreferredStudySlot) Validate() error {
	if s.DayOfWeek < 1 || s.DayOfWeek > 7 {
		return invalid("day_of_week", "must be 1 (Monday) to 7 (Sunday), got %d", s.DayOfWeek)
	}
	if s.SlotCount <= 0 {
		return invalid("slot_count", "must be positive, got %d", s.SlotCount)
	}
	if s.SlotDurationMinutes <= 0 {
		return invalid("slot_duration_minutes", "must be positive, got %d", s.SlotDurationMinutes)
	}
	if s.PreferredStartHour < 0 || s.PreferredStartHour > 23 {
		return invalid("preferred_start_hour", "must be 0-23, got %d", s.PreferredStartHour)
	}
	return nil
}

// DailyMinutes returns the total minutes the slot asks for on its day.
func (s *PreferredStudySlot) DailyMinutes() int {
	return s.SlotCount * s.SlotDurationMinutes
}

// Weekday returns the slot's day as a time.Weekday.
func (s *PreferredStudySlot) Weekday() time.Weekday {
	return FromISOWeekday(s.DayOfWeek)
}

// String renders the slot as e.g. "Wed 2x30m @16:00".
func (s *PreferredStudySlot) String() string {
	return fmt.Sprintf("%s %dx%dm @%02d:00",
		WeekdayShortName(s.DayOfWeek), s.SlotCount, s.SlotDurationMinutes, s.PreferredStartHour)
}

// CheckDailyBudget fails if the slots for any single day add up to more than
// maxMinutes. A non-positive maxMinutes disables the check.
func CheckDailyBudget(slots []*PreferredStudySlot, maxMinutes int) error {
	if maxMinutes <= 0 {
		return nil
	}
	var perDay [8]int
	for _, s := range slots {
		if s == nil || s.DayOfWeek < 1 || s.DayOfWeek > 7 {
			continue
		}
		perDay[s.DayOfWeek] += s.DailyMinutes()
	}
	for day := 1; day <= 7; day++ {
		if perDay[day] > maxMinutes {
			return &ValidationError{
				Field:   "slots",
				Message: fmt.Sprintf("%s plans %d minutes, budget is %d", WeekdayName(day), perDay[day], maxMinutes),
				Err:     ErrDailyBudget,
			}
		}
	}
	return nil
}

// ISOWeekday converts a time.Weekday (Sunday = 0) to ISO numbering (Sunday = 7).
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// FromISOWeekday converts ISO numbering back to a time.Weekday.
func FromISOWeekday(day int) time.Weekday {
	return time.Weekday(day % 7)
}

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName returns the name of the ISO weekday (1=Monday).
func WeekdayName(day int) string {
	if day < 1 || day > 7 {
		return ""
	}
	return weekdayNames[day-1]
}

// WeekdayShortName returns the short name of the ISO weekday (1=Monday).
func WeekdayShortName(day int) string {
	name := WeekdayName(day)
	if name == "" {
		return ""
	}
	return name[:3]
}

// ParseWeekday accepts an ISO number ("3") or a day name ("wednesday", "wed").
func ParseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 7 {
			return 0, invalid("day_of_week", "must be 1 (Monday) to 7 (Sunday), got %d", n)
		}
		return n, nil
	}
	for i, name := range weekdayNames {
		lower := strings.ToLower(name)
		if s == lower || (len(s) >= 3 && strings.HasPrefix(lower, s)) {
			return i + 1, nil
		}
	}
	return 0, invalid("day_of_week", "unknown weekday %q", s)
}
