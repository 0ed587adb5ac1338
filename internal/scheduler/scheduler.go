// Package scheduler provides study-hours aware placement helpers.
package scheduler

import (
	"sort"
	"time"

	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/study"
)

// Scheduler answers "when can I study next" questions against the study
// window of a grid configuration.
type Scheduler struct {
	days map[int]bool // ISO weekdays
	cfg  grid.Config
}

// New creates a Scheduler for the given study window. days lists the ISO
// weekdays (1 = Monday) that allow study; an empty list allows every day.
func New(cfg grid.Config, days ...int) *Scheduler {
	d := make(map[int]bool, 7)
	for _, day := range days {
		d[day] = true
	}
	if len(d) == 0 {
		for day := 1; day <= 7; day++ {
			d[day] = true
		}
	}
	return &Scheduler{days: d, cfg: cfg}
}

// FromSlots creates a Scheduler whose study days are the days that have at
// least one preferred slot.
func FromSlots(cfg grid.Config, slots []*study.PreferredStudySlot) *Scheduler {
	days := make([]int, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			days = append(days, s.DayOfWeek)
		}
	}
	return New(cfg, days...)
}

// AvailableSlot is a free stretch of the study window on one day.
type AvailableSlot struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the length of the slot.
func (a AvailableSlot) Minutes() int {
	if !a.End.After(a.Start) {
		return 0
	}
	return int(a.End.Sub(a.Start).Minutes())
}

// NextAvailableStart returns the next start inside the study window.
// Before the window opens it returns the window start of today; during the
// window it returns now rounded up to the grid interval; otherwise the
// window start of the next study day.
func (s *Scheduler) NextAvailableStart(now time.Time) AvailableSlot {
	if s.IsStudyDay(now) {
		mins := study.MinutesOfDay(now)
		if mins < s.cfg.StartMinutes {
			return s.window(now, s.cfg.StartMinutes)
		}
		if mins < s.cfg.EndMinutes {
			start := s.roundUp(now)
			if study.MinutesOfDay(start) < s.cfg.EndMinutes && sameDay(start, now) {
				return AvailableSlot{Start: start, End: study.AtClock(now, s.cfg.EndMinutes)}
			}
		}
	}
	return s.nextStudyDay(now)
}

func (s *Scheduler) window(day time.Time, fromMinutes int) AvailableSlot {
	return AvailableSlot{
		Start: study.AtClock(day, fromMinutes),
		End:   study.AtClock(day, s.cfg.EndMinutes),
	}
}

// nextStudyDay finds the first study day after from.
func (s *Scheduler) nextStudyDay(from time.Time) AvailableSlot {
	next := from.AddDate(0, 0, 1)
	for range 7 {
		if s.IsStudyDay(next) {
			return s.window(next, s.cfg.StartMinutes)
		}
		next = next.AddDate(0, 0, 1)
	}
	return s.window(from.AddDate(0, 0, 1), s.cfg.StartMinutes)
}

// IsStudyDay reports whether t falls on a study day.
func (s *Scheduler) IsStudyDay(t time.Time) bool {
	return s.days[study.ISOWeekday(t.Weekday())]
}

// IsWithinStudyHours reports whether t is a study day inside the window.
func (s *Scheduler) IsWithinStudyHours(t time.Time) bool {
	if !s.IsStudyDay(t) {
		return false
	}
	mins := study.MinutesOfDay(t)
	return mins >= s.cfg.StartMinutes && mins < s.cfg.EndMinutes
}

// CanFit reports whether a session of durationMinutes starting at start
// stays inside the study window of its day.
func (s *Scheduler) CanFit(start time.Time, durationMinutes int) bool {
	if durationMinutes <= 0 {
		return false
	}
	mins := study.MinutesOfDay(start)
	if mins < s.cfg.StartMinutes || mins >= s.cfg.EndMinutes {
		return false
	}
	return mins+durationMinutes <= s.cfg.EndMinutes
}

// FreeSlots returns the gaps in the study window of day not covered by
// events.
func (s *Scheduler) FreeSlots(day time.Time, events []*study.CalendarEvent) []AvailableSlot {
	open := study.AtClock(day, s.cfg.StartMinutes)
	closeAt := study.AtClock(day, s.cfg.EndMinutes)

	busy := make([]*study.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev != nil && ev.StartTime.Before(closeAt) && ev.EndTime.After(open) {
			busy = append(busy, ev)
		}
	}
	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].StartTime.Before(busy[j].StartTime)
	})

	var free []AvailableSlot
	cursor := open
	for _, ev := range busy {
		if ev.StartTime.After(cursor) {
			free = append(free, AvailableSlot{Start: cursor, End: ev.StartTime})
		}
		if ev.EndTime.After(cursor) {
			cursor = ev.EndTime
		}
	}
	if closeAt.After(cursor) {
		free = append(free, AvailableSlot{Start: cursor, End: closeAt})
	}
	return free
}

// FirstFit returns the earliest grid-aligned start at or after from, on
// from's day, at which a session of durationMinutes fits between events.
// ok is false if none does.
func (s *Scheduler) FirstFit(from time.Time, events []*study.CalendarEvent, durationMinutes int) (time.Time, bool) {
	if durationMinutes <= 0 {
		return time.Time{}, false
	}
	need := time.Duration(durationMinutes) * time.Minute
	for _, slot := range s.FreeSlots(from, events) {
		start := slot.Start
		if from.After(start) {
			start = from
		}
		start = s.roundUp(start)
		if !start.Add(need).After(slot.End) {
			return start, true
		}
	}
	return time.Time{}, false
}

// roundUp rounds t up to the next interval boundary.
func (s *Scheduler) roundUp(t time.Time) time.Time {
	step := s.cfg.IntervalMinutes
	if step <= 0 {
		return t
	}
	base := t.Truncate(time.Minute)
	rem := study.MinutesOfDay(base) % step
	if rem == 0 && base.Equal(t) {
		return t
	}
	return base.Add(time.Duration(step-rem) * time.Minute)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
