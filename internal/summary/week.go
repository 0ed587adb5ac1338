// Package summary provides weekly study summaries.
package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/recurrence"
	"github.com/athro-ai/athro/internal/study"
)

// NoSubject labels minutes of events without a subject.
const NoSubject = "(none)"

// WeekSummary holds aggregated study time for one week.
type WeekSummary struct {
	Start  time.Time
	End    time.Time // exclusive
	Events []*study.CalendarEvent

	TotalMinutes   int
	Sessions       int
	BySubject      map[string]int
	ByType         map[study.EventType]int
	ByDay          [7]int // minutes per grid column, Monday first
	PomodoroCycles int
	// OverBudget lists ISO weekdays whose minutes exceed MaxDailyMinutes.
	OverBudget []int
}

// Options configures a summary.
type Options struct {
	// MaxDailyMinutes flags days above it. Zero disables the check.
	MaxDailyMinutes int
}

// SubjectMinutes is one row of the per-subject breakdown.
type SubjectMinutes struct {
	Subject string
	Minutes int
}

// SummarizeWeek aggregates the events starting in the week of weekStart.
// Events outside the week are ignored.
func SummarizeWeek(weekStart time.Time, events []*study.CalendarEvent, opts Options) *WeekSummary {
	week := dateutil.WeekOf(weekStart)
	s := &WeekSummary{
		Start:     week.Start,
		End:       week.End,
		BySubject: make(map[string]int),
		ByType:    make(map[study.EventType]int),
	}

	for _, ev := range events {
		if ev == nil || !week.Contains(ev.StartTime) {
			continue
		}
		mins := ev.DurationMinutes()
		s.Events = append(s.Events, ev)
		s.Sessions++
		s.TotalMinutes += mins

		subject := ev.Subject
		if subject == "" {
			subject = NoSubject
		}
		s.BySubject[subject] += mins
		s.ByType[ev.Type] += mins
		s.ByDay[dateutil.DayColumn(ev.StartTime.In(week.Start.Location()))] += mins

		if ev.Pomodoro != nil {
			s.PomodoroCycles += ev.Pomodoro.Cycles(ev.Duration())
		}
	}

	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].StartTime.Before(s.Events[j].StartTime)
	})

	if opts.MaxDailyMinutes > 0 {
		for col, mins := range s.ByDay {
			if mins > opts.MaxDailyMinutes {
				s.OverBudget = append(s.OverBudget, col+1)
			}
		}
	}
	return s
}

// Subjects returns the per-subject breakdown, largest first.
func (s *WeekSummary) Subjects() []SubjectMinutes {
	out := make([]SubjectMinutes, 0, len(s.BySubject))
	for subj, mins := range s.BySubject {
		out = append(out, SubjectMinutes{Subject: subj, Minutes: mins})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// AverageDailyMinutes returns total minutes over the days that have any study.
func (s *WeekSummary) AverageDailyMinutes() int {
	days := 0
	for _, mins := range s.ByDay {
		if mins > 0 {
			days++
		}
	}
	if days == 0 {
		return 0
	}
	return s.TotalMinutes / days
}

// WeekLoader loads a week of slots and events.
type WeekLoader interface {
	LoadWeek(ctx context.Context, sess study.Session, weekStart time.Time) (*study.WeekData, error)
}

// BuildOptions configures the repository-backed summary builder.
type BuildOptions struct {
	WeekStart       time.Time
	Expand          recurrence.Options
	MaxDailyMinutes int
}

// BuildWeekSummary loads the requested week, expands its slots and
// summarizes direct and slot-derived events together.
func BuildWeekSummary(ctx context.Context, repo WeekLoader, sess study.Session, opts BuildOptions) (*WeekSummary, error) {
	weekStart := opts.WeekStart
	if weekStart.IsZero() {
		weekStart = time.Now()
	}
	week := dateutil.WeekOf(weekStart)

	data, err := repo.LoadWeek(ctx, sess, week.Start)
	if err != nil {
		return nil, fmt.Errorf("loading week: %w", err)
	}
	expanded, err := recurrence.ExpandAll(data.Slots, week.Start, opts.Expand)
	if err != nil {
		return nil, fmt.Errorf("expanding slots: %w", err)
	}

	events := make([]*study.CalendarEvent, 0, len(data.Events)+len(expanded))
	events = append(events, data.Events...)
	events = append(events, expanded...)
	return SummarizeWeek(week.Start, events, Options{MaxDailyMinutes: opts.MaxDailyMinutes}), nil
}
