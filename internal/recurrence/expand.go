// Package recurrence turns preferred study slots into concrete calendar
// events for a displayed week or a range of weeks.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/study"
)

// Mode selects how many of a slot's sessions are materialized.
type Mode string

const (
	// ModeAll expands every one of the slot's SlotCount sessions, spaced by
	// the session duration plus Options.GapMinutes.
	ModeAll Mode = "all"
	// ModeFirstOnly materializes only the first session of each day.
	ModeFirstOnly Mode = "first"
)

// ParseMode parses a mode name. Empty means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeFirstOnly:
		return ModeFirstOnly, nil
	}
	return "", fmt.Errorf("unknown expansion mode %q (want %q or %q)", s, ModeAll, ModeFirstOnly)
}

const (
	// DefaultGapMinutes is the break between consecutive sessions.
	DefaultGapMinutes = 10
	// SessionTitle is the title given to every slot-derived event.
	SessionTitle = "Study session"

	maxWeeks = 520
)

// ErrRangeEndBeforeStart is returned by ExpandRange for an inverted range.
var ErrRangeEndBeforeStart = errors.New("expand: range end is before range start")

// Options controls expansion.
type Options struct {
	Mode       Mode
	GapMinutes int
	// Location is the wall clock the slot's start hour refers to.
	// If nil, the location of the week start is used.
	Location *time.Location
}

// DefaultOptions expands every session with a ten-minute gap.
func DefaultOptions() Options {
	return Options{Mode: ModeAll, GapMinutes: DefaultGapMinutes}
}

func (o Options) normalize(ref time.Time) Options {
	if o.Mode == "" {
		o.Mode = ModeAll
	}
	if o.GapMinutes < 0 {
		o.GapMinutes = 0
	}
	if o.Location == nil {
		o.Location = ref.Location()
	}
	return o
}

// Expand returns the events a slot yields in the week containing weekStart.
// The first session starts on the slot's weekday at PreferredStartHour:00
// and has id "slot-<id>"; later sessions (ModeAll) get "slot-<id>:<n>".
// Sessions that would run past midnight are not emitted.
func Expand(slot *study.PreferredStudySlot, weekStart time.Time, opts Options) ([]*study.CalendarEvent, error) {
	opts = opts.normalize(weekStart)
	week := dateutil.WeekOf(weekStart.In(opts.Location))
	return ExpandRange(slot, week.Start, week.End, opts)
}

// ExpandRange returns the sessions of slot starting in [from, to). Days
// whose first session precedes from still contribute their later sessions.
func ExpandRange(slot *study.PreferredStudySlot, from, to time.Time, opts Options) ([]*study.CalendarEvent, error) {
	if slot == nil || slot.ID == "" {
		return nil, &study.NotPersistableError{Op: "expand slot"}
	}
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrRangeEndBeforeStart
	}
	opts = opts.normalize(from)

	dayStart := dateutil.TruncateToDay(from.In(opts.Location))
	firsts, err := occurrences(slot, dayStart, to, opts.Location)
	if err != nil {
		return nil, err
	}

	var out []*study.CalendarEvent
	for _, first := range firsts {
		for _, ev := range sessions(slot, first, opts) {
			if !ev.StartTime.Before(from) && ev.StartTime.Before(to) {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

// ExpandAll expands every slot for one week, in slot order.
func ExpandAll(slots []*study.PreferredStudySlot, weekStart time.Time, opts Options) ([]*study.CalendarEvent, error) {
	var out []*study.CalendarEvent
	var errs []error
	for _, s := range slots {
		if s == nil {
			continue
		}
		evs, err := Expand(s, weekStart, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("slot %s: %w", s.ID, err))
			continue
		}
		out = append(out, evs...)
	}
	return out, errors.Join(errs...)
}

// occurrences returns the first-session start of each matching day.
func occurrences(slot *study.PreferredStudySlot, from, to time.Time, loc *time.Location) ([]time.Time, error) {
	fromLocal := from.In(loc)
	anchorDay := dateutil.StartOfWeek(fromLocal)
	if to.Sub(from) > maxWeeks*7*24*time.Hour {
		to = from.Add(maxWeeks * 7 * 24 * time.Hour)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekday(slot.DayOfWeek)},
		Byhour:    []int{slot.PreferredStartHour},
		Byminute:  []int{0},
		Bysecond:  []int{0},
		Dtstart:   time.Date(anchorDay.Year(), anchorDay.Month(), anchorDay.Day(), slot.PreferredStartHour, 0, 0, 0, loc),
	})
	if err != nil {
		return nil, fmt.Errorf("building weekly rule: %w", err)
	}

	var out []time.Time
	for _, t := range r.Between(from.In(loc), to.In(loc), true) {
		if t.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

// sessions lays out the sessions of one day starting at first.
func sessions(slot *study.PreferredStudySlot, first time.Time, opts Options) []*study.CalendarEvent {
	count := slot.SlotCount
	if opts.Mode == ModeFirstOnly {
		count = 1
	}
	dur := time.Duration(slot.SlotDurationMinutes) * time.Minute
	step := dur + time.Duration(opts.GapMinutes)*time.Minute
	midnight := dateutil.TruncateToDay(first).AddDate(0, 0, 1)

	out := make([]*study.CalendarEvent, 0, count)
	for n := 1; n <= count; n++ {
		start := first.Add(time.Duration(n-1) * step)
		end := start.Add(dur)
		if end.After(midnight) {
			break
		}
		out = append(out, &study.CalendarEvent{
			ID:           study.SyntheticID(slot.ID, n),
			UserID:       slot.UserID,
			Title:        SessionTitle,
			Type:         study.TypeStudySession,
			StartTime:    start,
			EndTime:      end,
			SourceSlotID: slot.ID,
		})
	}
	return out
}

func rruleWeekday(isoDay int) rrule.Weekday {
	switch isoDay {
	case 1:
		return rrule.MO
	case 2:
		return rrule.TU
	case 3:
		return rrule.WE
	case 4:
		return rrule.TH
	case 5:
		return rrule.FR
	case 6:
		return rrule.SA
	default:
		return rrule.SU
	}
}
