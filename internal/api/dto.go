package api

import (
	"time"

	"github.com/athro-ai/athro/internal/editor"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/summary"
)

type pomodoroDTO struct {
	WorkMinutes  int `json:"work_minutes"`
	BreakMinutes int `json:"break_minutes"`
}

type eventDTO struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Subject         string       `json:"subject"`
	Topic           string       `json:"topic"`
	Type            string       `json:"type"`
	Start           time.Time    `json:"start"`
	End             time.Time    `json:"end"`
	DurationMinutes int          `json:"duration_minutes"`
	Synthetic       bool         `json:"synthetic"`
	SourceSlotID    string       `json:"source_slot_id,omitempty"`
	Pomodoro        *pomodoroDTO `json:"pomodoro,omitempty"`
}

func toEventDTO(ev *study.CalendarEvent) eventDTO {
	dto := eventDTO{
		ID:              ev.ID,
		Title:           ev.Title,
		Subject:         ev.Subject,
		Topic:           ev.Topic,
		Type:            string(ev.Type),
		Start:           ev.StartTime,
		End:             ev.EndTime,
		DurationMinutes: ev.DurationMinutes(),
		Synthetic:       ev.IsSynthetic(),
		SourceSlotID:    ev.SourceSlotID,
	}
	if ev.Pomodoro != nil {
		dto.Pomodoro = &pomodoroDTO{WorkMinutes: ev.Pomodoro.WorkMinutes, BreakMinutes: ev.Pomodoro.BreakMinutes}
	}
	return dto
}

func toEventDTOs(events []*study.CalendarEvent) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventDTO(ev))
	}
	return out
}

type slotDTO struct {
	ID                  string `json:"id,omitempty"`
	DayOfWeek           int    `json:"day_of_week"`
	SlotCount           int    `json:"slot_count"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	PreferredStartHour  int    `json:"preferred_start_hour"`
}

func toSlotDTOs(slots []*study.PreferredStudySlot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{
			ID:                  s.ID,
			DayOfWeek:           s.DayOfWeek,
			SlotCount:           s.SlotCount,
			SlotDurationMinutes: s.SlotDurationMinutes,
			PreferredStartHour:  s.PreferredStartHour,
		})
	}
	return out
}

type cellDTO struct {
	Day    int      `json:"day"`
	Row    int      `json:"row"`
	Events []string `json:"events"`
}

type gridDTO struct {
	Rows     []string  `json:"rows"`
	Cells    []cellDTO `json:"cells"`
	Dropped  []string  `json:"dropped,omitempty"`
	Overlaps []cellDTO `json:"overlaps,omitempty"`
}

func ids(events []*study.CalendarEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func toGridDTO(g *grid.Grid) gridDTO {
	dto := gridDTO{Rows: make([]string, g.Rows()), Cells: []cellDTO{}}
	for row := range g.Rows() {
		dto.Rows[row] = g.RowLabel(row)
		for day := range grid.DaysPerWeek {
			if evs := g.Cell(row, day); len(evs) > 0 {
				dto.Cells = append(dto.Cells, cellDTO{Day: day, Row: row, Events: ids(evs)})
			}
		}
	}
	dto.Dropped = ids(g.Dropped())
	for _, o := range g.Overlaps() {
		dto.Overlaps = append(dto.Overlaps, cellDTO{Day: o.Cell.Day, Row: o.Cell.Row, Events: ids(o.Events)})
	}
	return dto
}

type summaryDTO struct {
	TotalMinutes   int            `json:"total_minutes"`
	Sessions       int            `json:"sessions"`
	BySubject      map[string]int `json:"by_subject"`
	ByType         map[string]int `json:"by_type"`
	ByDay          [7]int         `json:"by_day"`
	PomodoroCycles int            `json:"pomodoro_cycles"`
	OverBudget     []int          `json:"over_budget,omitempty"`
}

func toSummaryDTO(s *summary.WeekSummary) summaryDTO {
	byType := make(map[string]int, len(s.ByType))
	for t, m := range s.ByType {
		byType[string(t)] = m
	}
	return summaryDTO{
		TotalMinutes:   s.TotalMinutes,
		Sessions:       s.Sessions,
		BySubject:      s.BySubject,
		ByType:         byType,
		ByDay:          s.ByDay,
		PomodoroCycles: s.PomodoroCycles,
		OverBudget:     s.OverBudget,
	}
}

type weekDTO struct {
	Start    time.Time  `json:"start"`
	End      time.Time  `json:"end"`
	Slots    []slotDTO  `json:"slots"`
	Events   []eventDTO `json:"events"`
	Expanded []eventDTO `json:"expanded"`
	Grid     gridDTO    `json:"grid"`
	Summary  summaryDTO `json:"summary"`
}

func toWeekDTO(v *planner.WeekView) weekDTO {
	return weekDTO{
		Start:    v.Start,
		End:      v.Grid.Week().End,
		Slots:    toSlotDTOs(v.Slots),
		Events:   toEventDTOs(v.Events),
		Expanded: toEventDTOs(v.Expanded),
		Grid:     toGridDTO(v.Grid),
		Summary:  toSummaryDTO(v.Summary),
	}
}

// eventRequest is the body of create and update.
type eventRequest struct {
	Title           string       `json:"title"`
	Subject         string       `json:"subject"`
	Topic           string       `json:"topic"`
	Date            string       `json:"date"`  // YYYY-MM-DD
	Start           string       `json:"start"` // HH:MM
	DurationMinutes int          `json:"duration_minutes"`
	Type            string       `json:"type"`
	Pomodoro        *pomodoroDTO `json:"pomodoro"`
}

func (r eventRequest) form(id string, date time.Time) editor.Form {
	f := editor.NewForm(date)
	f.ID = id
	f.Title = r.Title
	f.Subject = r.Subject
	f.Topic = r.Topic
	f.SetStart(r.Start)
	f.SetDuration(r.DurationMinutes)
	if r.Type != "" {
		f.Type = study.EventType(r.Type)
	}
	if r.Pomodoro != nil {
		f.Pomodoro = &study.Pomodoro{WorkMinutes: r.Pomodoro.WorkMinutes, BreakMinutes: r.Pomodoro.BreakMinutes}
	}
	return f
}

// moveRequest targets either a grid cell of a week or an absolute start.
type moveRequest struct {
	Week  string     `json:"week"` // any date in the target week
	Day   *int       `json:"day"`
	Row   *int       `json:"row"`
	Start *time.Time `json:"start"`
}

type slotsRequest struct {
	Slots []slotDTO `json:"slots"`
}

type presetDTO struct {
	Name            string `json:"name"`
	SlotCount       int    `json:"slot_count"`
	DurationMinutes int    `json:"duration_minutes"`
	TotalMinutes    int    `json:"total_minutes"`
}
