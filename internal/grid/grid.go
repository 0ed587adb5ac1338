// Package grid buckets a week's calendar events into a fixed matrix of
// {time row x day column} cells for rendering.
package grid

import (
	"errors"
	"fmt"
	"time"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/study"
)

// Grid errors.
var (
	ErrInvalidWindow   = errors.New("study window end must not be before its start")
	ErrInvalidInterval = errors.New("interval must be positive and divide the day")
	ErrCellOutOfRange  = errors.New("cell is outside the grid")
)

const (
	// DaysPerWeek is the number of day columns.
	DaysPerWeek = 7
	// DefaultStart is 15:00 in minutes from midnight.
	DefaultStart = 15 * 60
	// DefaultEnd is 22:00 in minutes from midnight. The last row starts here.
	DefaultEnd = 22 * 60
	// DefaultInterval is the row height in minutes.
	DefaultInterval = 20
)

// Config describes the study-hours window shown by the grid.
// Rows run from StartMinutes to EndMinutes inclusive, one per interval.
type Config struct {
	StartMinutes    int
	EndMinutes      int
	IntervalMinutes int
}

// DefaultConfig returns the 15:00 to 22:00, 20-minute grid.
func DefaultConfig() Config {
	return Config{
		StartMinutes:    DefaultStart,
		EndMinutes:      DefaultEnd,
		IntervalMinutes: DefaultInterval,
	}
}

// NewConfig builds a Config from "HH:MM" bounds.
func NewConfig(start, end string, intervalMinutes int) (Config, error) {
	s, err := study.ParseClock(start)
	if err != nil {
		return Config{}, fmt.Errorf("study start: %w", err)
	}
	e, err := study.ParseClock(end)
	if err != nil {
		return Config{}, fmt.Errorf("study end: %w", err)
	}
	cfg := Config{StartMinutes: s, EndMinutes: e, IntervalMinutes: intervalMinutes}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the window bounds and interval.
func (c Config) Validate() error {
	if c.IntervalMinutes <= 0 || (24*60)%c.IntervalMinutes != 0 {
		return ErrInvalidInterval
	}
	if c.StartMinutes < 0 || c.EndMinutes >= 24*60 || c.EndMinutes < c.StartMinutes {
		return ErrInvalidWindow
	}
	return nil
}

// Rows returns the number of time rows.
func (c Config) Rows() int {
	return (c.EndMinutes-c.floor(c.StartMinutes))/c.IntervalMinutes + 1
}

// RowMinutes returns the start of a row in minutes from midnight.
func (c Config) RowMinutes(row int) int {
	return c.floor(c.StartMinutes) + row*c.IntervalMinutes
}

// RowLabel returns the "HH:MM" label of a row.
func (c Config) RowLabel(row int) string {
	return study.FormatClock(c.RowMinutes(row))
}

// RowOf returns the row whose bucket contains minutes, rounding down to
// the interval. ok is false if the bucket is outside the window.
func (c Config) RowOf(minutes int) (row int, ok bool) {
	bucket := c.floor(minutes)
	if bucket < c.floor(c.StartMinutes) || bucket > c.EndMinutes {
		return 0, false
	}
	return (bucket - c.floor(c.StartMinutes)) / c.IntervalMinutes, true
}

func (c Config) floor(minutes int) int {
	return minutes - minutes%c.IntervalMinutes
}

// Cell addresses one grid cell. Day is 0 (Monday) to 6 (Sunday).
type Cell struct {
	Day int
	Row int
}

func (c Cell) String() string {
	return fmt.Sprintf("%s/row %d", study.WeekdayShortName(c.Day+1), c.Row)
}

// Contains reports whether cell lies inside the grid.
func (c Config) Contains(cell Cell) bool {
	return cell.Day >= 0 && cell.Day < DaysPerWeek && cell.Row >= 0 && cell.Row < c.Rows()
}

// CellTime returns the absolute start of a cell in the week beginning at
// weekStart (normalized to its Monday).
func (c Config) CellTime(weekStart time.Time, cell Cell) (time.Time, error) {
	if !c.Contains(cell) {
		return time.Time{}, ErrCellOutOfRange
	}
	day := dateutil.StartOfWeek(weekStart).AddDate(0, 0, cell.Day)
	return study.AtClock(day, c.RowMinutes(cell.Row)), nil
}

// CellOf returns the cell an instant falls into for the given week.
func (c Config) CellOf(weekStart, t time.Time) (Cell, bool) {
	week := dateutil.WeekOf(weekStart)
	if !week.Contains(t) {
		return Cell{}, false
	}
	local := t.In(week.Start.Location())
	row, ok := c.RowOf(study.MinutesOfDay(local))
	if !ok {
		return Cell{}, false
	}
	return Cell{Day: dateutil.DayColumn(local), Row: row}, true
}

// Grid is an immutable placement of one week's events.
type Grid struct {
	cfg     Config
	week    dateutil.Week
	cells   [][][]*study.CalendarEvent // [row][day]
	index   map[string]Cell
	placed  []*study.CalendarEvent
	dropped []*study.CalendarEvent
}

// Build places every event starting in the week of weekStart whose bucket
// falls inside the study window. Other events are recorded as dropped.
// Events sharing a cell keep their input order.
func Build(cfg Config, weekStart time.Time, events []*study.CalendarEvent) *Grid {
	g := &Grid{
		cfg:   cfg,
		week:  dateutil.WeekOf(weekStart),
		cells: make([][][]*study.CalendarEvent, cfg.Rows()),
		index: make(map[string]Cell),
	}
	for r := range g.cells {
		g.cells[r] = make([][]*study.CalendarEvent, DaysPerWeek)
	}

	for _, ev := range events {
		if ev == nil {
			continue
		}
		cell, ok := cfg.CellOf(g.week.Start, ev.StartTime)
		if !ok {
			g.dropped = append(g.dropped, ev)
			continue
		}
		g.cells[cell.Row][cell.Day] = append(g.cells[cell.Row][cell.Day], ev)
		g.placed = append(g.placed, ev)
		if ev.ID != "" {
			g.index[ev.ID] = cell
		}
	}
	return g
}

// Empty returns a grid with no events, used when a week fails to load.
func Empty(cfg Config, weekStart time.Time) *Grid {
	return Build(cfg, weekStart, nil)
}

// Config returns the grid configuration.
func (g *Grid) Config() Config { return g.cfg }

// Week returns the displayed week.
func (g *Grid) Week() dateutil.Week { return g.week }

// WeekStart returns the Monday the grid is aligned to.
func (g *Grid) WeekStart() time.Time { return g.week.Start }

// Rows returns the number of time rows.
func (g *Grid) Rows() int { return g.cfg.Rows() }

// RowLabel returns the "HH:MM" label of a row.
func (g *Grid) RowLabel(row int) string { return g.cfg.RowLabel(row) }

// Cell returns the events in a cell, or nil if the cell is out of range.
func (g *Grid) Cell(row, day int) []*study.CalendarEvent {
	if !g.cfg.Contains(Cell{Day: day, Row: row}) {
		return nil
	}
	return g.cells[row][day]
}

// Find returns the cell an event id was placed in.
func (g *Grid) Find(id string) (Cell, bool) {
	c, ok := g.index[id]
	return c, ok
}

// CellTime returns the absolute start of a cell in this grid's week.
func (g *Grid) CellTime(cell Cell) (time.Time, error) {
	return g.cfg.CellTime(g.week.Start, cell)
}

// Placed returns the events that landed in a cell, in input order.
func (g *Grid) Placed() []*study.CalendarEvent { return g.placed }

// Dropped returns the events outside the week or the study window.
func (g *Grid) Dropped() []*study.CalendarEvent { return g.dropped }

// Overlap is a cell holding more than one event.
type Overlap struct {
	Cell   Cell
	Events []*study.CalendarEvent
}

// Overlaps reports every cell with more than one event, by day then row.
// It is informational; nothing is rejected or merged.
func (g *Grid) Overlaps() []Overlap {
	var out []Overlap
	for day := 0; day < DaysPerWeek; day++ {
		for row := range g.cells {
			if evs := g.cells[row][day]; len(evs) > 1 {
				out = append(out, Overlap{Cell: Cell{Day: day, Row: row}, Events: evs})
			}
		}
	}
	return out
}
