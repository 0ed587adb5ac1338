// Package reschedule moves an event to another grid cell or start time,
// keeping its duration.
package reschedule

import (
	"context"
	"errors"
	"time"

	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/study"
)

// Store is the single write the engine needs.
type Store interface {
	UpdateEventTimes(ctx context.Context, sess study.Session, id string, start, end time.Time) error
}

// Compute returns the new start and end of ev when dropped on target in
// the week starting at weekStart. end - start always equals ev's duration.
func Compute(ev *study.CalendarEvent, weekStart time.Time, target grid.Cell, cfg grid.Config) (start, end time.Time, err error) {
	start, err = cfg.CellTime(weekStart, target)
	if err != nil {
		if errors.Is(err, grid.ErrCellOutOfRange) {
			return time.Time{}, time.Time{}, &study.ValidationError{
				Field:   "target",
				Message: "cell " + target.String() + " is outside the grid",
				Err:     err,
			}
		}
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(ev.Duration()), nil
}

// Engine issues reschedule writes.
type Engine struct {
	store Store
	cfg   grid.Config
}

// New creates an Engine over store for grids built with cfg.
func New(store Store, cfg grid.Config) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// Move reschedules ev onto target and writes only its start and end.
// Events without a persisted id are rejected with *study.NotPersistableError.
// On success ev carries the new times.
func (e *Engine) Move(ctx context.Context, sess study.Session, ev *study.CalendarEvent, weekStart time.Time, target grid.Cell) error {
	if err := checkPersisted(ev); err != nil {
		return err
	}
	start, end, err := Compute(ev, weekStart, target, e.cfg)
	if err != nil {
		return err
	}
	return e.write(ctx, sess, ev, start, end)
}

// MoveTo reschedules ev to an absolute start.
func (e *Engine) MoveTo(ctx context.Context, sess study.Session, ev *study.CalendarEvent, newStart time.Time) error {
	if err := checkPersisted(ev); err != nil {
		return err
	}
	if newStart.IsZero() {
		return &study.ValidationError{Field: "start", Message: "new start is required"}
	}
	return e.write(ctx, sess, ev, newStart, newStart.Add(ev.Duration()))
}

func (e *Engine) write(ctx context.Context, sess study.Session, ev *study.CalendarEvent, start, end time.Time) error {
	if err := e.store.UpdateEventTimes(ctx, sess, ev.ID, start, end); err != nil {
		return err
	}
	ev.StartTime = start
	ev.EndTime = end
	return nil
}

func checkPersisted(ev *study.CalendarEvent) error {
	if ev == nil {
		return &study.NotPersistableError{Op: "reschedule"}
	}
	if !ev.IsPersisted() {
		return &study.NotPersistableError{Op: "reschedule", ID: ev.ID}
	}
	return nil
}
