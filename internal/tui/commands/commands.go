// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/athro-ai/athro/internal/editor"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/study"
)

// Planner is the part of the planner service the TUI drives.
type Planner interface {
	Week(ctx context.Context, sess study.Session, date time.Time) (*planner.WeekView, error)
	SaveEvent(ctx context.Context, sess study.Session, f editor.Form) (*study.CalendarEvent, error)
	MoveEvent(ctx context.Context, sess study.Session, id string, weekStart time.Time, target grid.Cell) (*study.CalendarEvent, error)
	DeleteEvent(ctx context.Context, sess study.Session, id string) error
}

// WeekLoadedMsg is sent when a week load finishes. On failure View is an
// empty week and Err is set.
type WeekLoadedMsg struct {
	View *planner.WeekView
	Err  error
}

// EventSavedMsg is sent after a create or edit.
type EventSavedMsg struct {
	Event   *study.CalendarEvent
	Created bool
}

// EventMovedMsg is sent after a successful move.
type EventMovedMsg struct {
	Event *study.CalendarEvent
}

// EventDeletedMsg is sent after a delete. Slot is true when the id named a
// planned session and its whole slot template was removed.
type EventDeletedMsg struct {
	ID   string
	Slot bool
}

// FormErrMsg is sent when saving the form fails; the form stays open.
type FormErrMsg struct {
	Err error
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// LoadWeek loads the week containing date.
func LoadWeek(p Planner, sess study.Session, date time.Time) tea.Cmd {
	return func() tea.Msg {
		view, err := p.Week(context.Background(), sess, date)
		return WeekLoadedMsg{View: view, Err: err}
	}
}

// SaveEvent creates or updates the event described by f.
func SaveEvent(p Planner, sess study.Session, f editor.Form) tea.Cmd {
	return func() tea.Msg {
		ev, err := p.SaveEvent(context.Background(), sess, f)
		if err != nil {
			return FormErrMsg{Err: err}
		}
		return EventSavedMsg{Event: ev, Created: !f.IsEdit()}
	}
}

// MoveEvent moves an event onto a cell of the week of weekStart.
func MoveEvent(p Planner, sess study.Session, id string, weekStart time.Time, target grid.Cell) tea.Cmd {
	return func() tea.Msg {
		ev, err := p.MoveEvent(context.Background(), sess, id, weekStart, target)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return EventMovedMsg{Event: ev}
	}
}

// DeleteEvent deletes an event, or the slot behind a planned session.
func DeleteEvent(p Planner, sess study.Session, id string) tea.Cmd {
	return func() tea.Msg {
		if err := p.DeleteEvent(context.Background(), sess, id); err != nil {
			return ErrMsg{Err: err}
		}
		return EventDeletedMsg{ID: id, Slot: study.IsSyntheticID(id)}
	}
}

// ClearStatusAfter returns a command that clears the status after a delay.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
