package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/editor"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/tui/commands"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	applog.Debug("key", "key", msg.String(), "mode", m.mode)

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModeMove:
		return m.handleMoveKeys(msg)
	case ModeForm:
		return m.handleFormKeys(msg)
	case ModeConfirm:
		return m.handleConfirmKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "h", "left":
		if m.cursor.Day > 0 {
			m.cursor.Day--
			return m, nil
		}
		m.cursor.Day = grid.DaysPerWeek - 1
		return m, m.goToWeek(m.week.Prev())
	case "l", "right":
		if m.cursor.Day < grid.DaysPerWeek-1 {
			m.cursor.Day++
			return m, nil
		}
		m.cursor.Day = 0
		return m, m.goToWeek(m.week.Next())
	case "j", "down":
		m.cursor.Row = min(m.cursor.Row+1, m.gridCfg.Rows()-1)
	case "k", "up":
		m.cursor.Row = max(m.cursor.Row-1, 0)
	case "g", "home":
		m.cursor.Row = 0
	case "G", "end":
		m.cursor.Row = m.gridCfg.Rows() - 1

	case "H", "shift+left":
		return m, m.goToWeek(m.week.Prev())
	case "L", "shift+right":
		return m, m.goToWeek(m.week.Next())
	case "t":
		now := m.now().In(m.loc)
		m.cursor.Day = dateutil.DayColumn(now)
		return m, m.goToWeek(dateutil.WeekOf(now))
	case "r":
		return m, m.reload()

	case "n", "a":
		return m.openCreateForm()
	case "enter", "e":
		if ev := m.eventAtCursor(); ev != nil {
			return m.openEditForm(ev)
		}
		return m.openCreateForm()
	case "m":
		ev := m.eventAtCursor()
		if ev == nil {
			return m, nil
		}
		if ev.IsSynthetic() {
			return m, m.setError(&study.NotPersistableError{Op: "reschedule", ID: ev.ID})
		}
		m.mode = ModeMove
		m.moving = ev
	case "d", "x":
		ev := m.eventAtCursor()
		if ev == nil {
			return m, nil
		}
		m.mode = ModeConfirm
		m.confirmID = ev.ID
		m.confirmMsg = fmt.Sprintf("Delete %q?", ev.Title)
		if ev.IsSynthetic() {
			m.confirmMsg = fmt.Sprintf("Remove the %s study slot behind %q?", study.WeekdayName(m.cursor.Day+1), ev.Title)
		}
	case "y":
		ev := m.eventAtCursor()
		if ev == nil {
			return m, nil
		}
		if err := clipboard.WriteAll(yankText(ev, m.loc)); err != nil {
			return m, m.setError(err)
		}
		return m, m.setStatus("Copied to clipboard")
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// handleMoveKeys moves the target cell; enter commits the move.
func (m Model) handleMoveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = ModeNormal
		m.moving = nil
	case "h", "left":
		m.cursor.Day = max(m.cursor.Day-1, 0)
	case "l", "right":
		m.cursor.Day = min(m.cursor.Day+1, grid.DaysPerWeek-1)
	case "j", "down":
		m.cursor.Row = min(m.cursor.Row+1, m.gridCfg.Rows()-1)
	case "k", "up":
		m.cursor.Row = max(m.cursor.Row-1, 0)
	case "H", "shift+left":
		return m, m.goToWeek(m.week.Prev())
	case "L", "shift+right":
		return m, m.goToWeek(m.week.Next())
	case "enter", "m":
		if m.moving == nil {
			m.mode = ModeNormal
			return m, nil
		}
		return m, commands.MoveEvent(m.svc, m.session, m.moving.ID, m.week.Start, m.cursor)
	}
	return m, nil
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.form = nil
		return m, nil
	case "enter":
		f := m.form.Form()
		if err := editor.Validate(f, m.subjs); err != nil {
			m.form.err = err
			return m, nil
		}
		m.form.err = nil
		return m, commands.SaveEvent(m.svc, m.session, f)
	}
	return m, m.form.Update(msg)
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.confirmID
	m.mode = ModeNormal
	m.confirmID = ""
	m.confirmMsg = ""
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		return m, commands.DeleteEvent(m.svc, m.session, id)
	}
	return m, nil
}

func (m Model) openCreateForm() (tea.Model, tea.Cmd) {
	f, err := editor.SeedFromCell(m.gridCfg, m.week.Start, m.cursor)
	if err != nil {
		return m, m.setError(err)
	}
	m.form = newFormModel(f, m.subjs, m.styles)
	m.mode = ModeForm
	return m, nil
}

func (m Model) openEditForm(ev *study.CalendarEvent) (tea.Model, tea.Cmd) {
	if ev.IsSynthetic() {
		return m, m.setError(&study.NotPersistableError{Op: "edit", ID: ev.ID})
	}
	m.form = newFormModel(editor.FromEvent(ev), m.subjs, m.styles)
	m.mode = ModeForm
	return m, nil
}

// eventAtCursor returns the first event starting in the cursor cell.
func (m Model) eventAtCursor() *study.CalendarEvent {
	if m.view == nil || m.view.Grid == nil {
		return nil
	}
	if evs := m.view.Grid.Cell(m.cursor.Row, m.cursor.Day); len(evs) > 0 {
		return evs[0]
	}
	return nil
}

// yankText is the one-line form of an event used for the clipboard.
func yankText(ev *study.CalendarEvent, loc *time.Location) string {
	start := ev.StartTime.In(loc)
	end := ev.EndTime.In(loc)
	parts := []string{
		fmt.Sprintf("%s %s-%s", start.Format("Mon Jan 2"), start.Format("15:04"), end.Format("15:04")),
		ev.Title,
	}
	if ev.Subject != "" {
		subject := ev.Subject
		if ev.Topic != "" {
			subject += " / " + ev.Topic
		}
		parts = append(parts, subject)
	}
	return strings.Join(parts, " · ")
}
