package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/tui/commands"
)

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.colWidth = calcColWidth(msg.Width)
		return m, nil

	case commands.WeekLoadedMsg:
		// A slow load of a week we already left is ignored.
		if msg.View != nil && !msg.View.Start.Equal(m.week.Start) {
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.Err
		if msg.View != nil {
			m.view = msg.View
		}
		if msg.Err != nil {
			applog.Error("loading week", msg.Err, "week", m.week.Start.Format("2006-01-02"))
		}
		return m, nil

	case commands.EventSavedMsg:
		m.mode = ModeNormal
		m.form = nil
		verb := "Updated"
		if msg.Created {
			verb = "Created"
		}
		return m, tea.Batch(m.reload(), m.setStatus(fmt.Sprintf("%s %q", verb, msg.Event.Title)))

	case commands.FormErrMsg:
		if m.form != nil {
			m.form.err = msg.Err
			return m, nil
		}
		return m, m.setError(msg.Err)

	case commands.EventMovedMsg:
		m.mode = ModeNormal
		m.moving = nil
		ev := msg.Event
		return m, tea.Batch(m.reload(), m.setStatus(fmt.Sprintf("Moved to %s", ev.StartTime.In(m.loc).Format("Mon 15:04"))))

	case commands.EventDeletedMsg:
		text := "Deleted event"
		if msg.Slot {
			text = "Removed study slot"
		}
		return m, tea.Batch(m.reload(), m.setStatus(text))

	case commands.ErrMsg:
		m.mode = ModeNormal
		m.moving = nil
		return m, tea.Batch(m.reload(), m.setError(msg.Err))

	case commands.StatusMsgCmd:
		return m, m.setStatus(msg.Msg)

	case commands.ClearStatusMsg:
		m.statusMsg = ""
		m.isErr = false
		return m, nil
	}

	return m, nil
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusMsg = text
	m.isErr = false
	return commands.ClearStatusAfter(statusTimeout)
}

func (m *Model) setError(err error) tea.Cmd {
	m.statusMsg = errorText(err)
	m.isErr = true
	return commands.ClearStatusAfter(statusTimeout)
}

func errorText(err error) string {
	var notPersistable *study.NotPersistableError
	switch {
	case errors.As(err, &notPersistable):
		return "Planned sessions follow their slot; edit it with `athro slots`"
	case errors.Is(err, planner.ErrEventNotFound):
		return "Event no longer exists"
	}
	return formErrorText(err)
}

// goToWeek switches the displayed week and starts loading it.
func (m *Model) goToWeek(week dateutil.Week) tea.Cmd {
	m.week = week
	m.view = emptyView(m.gridCfg, week)
	m.loadErr = nil
	return m.reload()
}
