package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/study"
)

// View renders the model.
func (m Model) View() string {
	if m.mode == ModeForm && m.form != nil {
		box := m.form.View(m.styles)
		if m.width == 0 || m.height == 0 {
			return box
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	sections := []string{
		m.renderHeader(),
		m.renderGrid(),
		m.renderSummary(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := m.styles.TitleStyle.Render("athro")
	end := m.week.End.AddDate(0, 0, -1)
	span := fmt.Sprintf("%s – %s", m.week.Start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	parts := []string{title, span}
	if m.loading {
		parts = append(parts, m.styles.MutedStyle.Render("loading…"))
	}
	if m.loadErr != nil {
		parts = append(parts, m.styles.ErrorStyle.Render("could not load week: "+errorText(m.loadErr)))
	}
	return strings.Join(parts, "  ")
}

// cellInfo is what one grid cell shows.
type cellInfo struct {
	start []*study.CalendarEvent // events starting in the cell
	cont  *study.CalendarEvent   // event covering the cell from an earlier row
}

// layoutCells places each event in its start cell and marks the rows its
// duration covers below it.
func (m Model) layoutCells() [][grid.DaysPerWeek]cellInfo {
	rows := m.gridCfg.Rows()
	cells := make([][grid.DaysPerWeek]cellInfo, rows)
	g := m.view.Grid
	if g == nil {
		return cells
	}
	for row := range rows {
		for day := range grid.DaysPerWeek {
			cells[row][day].start = g.Cell(row, day)
		}
	}
	for row := range rows {
		for day := range grid.DaysPerWeek {
			evs := cells[row][day].start
			if len(evs) == 0 {
				continue
			}
			span := (evs[0].DurationMinutes() + m.gridCfg.IntervalMinutes - 1) / m.gridCfg.IntervalMinutes
			for r := row + 1; r < row+span && r < rows; r++ {
				if len(cells[r][day].start) > 0 {
					break
				}
				cells[r][day].cont = evs[0]
			}
		}
	}
	return cells
}

func (m Model) renderGrid() string {
	now := m.now().In(m.loc)
	var b strings.Builder

	// Day headers
	b.WriteString(strings.Repeat(" ", timeColumnWidth))
	for day := range grid.DaysPerWeek {
		date := m.week.Day(day)
		label := padRight(date.Format("Mon 2"), m.colWidth)
		style := m.styles.DayHeaderStyle
		if sameDay(date, now) {
			style = m.styles.DayHeaderTodayStyle
		}
		b.WriteString(" " + style.Render(label))
	}
	b.WriteString("\n")

	nowRow, nowVisible := -1, false
	if m.week.Contains(now) {
		nowRow, nowVisible = m.gridCfg.RowOf(study.MinutesOfDay(now))
	}

	cells := m.layoutCells()
	for row := range m.gridCfg.Rows() {
		label := padRight(m.gridCfg.RowLabel(row), timeColumnWidth)
		if nowVisible && row == nowRow {
			b.WriteString(m.styles.NowTimeStyle.Render(label))
		} else {
			b.WriteString(m.styles.TimeColumnStyle.Render(label))
		}
		for day := range grid.DaysPerWeek {
			b.WriteString(" " + m.renderCell(grid.Cell{Day: day, Row: row}, cells[row][day], now))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderCell(cell grid.Cell, info cellInfo, now time.Time) string {
	w := m.colWidth
	var text string
	style := m.styles.EmptyCellStyle

	switch {
	case len(info.start) > 0:
		ev := info.start[0]
		text = ev.Title
		if len(info.start) > 1 {
			more := fmt.Sprintf(" +%d", len(info.start)-1)
			text = ansi.Truncate(text, w-ansi.StringWidth(more), "…") + more
		}
		style = m.styles.EventStyle(ev, ev.EndTime.Before(now))
		if m.moving != nil && ev.ID == m.moving.ID {
			style = style.Faint(true)
		}
	case info.cont != nil:
		style = m.styles.EventStyle(info.cont, info.cont.EndTime.Before(now))
	default:
		text = "·"
	}

	if cell == m.cursor {
		switch m.mode {
		case ModeMove:
			style = m.styles.MoveTargetStyle
			if m.moving != nil {
				text = m.moving.Title
			}
		default:
			style = m.styles.CursorStyle
		}
	}
	return style.Render(padRight(ansi.Truncate(text, w, "…"), w))
}

func (m Model) renderSummary() string {
	s := m.view.Summary
	if s == nil || s.Sessions == 0 {
		return m.styles.MutedStyle.Render("No sessions this week")
	}
	parts := []string{
		fmt.Sprintf("Total %s", formatMinutes(s.TotalMinutes)),
		fmt.Sprintf("%d sessions", s.Sessions),
	}
	for _, sm := range s.Subjects() {
		name := sm.Subject
		if name == "" {
			name = "(none)"
		}
		parts = append(parts, fmt.Sprintf("%s %s", name, formatMinutes(sm.Minutes)))
	}
	line := m.styles.MutedStyle.Render(strings.Join(parts, " · "))
	if len(s.OverBudget) > 0 {
		days := make([]string, len(s.OverBudget))
		for i, d := range s.OverBudget {
			days[i] = study.WeekdayShortName(d)
		}
		line += "  " + m.styles.ErrorStyle.Render("over daily budget: "+strings.Join(days, ", "))
	}
	return line
}

func (m Model) renderFooter() string {
	var lines []string
	switch {
	case m.mode == ModeConfirm:
		lines = append(lines, m.styles.ErrorStyle.Render(m.confirmMsg+" [y/N]"))
	case m.statusMsg != "" && m.isErr:
		lines = append(lines, m.styles.ErrorStyle.Render(m.statusMsg))
	case m.statusMsg != "":
		lines = append(lines, m.styles.StatusStyle.Render(m.statusMsg))
	default:
		lines = append(lines, m.cursorDetail())
	}

	mode := "NORMAL"
	help := normalHelp
	if m.mode == ModeMove {
		mode = "MOVE"
		help = moveHelp
	}
	if !m.showHelp && m.mode == ModeNormal {
		help = shortHelp
	}
	lines = append(lines, m.styles.ModeStyle.Render(mode)+" "+m.renderHelp(help))
	return strings.Join(lines, "\n")
}

// cursorDetail describes the event under the cursor.
func (m Model) cursorDetail() string {
	ev := m.eventAtCursor()
	if ev == nil {
		return ""
	}
	text := yankText(ev, m.loc)
	if ev.IsSynthetic() {
		text += " (planned)"
	} else if ev.Type != study.TypeStudySession {
		text += " (" + string(ev.Type) + ")"
	}
	marker := lipgloss.NewStyle().Foreground(m.styles.EventMarkerColor(ev)).Render("■")
	return marker + " " + text
}

type helpEntry struct{ key, desc string }

var (
	shortHelp  = []helpEntry{{"n", "new"}, {"enter", "edit"}, {"m", "move"}, {"d", "delete"}, {"?", "help"}, {"q", "quit"}}
	normalHelp = []helpEntry{
		{"hjkl", "cursor"}, {"H/L", "week"}, {"t", "today"}, {"n", "new"}, {"enter", "edit"},
		{"m", "move"}, {"d", "delete"}, {"y", "copy"}, {"r", "reload"}, {"q", "quit"},
	}
	moveHelp = []helpEntry{{"hjkl", "target"}, {"H/L", "week"}, {"enter", "place"}, {"esc", "cancel"}}
)

func (m Model) renderHelp(entries []helpEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = m.styles.HelpKeyStyle.Render(e.key) + " " + m.styles.HelpDescStyle.Render(e.desc)
	}
	return strings.Join(parts, "  ")
}

func calcColWidth(width int) int {
	if width <= 0 {
		return defaultColWidth
	}
	return max(minColWidth, (width-timeColumnWidth-grid.DaysPerWeek)/grid.DaysPerWeek)
}

func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatMinutes(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, m)
}
