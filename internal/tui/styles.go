package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/tui/theme"
)

const (
	timeColumnWidth = 6
	minColWidth     = 8
	defaultColWidth = 14
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	TitleStyle          lipgloss.Style
	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style
	TimeColumnStyle     lipgloss.Style
	NowTimeStyle        lipgloss.Style
	EmptyCellStyle      lipgloss.Style
	CursorStyle         lipgloss.Style
	MoveTargetStyle     lipgloss.Style
	MutedStyle          lipgloss.Style
	ErrorStyle          lipgloss.Style
	StatusStyle         lipgloss.Style
	ModeStyle           lipgloss.Style
	HelpKeyStyle        lipgloss.Style
	HelpDescStyle       lipgloss.Style

	FormStyle        lipgloss.Style
	FormLabelStyle   lipgloss.Style
	FormFocusStyle   lipgloss.Style
	FormOptionStyle  lipgloss.Style
	FormErrorStyle   lipgloss.Style
	InputTextStyle   lipgloss.Style
	InputCursorStyle lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	return &Styles{
		palette: p,

		TitleStyle: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		DayHeaderStyle: lipgloss.NewStyle().
			Foreground(p.Fg).
			Bold(true),
		DayHeaderTodayStyle: lipgloss.NewStyle().
			Foreground(p.TextOnCurrent).
			Background(p.Current).
			Bold(true),
		TimeColumnStyle: lipgloss.NewStyle().Foreground(p.FgMuted),
		NowTimeStyle:    lipgloss.NewStyle().Foreground(p.Current).Bold(true),
		EmptyCellStyle:  lipgloss.NewStyle().Foreground(p.FgMuted),
		CursorStyle: lipgloss.NewStyle().
			Foreground(p.Fg).
			Background(p.BgSelection).
			Bold(true),
		MoveTargetStyle: lipgloss.NewStyle().
			Foreground(p.TextOnWarning).
			Background(p.Warning).
			Bold(true),
		MutedStyle:  lipgloss.NewStyle().Foreground(p.FgMuted),
		ErrorStyle:  lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
		StatusStyle: lipgloss.NewStyle().Foreground(p.Accent),
		ModeStyle: lipgloss.NewStyle().
			Foreground(p.TextOnAccent).
			Background(p.Accent).
			Padding(0, 1).
			Bold(true),
		HelpKeyStyle:  lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		HelpDescStyle: lipgloss.NewStyle().Foreground(p.FgMuted),

		FormStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.FormBorder).
			Background(p.FormBg).
			Padding(1, 2),
		FormLabelStyle:   lipgloss.NewStyle().Foreground(p.FgMuted).Width(10),
		FormFocusStyle:   lipgloss.NewStyle().Foreground(p.Accent).Bold(true).Width(10),
		FormOptionStyle:  lipgloss.NewStyle().Foreground(p.Fg),
		FormErrorStyle:   lipgloss.NewStyle().Foreground(p.Warning),
		InputTextStyle:   lipgloss.NewStyle().Foreground(p.Fg),
		InputCursorStyle: lipgloss.NewStyle().Foreground(p.Accent),
	}
}

// EventStyle returns the block style for an event. Past events are muted;
// continuation rows of a longer event are drawn without text.
func (s *Styles) EventStyle(ev *study.CalendarEvent, past bool) lipgloss.Style {
	c := s.palette.Event(ev)
	bg := c.Bg
	if past {
		bg = c.PastBg
	}
	return lipgloss.NewStyle().Foreground(c.Text).Background(bg)
}

// EventMarkerColor returns the accent color of an event's kind.
func (s *Styles) EventMarkerColor(ev *study.CalendarEvent) lipgloss.Color {
	return s.palette.Event(ev).Fg
}
