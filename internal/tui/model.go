// Package tui provides the terminal week planner for athro.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/athro-ai/athro/internal/config"
	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/tui/commands"
	"github.com/athro-ai/athro/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal  Mode = iota
	ModeMove         // Choosing a target cell for an event
	ModeForm         // Create/edit form is open
	ModeConfirm      // Waiting for y/n on a delete
)

// statusTimeout is how long a status message stays in the footer.
var statusTimeout = 3 * time.Second

// Service is what the TUI needs from the planner.
type Service interface {
	commands.Planner
	GridConfig() grid.Config
	Location() *time.Location
	Subjects() []string
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	svc     Service
	session study.Session
	gridCfg grid.Config
	loc     *time.Location
	subjs   []string

	styles *Styles

	// State
	week    dateutil.Week
	view    *planner.WeekView
	cursor  grid.Cell
	mode    Mode
	loading bool
	loadErr error

	// Move mode
	moving *study.CalendarEvent

	// Confirm mode
	confirmID  string
	confirmMsg string

	form *formModel

	showHelp bool

	// Terminal dimensions
	width    int
	height   int
	colWidth int

	statusMsg string
	isErr     bool

	now func() time.Time
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) { m.now = now }
}

// New creates a new TUI model showing the current week.
func New(svc Service, cfg *config.Config, sess study.Session, opts ...ModelOption) Model {
	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load(theme.DefaultName)
	}

	m := Model{
		svc:      svc,
		session:  sess,
		gridCfg:  svc.GridConfig(),
		loc:      svc.Location(),
		subjs:    svc.Subjects(),
		styles:   NewStyles(t),
		colWidth: defaultColWidth,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}

	now := m.now().In(m.loc)
	m.week = dateutil.WeekOf(now)
	m.view = emptyView(m.gridCfg, m.week)
	m.cursor = grid.Cell{Day: dateutil.DayColumn(now)}
	if row, ok := m.gridCfg.RowOf(study.MinutesOfDay(now)); ok {
		m.cursor.Row = row
	}
	return m
}

// Init loads the first week.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return commands.LoadWeek(m.svc, m.session, m.week.Start)
}

// Run starts the TUI on the alternate screen.
func Run(svc *planner.Service, cfg *config.Config, sess study.Session) error {
	p := tea.NewProgram(New(svc, cfg, sess), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func emptyView(cfg grid.Config, week dateutil.Week) *planner.WeekView {
	return &planner.WeekView{Start: week.Start, Grid: grid.Empty(cfg, week.Start)}
}
