package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/summary"
)

// PrintOpts configures event printing behavior.
type PrintOpts struct {
	Verbose      bool // Show full titles and topics
	ShowIDs      bool // Show event ids
	MaxDescWidth int  // Maximum title width (0 = auto)
}

// CalcMaxDescWidth calculates the maximum title width based on options.
func (o PrintOpts) CalcMaxDescWidth(defaultWidth int) int {
	if o.MaxDescWidth > 0 {
		return o.MaxDescWidth
	}
	if !o.Verbose {
		return defaultWidth
	}
	// "  HH:MM-HH:MM  [S]  " plus the duration suffix
	available := termWidth() - 26
	if available > defaultWidth {
		return available
	}
	return defaultWidth
}

// PrintEventRow prints a single event row with consistent formatting.
func PrintEventRow(w io.Writer, ev *study.CalendarEvent, opts PrintOpts, maxDescWidth int) {
	title := ev.Title
	if opts.Verbose && ev.Topic != "" {
		title += " - " + ev.Topic
	}
	title = truncate(title, maxDescWidth)

	fmt.Fprintf(w, "  %s-%s  %s  %-*s  %s",
		ev.StartTime.Format("15:04"), ev.EndTime.Format("15:04"),
		formatType(ev), maxDescWidth, title,
		formatMuted(FormatDuration(ev.DurationMinutes())))
	if ev.Subject != "" && ev.Subject != ev.Title {
		fmt.Fprintf(w, "  %s", formatMuted(ev.Subject))
	}
	if opts.ShowIDs {
		fmt.Fprintf(w, "  %s", formatMuted(ev.ID))
	}
	fmt.Fprintln(w)
}

// PrintEventsByDay prints events grouped under a header per day.
func PrintEventsByDay(w io.Writer, events []*study.CalendarEvent, opts PrintOpts) {
	maxDescWidth := opts.CalcMaxDescWidth(32)
	var current string
	for _, ev := range events {
		date := ev.StartTime.Format(time.DateOnly)
		if date != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "  %s\n", formatHeader(ev.StartTime.Format("Mon Jan 2")))
			current = date
		}
		PrintEventRow(w, ev, opts, maxDescWidth)
	}
}

// PrintGrid prints the study-hours grid, one column per weekday. A cell
// shows the subject starting there, or a count when several do.
func PrintGrid(w io.Writer, g *grid.Grid) {
	week := g.Week()
	fmt.Fprintf(w, "  %-6s", "")
	for day := range grid.DaysPerWeek {
		fmt.Fprintf(w, " %-9s", week.Day(day).Format("Mon 02"))
	}
	fmt.Fprintln(w)

	for row := range g.Rows() {
		fmt.Fprintf(w, "  %-6s", g.RowLabel(row))
		for day := range grid.DaysPerWeek {
			fmt.Fprintf(w, " %s", cellLabel(g.Cell(row, day), 9))
		}
		fmt.Fprintln(w)
	}
	if dropped := g.Dropped(); len(dropped) > 0 {
		fmt.Fprintf(w, "  %s\n", formatMuted(fmt.Sprintf("%d outside study hours", len(dropped))))
	}
}

func cellLabel(events []*study.CalendarEvent, width int) string {
	pad := func(s string) string { return fmt.Sprintf("%-*s", width, truncate(s, width)) }
	switch len(events) {
	case 0:
		return formatMuted(pad("·"))
	case 1:
		ev := events[0]
		label := ev.Subject
		if label == "" {
			label = ev.Title
		}
		if ev.IsSynthetic() {
			return colorSynthetic.Sprint(pad(label))
		}
		return pad(label)
	}
	return formatWarn(pad(fmt.Sprintf("%d events", len(events))))
}

// PrintSummary prints the week totals.
func PrintSummary(w io.Writer, s *summary.WeekSummary, maxDaily int) {
	fmt.Fprintf(w, "  Total: %s  |  Sessions: %d  |  Avg/day: %s",
		formatStats(FormatDuration(s.TotalMinutes)), s.Sessions, FormatDuration(s.AverageDailyMinutes()))
	if s.PomodoroCycles > 0 {
		fmt.Fprintf(w, "  |  Pomodoros: %d", s.PomodoroCycles)
	}
	fmt.Fprintln(w)

	for _, sm := range s.Subjects() {
		fmt.Fprintf(w, "  %-20s %6s  %s\n", truncate(sm.Subject, 20), FormatDuration(sm.Minutes),
			StudyBar(sm.Minutes, s.TotalMinutes, 20))
	}

	if len(s.OverBudget) > 0 {
		names := make([]string, 0, len(s.OverBudget))
		for _, day := range s.OverBudget {
			names = append(names, study.WeekdayName(day))
		}
		fmt.Fprintf(w, "  %s\n", formatWarn(fmt.Sprintf("Over the %s daily budget: %s",
			FormatDuration(maxDaily), strings.Join(names, ", "))))
	}
}

// StudyBar renders minutes as a share of total.
func StudyBar(minutes, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (minutes * width) / total
	return formatStats(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
