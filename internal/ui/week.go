package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/ics"
)

func (a *App) weekCmd() *cobra.Command {
	var (
		date    string
		asICS   bool
		showMap bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show a week of study sessions",
		Long: `Display the sessions of one ISO week (Monday to Sunday): events you
added and sessions planned from your preferred study slots.

Planned sessions are marked [P]; their ids start with "slot-".`,
		Example: `  athro week
  athro week --date=next-week --grid
  athro week --date=2025-03-12 --ics > week.ics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}
			day, err := dateutil.ParseRelativeDate(date, a.today())
			if err != nil {
				return err
			}

			view, err := a.svc.Week(contextOf(cmd), a.session(), day)
			if err != nil {
				return fmt.Errorf("loading week: %w", err)
			}

			if asICS {
				return ics.Write(a.out, view.All(), a.now())
			}

			week := view.Grid.Week()
			header := fmt.Sprintf("WEEK: %s - %s", week.Start.Format("Mon Jan 2"), week.End.AddDate(0, 0, -1).Format("Mon Jan 2, 2006"))
			fmt.Fprintf(a.out, "\n  %s\n", formatHeader(header))
			fmt.Fprintln(a.out, strings.Repeat("─", 74))

			if showMap {
				PrintGrid(a.out, view.Grid)
			} else if events := view.Summary.Events; len(events) == 0 {
				fmt.Fprintln(a.out, "  No study sessions this week.")
			} else {
				PrintEventsByDay(a.out, events, PrintOpts{Verbose: verbose, ShowIDs: true})
			}

			fmt.Fprintln(a.out, strings.Repeat("─", 74))
			PrintSummary(a.out, view.Summary, a.svc.MaxDailyMinutes())
			for _, o := range view.Grid.Overlaps() {
				fmt.Fprintf(a.out, "  %s\n", formatWarn(fmt.Sprintf("%d sessions start at %s %s",
					len(o.Events), week.Day(o.Cell.Day).Format("Mon"), view.Grid.RowLabel(o.Cell.Row))))
			}
			fmt.Fprintln(a.out)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any date in the week (YYYY-MM-DD, today, next-week, ...)")
	cmd.Flags().BoolVar(&asICS, "ics", false, "Write the week as iCalendar instead")
	cmd.Flags().BoolVar(&showMap, "grid", false, "Show the study-hours grid")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full titles and topics")
	return cmd
}

// contextOf returns the command context, or Background when run outside
// Execute.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(contextOf(cmd), d)
}
