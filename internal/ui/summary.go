package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/summary"
)

func (a *App) summaryCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a week of study",
		Long: `Show the minutes planned per subject, per type and per day for one
week, counting both added events and sessions from preferred slots.
Days over the daily budget (schedule.max_daily_minutes) are flagged.`,
		Example: `  athro summary
  athro summary --date=last-week`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}
			day, err := dateutil.ParseRelativeDate(date, a.today())
			if err != nil {
				return err
			}

			ctx, cancel := contextWithTimeout(cmd, a.config.Storage.Timeout())
			defer cancel()
			s, err := summary.BuildWeekSummary(ctx, a.store, a.session(), summary.BuildOptions{
				WeekStart:       day,
				Expand:          a.config.ExpandOptions(),
				MaxDailyMinutes: a.config.Schedule.MaxDailyMinutes,
			})
			if err != nil {
				return fmt.Errorf("building week summary: %w", err)
			}

			header := fmt.Sprintf("SUMMARY: %s - %s", s.Start.Format("Mon Jan 2"), s.End.AddDate(0, 0, -1).Format("Mon Jan 2, 2006"))
			fmt.Fprintf(a.out, "\n  %s\n", formatHeader(header))
			fmt.Fprintln(a.out, strings.Repeat("─", 60))
			if s.Sessions == 0 {
				fmt.Fprintln(a.out, "  Nothing planned this week.")
				fmt.Fprintln(a.out)
				return nil
			}

			PrintSummary(a.out, s, a.config.Schedule.MaxDailyMinutes)

			fmt.Fprintln(a.out)
			for _, typ := range []study.EventType{study.TypeStudySession, study.TypeQuiz, study.TypeRevision} {
				if mins := s.ByType[typ]; mins > 0 {
					fmt.Fprintf(a.out, "  %-14s %s\n", typ, FormatDuration(mins))
				}
			}

			fmt.Fprintln(a.out)
			for col, mins := range s.ByDay {
				fmt.Fprintf(a.out, "  %-4s %6s  %s\n", study.WeekdayShortName(col+1), FormatDuration(mins),
					StudyBar(mins, s.TotalMinutes, 20))
			}
			fmt.Fprintln(a.out)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any date in the week (YYYY-MM-DD, today, last-week, ...)")
	return cmd
}
