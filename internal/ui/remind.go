package ui

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/remind"
)

func (a *App) remindCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Print reminders for upcoming sessions",
		Long: `Check for sessions starting within reminders.lead_minutes on the
reminders.cron schedule and print one line per session, until interrupted.`,
		Example: `  athro remind
  athro remind --once`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}
			runner, err := a.newReminder()
			if err != nil {
				return err
			}

			if once {
				n, err := runner.Check(contextOf(cmd))
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintln(a.out, formatMuted("No sessions starting soon."))
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(a.out, "Watching for sessions (%s), Ctrl+C to stop\n", a.config.Reminders.Cron)
			return runner.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Check once and exit")
	return cmd
}

func (a *App) newReminder() (*remind.Runner, error) {
	return remind.New(a.svc, remind.WriterNotifier{W: a.out}, a.session(), remind.Options{
		Spec:    a.config.Reminders.Cron,
		Lead:    time.Duration(a.config.Reminders.LeadMinutes) * time.Minute,
		Timeout: a.config.Storage.Timeout(),
	})
}
