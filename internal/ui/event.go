package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/editor"
	"github.com/athro-ai/athro/internal/scheduler"
	"github.com/athro-ai/athro/internal/study"
)

// eventFlags are the editable fields shared by add and edit.
type eventFlags struct {
	date     string
	start    string
	duration int
	subject  string
	topic    string
	typ      string
	pomodoro string
}

func (f *eventFlags) register(cmd *cobra.Command, defaultDuration int) {
	cmd.Flags().StringVar(&f.date, "date", "", "Date (YYYY-MM-DD, today, tomorrow, ...)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time (HH:MM)")
	cmd.Flags().IntVar(&f.duration, "duration", defaultDuration, "Duration in minutes")
	cmd.Flags().StringVar(&f.subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&f.topic, "topic", "", "Topic")
	cmd.Flags().StringVar(&f.typ, "type", "", "Type: study_session, quiz or revision")
	cmd.Flags().StringVar(&f.pomodoro, "pomodoro", "", "Pomodoro cadence as work/break minutes, e.g. 25/5 (\"off\" to clear)")
}

// apply copies the flags the user set onto form.
func (f *eventFlags) apply(cmd *cobra.Command, form *editor.Form, today time.Time) error {
	changed := cmd.Flags().Changed

	if changed("date") {
		d, err := dateutil.ParseRelativeDate(f.date, today)
		if err != nil {
			return err
		}
		form.Date = d
	}
	if changed("start") {
		form.SetStart(f.start)
	}
	if changed("duration") {
		form.SetDuration(f.duration)
	}
	if changed("subject") {
		form.Subject = f.subject
	}
	if changed("topic") {
		form.Topic = f.topic
	}
	if changed("type") {
		typ, err := study.ParseEventType(f.typ)
		if err != nil {
			return err
		}
		form.Type = typ
	}
	if changed("pomodoro") {
		p, err := parsePomodoro(f.pomodoro)
		if err != nil {
			return err
		}
		form.Pomodoro = p
	}
	return nil
}

// parsePomodoro parses "25/5". "off" and "" clear the cadence.
func parsePomodoro(s string) (*study.Pomodoro, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "off" {
		return nil, nil
	}
	work, brk, ok := strings.Cut(s, "/")
	w, werr := strconv.Atoi(strings.TrimSpace(work))
	b, berr := strconv.Atoi(strings.TrimSpace(brk))
	if !ok || werr != nil || berr != nil || w <= 0 || b < 0 {
		return nil, &study.ValidationError{Field: "pomodoro", Message: fmt.Sprintf("expected work/break minutes, got %q", s)}
	}
	return &study.Pomodoro{WorkMinutes: w, BreakMinutes: b}, nil
}

func (a *App) addCmd() *cobra.Command {
	var flags eventFlags

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a study session, quiz or revision",
		Long: `Add a one-off event to your calendar. The end time is derived from
the start and the duration. Without --start the event takes the first
free gap of the study window on its date.`,
		Example: `  athro add "Algebra drill" --subject=Maths --topic=Quadratics --start=16:00 --duration=45
  athro add "Flashcards" --subject=Chemistry --duration=20
  athro add "Mock paper" --subject=Physics --type=quiz --date=tomorrow --start=17:20 --pomodoro=25/5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}

			form := editor.NewForm(a.today())
			form.Title = args[0]
			if err := flags.apply(cmd, &form, a.today()); err != nil {
				return err
			}
			if !cmd.Flags().Changed("start") {
				start, err := a.firstFreeStart(cmd, form)
				if err != nil {
					return err
				}
				form.SetStart(study.FormatClock(study.MinutesOfDay(start)))
			}

			ev, err := a.svc.SaveEvent(contextOf(cmd), a.session(), form)
			if err != nil {
				return fmt.Errorf("creating event: %w", err)
			}

			fmt.Fprintf(a.out, "Created %s %s: %s %s %s-%s\n",
				ev.Type, ev.ID, ev.Title,
				ev.StartTime.Format(time.DateOnly),
				ev.StartTime.Format("15:04"), ev.EndTime.Format("15:04"))
			return nil
		},
	}

	flags.register(cmd, editor.DefaultDurationMinutes)
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

// firstFreeStart picks the earliest free start on the form's day, and not
// before now when that day is today.
func (a *App) firstFreeStart(cmd *cobra.Command, form editor.Form) (time.Time, error) {
	view, err := a.svc.Week(contextOf(cmd), a.session(), form.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading week: %w", err)
	}
	from := form.Date
	if now := a.now().In(a.svc.Location()); dateutil.TruncateToDay(now).Equal(dateutil.TruncateToDay(from)) {
		from = now
	}
	sched := scheduler.New(a.svc.GridConfig())
	start, ok := sched.FirstFit(from, view.All(), form.DurationMinutes)
	if !ok {
		return time.Time{}, fmt.Errorf("no free %d minutes on %s, pass --start", form.DurationMinutes, form.Date.Format("Mon Jan 2"))
	}
	return start, nil
}

func (a *App) editCmd() *cobra.Command {
	var (
		flags eventFlags
		title string
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit an event",
		Long: `Change the fields of an event you added. Only the flags you pass
are changed. Planned sessions (ids starting with "slot-") cannot be
edited; change the slot with "athro slots" instead.`,
		Example: `  athro edit 6f1c... --start=18:00 --duration=60`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}

			ev, err := a.svc.GetEvent(contextOf(cmd), a.session(), args[0])
			if err != nil {
				return err
			}
			form := editor.FromEvent(ev)
			if cmd.Flags().Changed("title") {
				form.Title = title
			}
			if err := flags.apply(cmd, &form, a.today()); err != nil {
				return err
			}

			ev, err = a.svc.SaveEvent(contextOf(cmd), a.session(), form)
			if err != nil {
				return fmt.Errorf("updating event: %w", err)
			}
			fmt.Fprintf(a.out, "Updated %s: %s %s-%s\n", ev.ID, ev.Title,
				ev.StartTime.Format("Mon Jan 2 15:04"), ev.EndTime.Format("15:04"))
			return nil
		},
	}

	flags.register(cmd, editor.DefaultDurationMinutes)
	cmd.Flags().StringVar(&title, "title", "", "Title")
	return cmd
}

func (a *App) moveCmd() *cobra.Command {
	var day, clock string

	cmd := &cobra.Command{
		Use:   "move [id]",
		Short: "Move an event, keeping its duration",
		Long: `Move an event to another day and start time. --day takes a date or a
weekday name of the current week.`,
		Example: `  athro move 6f1c... --day=thursday --time=17:00
  athro move 6f1c... --day=2025-03-14 --time=16:20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}

			date, err := resolveDay(day, a.today())
			if err != nil {
				return err
			}
			mins, err := study.ParseClock(clock)
			if err != nil {
				return &study.ValidationError{Field: "time", Message: err.Error(), Err: err}
			}

			ev, err := a.svc.MoveEventTo(contextOf(cmd), a.session(), args[0], study.AtClock(date, mins))
			if err != nil {
				return fmt.Errorf("moving event: %w", err)
			}
			fmt.Fprintf(a.out, "Moved %s to %s-%s\n", ev.Title,
				ev.StartTime.Format("Mon Jan 2 15:04"), ev.EndTime.Format("15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Target date or weekday (default: today)")
	cmd.Flags().StringVar(&clock, "time", "", "Target start time (HH:MM, required)")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

// resolveDay accepts anything ParseRelativeDate does, plus short weekday
// names ("thu") and ISO numbers, both meaning that day of today's week.
func resolveDay(s string, today time.Time) (time.Time, error) {
	if d, err := dateutil.ParseRelativeDate(s, today); err == nil {
		return d, nil
	}
	iso, err := study.ParseWeekday(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: expected a date or weekday", s)
	}
	return dateutil.WeekOf(today).Day(iso - 1), nil
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an event",
		Long: `Delete an event. Deleting a planned session (id starting with
"slot-") removes the slot it came from, and with it that session in
every week.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}
			id := args[0]
			if err := a.svc.DeleteEvent(contextOf(cmd), a.session(), id); err != nil {
				return fmt.Errorf("deleting event: %w", err)
			}
			if study.IsSyntheticID(id) {
				fmt.Fprintf(a.out, "Deleted the slot behind %s\n", id)
				return nil
			}
			fmt.Fprintf(a.out, "Deleted %s\n", id)
			return nil
		},
	}
}
