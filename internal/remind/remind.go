// Package remind announces study sessions shortly before they start, on a
// cron schedule.
package remind

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/study"
)

// Defaults.
const (
	DefaultSpec        = "*/5 * * * *"
	DefaultLeadMinutes = 10
)

// Source lists persisted and slot-derived events in a range.
type Source interface {
	EventsBetween(ctx context.Context, sess study.Session, from, to time.Time) ([]*study.CalendarEvent, error)
}

// Notifier delivers one reminder.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// Reminder is one upcoming event.
type Reminder struct {
	Event *study.CalendarEvent
	In    time.Duration
}

// String renders the reminder as a single line.
func (r Reminder) String() string {
	ev := r.Event
	line := fmt.Sprintf("%s %s starts in %d min", ev.StartTime.Format("15:04"), ev.Title, int(r.In.Round(time.Minute).Minutes()))
	if ev.Subject != "" && ev.Subject != ev.Title {
		line += " (" + ev.Subject + ")"
	}
	return line
}

// WriterNotifier prints reminders to W.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (n WriterNotifier) Notify(_ context.Context, r Reminder) error {
	_, err := fmt.Fprintln(n.W, r.String())
	return err
}

// Options configures a Runner.
type Options struct {
	Spec    string        // standard 5-field cron expression
	Lead    time.Duration // how far ahead to look
	Timeout time.Duration // per check
}

// Runner checks for upcoming events and notifies each one once.
type Runner struct {
	src    Source
	notify Notifier
	sess   study.Session
	opts   Options

	mu   sync.Mutex
	sent map[string]time.Time // event id -> start already announced

	now func() time.Time
}

// New creates a Runner. The cron spec is validated here.
func New(src Source, notify Notifier, sess study.Session, opts Options) (*Runner, error) {
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.Lead <= 0 {
		opts.Lead = DefaultLeadMinutes * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if _, err := cron.ParseStandard(opts.Spec); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", opts.Spec, err)
	}
	return &Runner{
		src:    src,
		notify: notify,
		sess:   sess,
		opts:   opts,
		sent:   make(map[string]time.Time),
		now:    time.Now,
	}, nil
}

// Check notifies every event starting within the lead time that has not
// been announced yet. It returns how many reminders went out.
func (r *Runner) Check(ctx context.Context) (int, error) {
	now := r.now()
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	events, err := r.src.EventsBetween(ctx, r.sess, now, now.Add(r.opts.Lead))
	if err != nil {
		return 0, fmt.Errorf("listing upcoming events: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, start := range r.sent {
		if start.Before(now) {
			delete(r.sent, id)
		}
	}

	n := 0
	for _, ev := range events {
		if start, ok := r.sent[ev.ID]; ok && start.Equal(ev.StartTime) {
			continue
		}
		if err := r.notify.Notify(ctx, Reminder{Event: ev, In: ev.StartTime.Sub(now)}); err != nil {
			return n, fmt.Errorf("notifying %s: %w", ev.ID, err)
		}
		r.sent[ev.ID] = ev.StartTime
		n++
	}
	return n, nil
}

// Run checks on the cron schedule until ctx is cancelled. Overlapping
// checks are skipped.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(r.opts.Spec, func() {
		n, err := r.Check(ctx)
		if err != nil {
			applog.Error("reminder check failed", err, "user", r.sess.UserID)
			return
		}
		applog.Debug("reminder check", "user", r.sess.UserID, "sent", n)
	}); err != nil {
		return fmt.Errorf("scheduling reminders: %w", err)
	}

	applog.Info("reminders started", "schedule", r.opts.Spec, "lead", r.opts.Lead.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
