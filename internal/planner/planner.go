// Package planner composes the persistence adapter, the recurrence
// expander and the grid mapper into week loads and serialized writes.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/config"
	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/editor"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/recurrence"
	"github.com/athro-ai/athro/internal/reschedule"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/summary"
)

// DefaultTimeout bounds every repository call.
const DefaultTimeout = 15 * time.Second

// ErrEventNotFound is returned when a write targets an id the user does
// not own.
var ErrEventNotFound = errors.New("event not found")

// Options configures a Service.
type Options struct {
	Grid            grid.Config
	Expand          recurrence.Options
	Location        *time.Location
	Timeout         time.Duration
	MaxDailyMinutes int
	Subjects        []string
}

// WeekView is everything a renderer needs for one week.
type WeekView struct {
	Start    time.Time
	Slots    []*study.PreferredStudySlot
	Events   []*study.CalendarEvent // persisted
	Expanded []*study.CalendarEvent // slot-derived
	Grid     *grid.Grid
	Summary  *summary.WeekSummary
}

// All returns persisted and slot-derived events together.
func (v *WeekView) All() []*study.CalendarEvent {
	out := make([]*study.CalendarEvent, 0, len(v.Events)+len(v.Expanded))
	out = append(out, v.Events...)
	return append(out, v.Expanded...)
}

// Event returns the event with the given id, persisted or synthetic.
func (v *WeekView) Event(id string) *study.CalendarEvent {
	for _, ev := range v.All() {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

// Service is safe for concurrent use.
type Service struct {
	repo   study.Repository
	opts   Options
	editor *editor.Editor
	engine *reschedule.Engine

	loads  singleflight.Group
	writes keyedMutex

	genMu sync.Mutex
	gens  map[string]uint64

	// OnChange is called after every successful write.
	OnChange func()
}

// New creates a Service over repo.
func New(repo study.Repository, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Grid.IntervalMinutes == 0 {
		opts.Grid = grid.DefaultConfig()
	}
	if opts.Expand.Location == nil {
		opts.Expand.Location = opts.Location
	}
	return &Service{
		repo:   repo,
		opts:   opts,
		editor: editor.New(repo, opts.Subjects),
		engine: reschedule.New(repo, opts.Grid),
		gens:   make(map[string]uint64),
	}
}

// FromConfig creates a Service configured from cfg.
func FromConfig(repo study.Repository, cfg *config.Config) (*Service, error) {
	g, err := cfg.Grid()
	if err != nil {
		return nil, fmt.Errorf("grid config: %w", err)
	}
	return New(repo, Options{
		Grid:            g,
		Expand:          cfg.ExpandOptions(),
		Location:        cfg.Location(),
		Timeout:         cfg.Storage.Timeout(),
		MaxDailyMinutes: cfg.Schedule.MaxDailyMinutes,
		Subjects:        cfg.Schedule.Subjects,
	}), nil
}

// GridConfig returns the grid the service builds.
func (s *Service) GridConfig() grid.Config { return s.opts.Grid }

// Location returns the display location.
func (s *Service) Location() *time.Location { return s.opts.Location }

// Subjects returns the allowed subjects.
func (s *Service) Subjects() []string { return s.opts.Subjects }

// MaxDailyMinutes returns the daily slot budget.
func (s *Service) MaxDailyMinutes() int { return s.opts.MaxDailyMinutes }

// Editor returns the form validator used by SaveEvent.
func (s *Service) Editor() *editor.Editor { return s.editor }

// WeekOf returns the week containing date in the display location.
func (s *Service) WeekOf(date time.Time) dateutil.Week {
	return dateutil.WeekOf(date.In(s.opts.Location))
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.Timeout)
}

// Week loads the week containing date. Concurrent loads of the same user
// and week share one repository call. On failure the returned view is
// empty but usable and err is non-nil.
func (s *Service) Week(ctx context.Context, sess study.Session, date time.Time) (*WeekView, error) {
	week := s.WeekOf(date)
	key := fmt.Sprintf("%s|%d|%s", sess.UserID, s.generation(sess.UserID), week.Start.Format(time.DateOnly))

	v, err, shared := s.loads.Do(key, func() (any, error) {
		// The load outlives a cancelled caller while others wait on it.
		lctx, cancel := s.withTimeout(context.WithoutCancel(ctx))
		defer cancel()
		return s.load(lctx, sess, week)
	})
	if shared {
		applog.Debug("week load shared", "user", sess.UserID, "week", week.Start.Format(time.DateOnly))
	}
	if err != nil {
		return s.emptyView(week), err
	}
	return v.(*WeekView), nil
}

func (s *Service) load(ctx context.Context, sess study.Session, week dateutil.Week) (*WeekView, error) {
	data, err := s.repo.LoadWeek(ctx, sess, week.Start)
	if err != nil {
		return nil, err
	}

	expanded, err := recurrence.ExpandAll(data.Slots, week.Start, s.opts.Expand)
	if err != nil {
		// A bad template drops its sessions, not the week.
		applog.Error("expanding slots", err, "user", sess.UserID)
	}

	view := &WeekView{
		Start:    week.Start,
		Slots:    data.Slots,
		Events:   data.Events,
		Expanded: expanded,
	}
	all := view.All()
	view.Grid = grid.Build(s.opts.Grid, week.Start, all)
	view.Summary = summary.SummarizeWeek(week.Start, all, summary.Options{MaxDailyMinutes: s.opts.MaxDailyMinutes})
	return view, nil
}

func (s *Service) emptyView(week dateutil.Week) *WeekView {
	return &WeekView{
		Start:   week.Start,
		Grid:    grid.Empty(s.opts.Grid, week.Start),
		Summary: summary.SummarizeWeek(week.Start, nil, summary.Options{}),
	}
}

// EventsBetween returns persisted events and slot-derived sessions starting
// in [from, to), ordered by slot then occurrence.
func (s *Service) EventsBetween(ctx context.Context, sess study.Session, from, to time.Time) ([]*study.CalendarEvent, error) {
	tctx, cancel := s.withTimeout(ctx)
	defer cancel()

	events, err := s.repo.ListEventsBetween(tctx, sess, from, to)
	if err != nil {
		return nil, err
	}
	slots, err := s.repo.ListSlots(tctx, sess)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, slot := range slots {
		evs, err := recurrence.ExpandRange(slot, from, to, s.opts.Expand)
		if err != nil {
			errs = append(errs, fmt.Errorf("slot %s: %w", slot.ID, err))
			continue
		}
		events = append(events, evs...)
	}
	if err := errors.Join(errs...); err != nil {
		applog.Error("expanding slots", err, "user", sess.UserID)
	}
	return events, nil
}

// GetEvent returns a persisted event or ErrEventNotFound. Slot-derived ids
// recur every week and are looked up in WeekView.Event instead.
func (s *Service) GetEvent(ctx context.Context, sess study.Session, id string) (*study.CalendarEvent, error) {
	if study.IsSyntheticID(id) {
		return nil, &study.NotPersistableError{Op: "get event", ID: id}
	}
	tctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ev, err := s.repo.GetEvent(tctx, sess, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrEventNotFound)
	}
	return ev, nil
}

// SaveEvent validates the form and inserts or updates its event.
func (s *Service) SaveEvent(ctx context.Context, sess study.Session, f editor.Form) (*study.CalendarEvent, error) {
	if f.IsEdit() {
		defer s.writes.Lock(eventKey(sess, f.ID))()
	}
	tctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ev, err := s.editor.Save(tctx, sess, f)
	if err != nil {
		return nil, err
	}
	s.changed(sess)
	return ev, nil
}

// MoveEvent moves a persisted event onto a cell of the week of weekStart.
func (s *Service) MoveEvent(ctx context.Context, sess study.Session, id string, weekStart time.Time, target grid.Cell) (*study.CalendarEvent, error) {
	return s.move(ctx, sess, id, func(ctx context.Context, ev *study.CalendarEvent) error {
		return s.engine.Move(ctx, sess, ev, s.WeekOf(weekStart).Start, target)
	})
}

// MoveEventTo moves a persisted event to an absolute start.
func (s *Service) MoveEventTo(ctx context.Context, sess study.Session, id string, start time.Time) (*study.CalendarEvent, error) {
	return s.move(ctx, sess, id, func(ctx context.Context, ev *study.CalendarEvent) error {
		return s.engine.MoveTo(ctx, sess, ev, start.In(s.opts.Location))
	})
}

func (s *Service) move(ctx context.Context, sess study.Session, id string, fn func(context.Context, *study.CalendarEvent) error) (*study.CalendarEvent, error) {
	if id == "" || study.IsSyntheticID(id) {
		return nil, &study.NotPersistableError{Op: "reschedule", ID: id}
	}
	defer s.writes.Lock(eventKey(sess, id))()

	ev, err := s.GetEvent(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	tctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := fn(tctx, ev); err != nil {
		return nil, err
	}
	s.changed(sess)
	return ev, nil
}

// DeleteEvent deletes a persisted event, or the slot template a
// slot-derived id was expanded from.
func (s *Service) DeleteEvent(ctx context.Context, sess study.Session, id string) error {
	key := eventKey(sess, id)
	if study.IsSyntheticID(id) {
		key = slotsKey(sess)
	}
	defer s.writes.Lock(key)()

	tctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.editor.Delete(tctx, sess, id); err != nil {
		return err
	}
	s.changed(sess)
	return nil
}

func (s *Service) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[userID]
}

// changed makes later loads miss any load started before the write.
func (s *Service) changed(sess study.Session) {
	s.genMu.Lock()
	s.gens[sess.UserID]++
	s.genMu.Unlock()
	if s.OnChange != nil {
		s.OnChange()
	}
}

func eventKey(sess study.Session, id string) string { return "event|" + sess.UserID + "|" + id }

func slotsKey(sess study.Session) string { return "slots|" + sess.UserID }
