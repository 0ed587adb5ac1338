package integration

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/athro-ai/athro/internal/db"
	"github.com/athro-ai/athro/internal/editor"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/ics"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/recurrence"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/summary"
)

var (
	alice = study.Session{UserID: "alice"}
	bob   = study.Session{UserID: "bob"}
)

// openStore creates a fresh sqlite store for each test with automatic cleanup.
func openStore(t *testing.T, loc *time.Location) *db.Store {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	store.SetLocation(loc)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newService(t *testing.T, store *db.Store, loc *time.Location) *planner.Service {
	t.Helper()
	return planner.New(store, planner.Options{
		Grid:            grid.DefaultConfig(),
		Expand:          recurrence.DefaultOptions(),
		Location:        loc,
		MaxDailyMinutes: 240,
		Subjects:        []string{"Maths", "Physics", "Chemistry"},
	})
}

// mustParseDate parses a date string or fails the test.
func mustParseDate(t *testing.T, s string, loc *time.Location) time.Time {
	t.Helper()
	date, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return date
}

// createEvent saves an event through the editor form.
func createEvent(t *testing.T, svc *planner.Service, sess study.Session, title, subject, date, start string, minutes int) *study.CalendarEvent {
	t.Helper()
	f := editor.NewForm(mustParseDate(t, date, svc.Location()))
	f.Title = title
	f.Subject = subject
	f.SetStart(start)
	f.SetDuration(minutes)
	ev, err := svc.SaveEvent(context.Background(), sess, f)
	if err != nil {
		t.Fatalf("failed to save %q: %v", title, err)
	}
	return ev
}

func TestWeekCombinesEventsAndSlots(t *testing.T) {
	store := openStore(t, time.UTC)
	svc := newService(t, store, time.UTC)
	ctx := context.Background()

	preset, _ := study.PresetByName("2x60")
	if _, err := svc.ApplyPreset(ctx, alice, 1, preset, 16); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	quiz := createEvent(t, svc, alice, "Mock paper", "Physics", "2025-03-12", "18:00", 45)

	view, err := svc.Week(ctx, alice, mustParseDate(t, "2025-03-13", time.UTC))
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if len(view.Events) != 1 || len(view.Expanded) != 2 {
		t.Fatalf("got %d events and %d planned sessions, want 1 and 2", len(view.Events), len(view.Expanded))
	}

	// Monday 16:00 and 17:00 at 20 minute rows.
	for i, row := range []int{3, 6} {
		evs := view.Grid.Cell(row, 0)
		if len(evs) != 1 || !evs[0].IsSynthetic() {
			t.Errorf("planned session %d: cell(row %d, Mon) = %v", i+1, row, evs)
		}
	}
	if cell, ok := view.Grid.Find(quiz.ID); !ok || cell != (grid.Cell{Day: 2, Row: 9}) {
		t.Errorf("quiz placed at %v (found %t), want Wed/row 9", cell, ok)
	}
	if view.Summary.TotalMinutes != 165 || view.Summary.BySubject["Physics"] != 45 {
		t.Errorf("summary = %+v", view.Summary)
	}

	// The following week has the slot sessions only.
	next, err := svc.Week(ctx, alice, mustParseDate(t, "2025-03-17", time.UTC))
	if err != nil {
		t.Fatalf("Week(next): %v", err)
	}
	if len(next.Events) != 0 || len(next.Expanded) != 2 {
		t.Errorf("next week: %d events %d planned, want 0 and 2", len(next.Events), len(next.Expanded))
	}
}

func TestUsersAreIsolated(t *testing.T) {
	store := openStore(t, time.UTC)
	svc := newService(t, store, time.UTC)
	ctx := context.Background()

	ev := createEvent(t, svc, alice, "Titration", "Chemistry", "2025-03-11", "16:00", 30)
	preset, _ := study.PresetByName("1x120")
	if _, err := svc.ApplyPreset(ctx, alice, 2, preset, 17); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}

	view, err := svc.Week(ctx, bob, ev.StartTime)
	if err != nil {
		t.Fatalf("Week(bob): %v", err)
	}
	if len(view.All()) != 0 {
		t.Errorf("bob sees %d of alice's events", len(view.All()))
	}

	if _, err := svc.GetEvent(ctx, bob, ev.ID); !errors.Is(err, planner.ErrEventNotFound) {
		t.Errorf("GetEvent(bob) err = %v, want ErrEventNotFound", err)
	}
	if _, err := svc.MoveEventTo(ctx, bob, ev.ID, ev.StartTime.Add(time.Hour)); !errors.Is(err, planner.ErrEventNotFound) {
		t.Errorf("MoveEventTo(bob) err = %v, want ErrEventNotFound", err)
	}
	if err := svc.DeleteEvent(ctx, bob, ev.ID); err == nil {
		t.Error("DeleteEvent(bob) should fail")
	}

	got, err := svc.GetEvent(ctx, alice, ev.ID)
	if err != nil || !got.StartTime.Equal(ev.StartTime) {
		t.Errorf("alice's event changed: %+v, %v", got, err)
	}
}

func TestMoveAcrossWeeksKeepsDuration(t *testing.T) {
	store := openStore(t, time.UTC)
	svc := newService(t, store, time.UTC)
	ctx := context.Background()

	ev := createEvent(t, svc, alice, "Vectors", "Maths", "2025-03-14", "19:00", 90)
	nextWeek := mustParseDate(t, "2025-03-17", time.UTC)

	moved, err := svc.MoveEvent(ctx, alice, ev.ID, nextWeek, grid.Cell{Day: 1, Row: 0})
	if err != nil {
		t.Fatalf("MoveEvent: %v", err)
	}
	wantStart := time.Date(2025, 3, 18, 15, 0, 0, 0, time.UTC)
	if !moved.StartTime.Equal(wantStart) || moved.DurationMinutes() != 90 {
		t.Errorf("moved to %v for %d minutes, want %v for 90", moved.StartTime, moved.DurationMinutes(), wantStart)
	}

	old, _ := svc.Week(ctx, alice, ev.StartTime)
	if len(old.Events) != 0 {
		t.Error("event still shown in its old week")
	}
	cur, _ := svc.Week(ctx, alice, nextWeek)
	if _, ok := cur.Grid.Find(ev.ID); !ok {
		t.Error("event missing from its new week")
	}

	if _, err := svc.MoveEvent(ctx, alice, ev.ID, nextWeek, grid.Cell{Day: 7, Row: 0}); !errors.Is(err, grid.ErrCellOutOfRange) {
		t.Errorf("out of range move err = %v", err)
	}
}

func TestPlannedSessionsAreNotPersistable(t *testing.T) {
	store := openStore(t, time.UTC)
	svc := newService(t, store, time.UTC)
	ctx := context.Background()

	preset, _ := study.PresetByName("4x30")
	if _, err := svc.ApplyPreset(ctx, alice, 3, preset, 16); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	view, err := svc.Week(ctx, alice, mustParseDate(t, "2025-03-12", time.UTC))
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if len(view.Expanded) != 4 {
		t.Fatalf("got %d planned sessions, want 4", len(view.Expanded))
	}
	synthetic := view.Expanded[1]

	var notPersistable *study.NotPersistableError
	if _, err := svc.MoveEventTo(ctx, alice, synthetic.ID, synthetic.StartTime.Add(time.Hour)); !errors.As(err, &notPersistable) {
		t.Errorf("moving a planned session: err = %v, want NotPersistableError", err)
	}

	f := editor.FromEvent(synthetic)
	f.Subject = "Maths"
	if _, err := svc.SaveEvent(ctx, alice, f); err == nil {
		t.Error("saving a planned session should fail")
	}

	// Deleting any of its sessions removes the template.
	if err := svc.DeleteEvent(ctx, alice, synthetic.ID); err != nil {
		t.Fatalf("DeleteEvent(%s): %v", synthetic.ID, err)
	}
	slots, err := svc.Slots(ctx, alice)
	if err != nil || len(slots) != 0 {
		t.Errorf("slots after delete = %v, %v", slots, err)
	}
}

func TestDailyBudget(t *testing.T) {
	store := openStore(t, time.UTC)
	svc := newService(t, store, time.UTC)
	ctx := context.Background()

	preset, _ := study.PresetByName("1x120")
	if _, err := svc.ApplyPreset(ctx, alice, 5, preset, 15); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}

	over := []*study.PreferredStudySlot{
		{UserID: alice.UserID, DayOfWeek: 5, SlotCount: 2, SlotDurationMinutes: 90, PreferredStartHour: 15},
		{UserID: alice.UserID, DayOfWeek: 5, SlotCount: 1, SlotDurationMinutes: 90, PreferredStartHour: 19},
	}
	if _, err := svc.ReplaceSlots(ctx, alice, over); !errors.Is(err, study.ErrDailyBudget) {
		t.Errorf("ReplaceSlots over budget err = %v, want ErrDailyBudget", err)
	}

	// The rejected write leaves the previous slots in place.
	slots, err := svc.Slots(ctx, alice)
	if err != nil || len(slots) != 1 || slots[0].SlotDurationMinutes != 120 {
		t.Errorf("slots after rejected write = %v, %v", slots, err)
	}
}

func TestSummaryAndExport(t *testing.T) {
	store := openStore(t, time.UTC)
	svc := newService(t, store, time.UTC)
	ctx := context.Background()

	createEvent(t, svc, alice, "Organic", "Chemistry", "2025-03-10", "17:00", 60)
	createEvent(t, svc, alice, "Kinematics", "Physics", "2025-03-11", "17:00", 45)
	preset, _ := study.PresetByName("6x20")
	if _, err := svc.ApplyPreset(ctx, alice, 6, preset, 15); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}

	monday := mustParseDate(t, "2025-03-10", time.UTC)
	sum, err := summary.BuildWeekSummary(ctx, store, alice, summary.BuildOptions{
		WeekStart:       monday,
		Expand:          recurrence.DefaultOptions(),
		MaxDailyMinutes: 100,
	})
	if err != nil {
		t.Fatalf("BuildWeekSummary: %v", err)
	}
	if sum.TotalMinutes != 225 || sum.Sessions != 8 {
		t.Errorf("total %d over %d sessions, want 225 over 8", sum.TotalMinutes, sum.Sessions)
	}
	if len(sum.OverBudget) != 1 || sum.OverBudget[0] != 6 {
		t.Errorf("OverBudget = %v, want [6]", sum.OverBudget)
	}

	events, err := svc.EventsBetween(ctx, alice, monday, monday.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("EventsBetween: %v", err)
	}
	doc := ics.String(events, monday)
	if n := strings.Count(doc, "BEGIN:VEVENT"); n != 14 {
		t.Errorf("exported %d VEVENTs, want 14", n)
	}
	if !strings.Contains(doc, "SUMMARY:Organic") {
		t.Error("export missing persisted event")
	}
}

func TestConcurrentMovesAreSerialized(t *testing.T) {
	store := openStore(t, time.UTC)
	svc := newService(t, store, time.UTC)
	ctx := context.Background()

	ev := createEvent(t, svc, alice, "Integration", "Maths", "2025-03-10", "15:00", 40)
	monday := mustParseDate(t, "2025-03-10", time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, grid.DaysPerWeek)
	for day := range grid.DaysPerWeek {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.MoveEvent(ctx, alice, ev.ID, monday, grid.Cell{Day: day, Row: 2}); err != nil {
				errs <- fmt.Errorf("day %d: %w", day, err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	got, err := svc.GetEvent(ctx, alice, ev.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	// Whichever move ran last, the event is whole and on row 2.
	if got.DurationMinutes() != 40 || study.MinutesOfDay(got.StartTime) != 15*60+40 {
		t.Errorf("event after concurrent moves: %v-%v", got.StartTime, got.EndTime)
	}
}
