package reschedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/study"
)

type update struct {
	id         string
	start, end time.Time
}

type fakeStore struct {
	updates []update
	err     error
}

func (f *fakeStore) UpdateEventTimes(_ context.Context, _ study.Session, id string, start, end time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, update{id, start, end})
	return nil
}

var (
	monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	sess   = study.Session{UserID: "user-1"}
)

func wednesdayEvent(id string) *study.CalendarEvent {
	return &study.CalendarEvent{
		ID:        id,
		Title:     "Algebra",
		Type:      study.TypeStudySession,
		StartTime: time.Date(2024, 6, 5, 16, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 5, 16, 30, 0, 0, time.UTC),
	}
}

func TestCompute_ThursdayScenario(t *testing.T) {
	ev := wednesdayEvent("e1")
	// Thursday is column 3; 17:00 is row 6 of the default grid.
	start, end, err := Compute(ev, monday, grid.Cell{Day: 3, Row: 6}, grid.DefaultConfig())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !start.Equal(time.Date(2024, 6, 6, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("start: got %v", start)
	}
	if !end.Equal(time.Date(2024, 6, 6, 17, 30, 0, 0, time.UTC)) {
		t.Errorf("end: got %v", end)
	}
}

func TestCompute_PreservesDuration(t *testing.T) {
	cfg := grid.DefaultConfig()
	for _, minutes := range []int{1, 20, 37, 90, 240} {
		ev := wednesdayEvent("e1")
		ev.EndTime = ev.StartTime.Add(time.Duration(minutes) * time.Minute)
		for day := 0; day < grid.DaysPerWeek; day++ {
			for row := 0; row < cfg.Rows(); row++ {
				start, end, err := Compute(ev, monday, grid.Cell{Day: day, Row: row}, cfg)
				if err != nil {
					t.Fatalf("Compute(%d,%d) failed: %v", day, row, err)
				}
				if end.Sub(start) != ev.Duration() {
					t.Fatalf("duration changed: %v != %v", end.Sub(start), ev.Duration())
				}
				want, _ := cfg.CellTime(monday, grid.Cell{Day: day, Row: row})
				if !start.Equal(want) {
					t.Fatalf("start %v != cell time %v", start, want)
				}
			}
		}
	}
}

func TestCompute_OutOfGrid(t *testing.T) {
	_, _, err := Compute(wednesdayEvent("e1"), monday, grid.Cell{Day: 7, Row: 0}, grid.DefaultConfig())
	var ve *study.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, grid.ErrCellOutOfRange) {
		t.Error("expected the cause to be ErrCellOutOfRange")
	}
}

func TestEngine_Move(t *testing.T) {
	store := &fakeStore{}
	eng := New(store, grid.DefaultConfig())
	ev := wednesdayEvent("e1")

	if err := eng.Move(context.Background(), sess, ev, monday, grid.Cell{Day: 3, Row: 6}); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if len(store.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(store.updates))
	}
	u := store.updates[0]
	if u.id != "e1" || !u.start.Equal(time.Date(2024, 6, 6, 17, 0, 0, 0, time.UTC)) || u.end.Sub(u.start) != 30*time.Minute {
		t.Errorf("unexpected update %+v", u)
	}
	if !ev.StartTime.Equal(u.start) {
		t.Error("event should carry the new start after a confirmed write")
	}
}

func TestEngine_MoveRejectsUnpersisted(t *testing.T) {
	for _, id := range []string{"", "slot-abc", "slot-abc:2"} {
		store := &fakeStore{}
		eng := New(store, grid.DefaultConfig())
		err := eng.Move(context.Background(), sess, wednesdayEvent(id), monday, grid.Cell{Day: 3, Row: 6})
		var npe *study.NotPersistableError
		if !errors.As(err, &npe) {
			t.Errorf("id %q: expected NotPersistableError, got %v", id, err)
		}
		if len(store.updates) != 0 {
			t.Errorf("id %q: nothing should be written", id)
		}
	}
}

func TestEngine_MoveLeavesEventOnStoreError(t *testing.T) {
	boom := &study.PersistenceError{Op: "update event times", Err: errors.New("timeout")}
	eng := New(&fakeStore{err: boom}, grid.DefaultConfig())
	ev := wednesdayEvent("e1")
	orig := ev.StartTime

	err := eng.Move(context.Background(), sess, ev, monday, grid.Cell{Day: 3, Row: 6})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !ev.StartTime.Equal(orig) {
		t.Error("event must not change when the write fails")
	}
}

func TestEngine_MoveTo(t *testing.T) {
	store := &fakeStore{}
	eng := New(store, grid.DefaultConfig())
	ev := wednesdayEvent("e1")
	target := time.Date(2024, 6, 8, 9, 15, 0, 0, time.UTC)

	if err := eng.MoveTo(context.Background(), sess, ev, target); err != nil {
		t.Fatalf("MoveTo failed: %v", err)
	}
	if !store.updates[0].end.Equal(target.Add(30 * time.Minute)) {
		t.Errorf("end: got %v", store.updates[0].end)
	}

	var ve *study.ValidationError
	if err := eng.MoveTo(context.Background(), sess, ev, time.Time{}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for zero start, got %v", err)
	}
}
