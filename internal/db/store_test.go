package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/athro-ai/athro/internal/config"
	"github.com/athro-ai/athro/internal/study"
)

var testSession = study.Session{UserID: "student-1"}

func newTestRepo(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	store.SetLocation(time.UTC)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustEvent(t *testing.T, title string, start time.Time, minutes int) *study.CalendarEvent {
	t.Helper()
	ev, err := study.NewEvent(title, "Maths", "Algebra", study.TypeStudySession, start, start.Add(time.Duration(minutes)*time.Minute))
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	return ev
}

func TestInsertEvent_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start := time.Date(2025, 3, 13, 17, 0, 0, 0, time.UTC)
	ev := mustEvent(t, "Maths practice", start, 45)
	ev.Pomodoro = &study.Pomodoro{WorkMinutes: 25, BreakMinutes: 5}

	if err := repo.InsertEvent(ctx, testSession, ev); err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("expected ID to be set after insert")
	}
	if ev.UserID != testSession.UserID {
		t.Errorf("expected user %s, got %s", testSession.UserID, ev.UserID)
	}

	got, err := repo.GetEvent(ctx, testSession, ev.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected event, got nil")
	}
	if got.Title != "Maths practice" || got.Subject != "Maths" || got.Topic != "Algebra" {
		t.Errorf("unexpected event fields: %+v", got)
	}
	if !got.StartTime.Equal(start) || got.DurationMinutes() != 45 {
		t.Errorf("unexpected times: %v - %v", got.StartTime, got.EndTime)
	}
	if got.Pomodoro == nil || got.Pomodoro.WorkMinutes != 25 || got.Pomodoro.BreakMinutes != 5 {
		t.Errorf("expected pomodoro 25/5, got %+v", got.Pomodoro)
	}
	if got.Type != study.TypeStudySession {
		t.Errorf("expected study_session, got %s", got.Type)
	}
}

func TestInsertEvent_RejectsSyntheticID(t *testing.T) {
	repo := newTestRepo(t)

	ev := mustEvent(t, "Study session", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC), 30)
	ev.ID = "slot-abc"

	err := repo.InsertEvent(context.Background(), testSession, ev)
	var ve *study.ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, study.ErrReservedID) {
		t.Fatalf("expected reserved id validation error, got %v", err)
	}
}

func TestInsertEvent_NoSession(t *testing.T) {
	repo := newTestRepo(t)

	ev := mustEvent(t, "Study session", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC), 30)
	err := repo.InsertEvent(context.Background(), study.Session{}, ev)
	var ve *study.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for empty session, got %v", err)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetEvent(context.Background(), testSession, "missing")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestGetEvent_OtherUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev := mustEvent(t, "Physics", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC), 30)
	if err := repo.InsertEvent(ctx, testSession, ev); err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}

	got, err := repo.GetEvent(ctx, study.Session{UserID: "someone-else"}, ev.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got != nil {
		t.Error("expected event of another user to be invisible")
	}
}

func TestDescriptionFallback(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		description any
		wantSubject string
	}{
		{"malformed json", "{not json", "Revision"},
		{"plain text", "remember flashcards", "Revision"},
		{"null", nil, "Revision"},
		{"empty", "", "Revision"},
		{"json object", `{"subject":"History","topic":"Tudors","isPomodoro":false}`, "History"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := "raw-" + string(rune('a'+i))
			_, err := repo.db.ExecContext(ctx, `
				INSERT INTO calendar_events (id, student_id, user_id, title, description, event_type, start_time, end_time, created_at)
				VALUES (?, ?, ?, 'Revision', ?, 'revision', '2025-03-11T16:00:00Z', '2025-03-11T16:30:00Z', '2025-03-01T00:00:00Z')`,
				id, testSession.UserID, testSession.UserID, tt.description)
			if err != nil {
				t.Fatalf("raw insert failed: %v", err)
			}

			got, err := repo.GetEvent(ctx, testSession, id)
			if err != nil {
				t.Fatalf("GetEvent failed: %v", err)
			}
			if got.Subject != tt.wantSubject {
				t.Errorf("expected subject %q, got %q", tt.wantSubject, got.Subject)
			}
			if got.Pomodoro != nil {
				t.Errorf("expected no pomodoro, got %+v", got.Pomodoro)
			}
		})
	}
}

func TestListEventsBetween_StudentIDOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO calendar_events (id, student_id, title, description, event_type, start_time, end_time, created_at)
		VALUES ('legacy-1', ?, 'Quiz', '{"subject":"Biology","topic":"Cells","isPomodoro":false}', 'quiz',
		        '2025-03-12T18:00:00Z', '2025-03-12T18:20:00Z', '2025-03-01T00:00:00Z')`,
		testSession.UserID)
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	events, err := repo.ListEventsBetween(ctx, testSession,
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListEventsBetween failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].UserID != testSession.UserID || events[0].Type != study.TypeQuiz {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestLoadWeek_Boundaries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	weekStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	starts := []struct {
		title string
		at    time.Time
	}{
		{"before", weekStart.Add(-time.Minute)},
		{"first instant", weekStart},
		{"sunday night", weekStart.AddDate(0, 0, 7).Add(-time.Minute)},
		{"next monday", weekStart.AddDate(0, 0, 7)},
	}
	for _, s := range starts {
		if err := repo.InsertEvent(ctx, testSession, mustEvent(t, s.title, s.at, 1)); err != nil {
			t.Fatalf("InsertEvent failed: %v", err)
		}
	}

	// A mid-week instant loads the same week.
	data, err := repo.LoadWeek(ctx, testSession, weekStart.AddDate(0, 0, 3).Add(15*time.Hour))
	if err != nil {
		t.Fatalf("LoadWeek failed: %v", err)
	}
	if len(data.Events) != 2 {
		t.Fatalf("expected 2 events in week, got %d", len(data.Events))
	}
	if data.Events[0].Title != "first instant" || data.Events[1].Title != "sunday night" {
		t.Errorf("unexpected events: %s, %s", data.Events[0].Title, data.Events[1].Title)
	}
	if len(data.Slots) != 0 {
		t.Errorf("expected no slots, got %d", len(data.Slots))
	}
}

func TestUpdateEvent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev := mustEvent(t, "Chemistry", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC), 30)
	if err := repo.InsertEvent(ctx, testSession, ev); err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}

	ev.Title = "Chemistry quiz"
	ev.Type = study.TypeQuiz
	ev.Topic = "Bonding"
	if err := repo.UpdateEvent(ctx, testSession, ev); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}

	got, _ := repo.GetEvent(ctx, testSession, ev.ID)
	if got.Title != "Chemistry quiz" || got.Type != study.TypeQuiz || got.Topic != "Bonding" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateEventTimes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev := mustEvent(t, "English", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC), 30)
	if err := repo.InsertEvent(ctx, testSession, ev); err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}

	newStart := time.Date(2025, 3, 13, 17, 0, 0, 0, time.UTC)
	if err := repo.UpdateEventTimes(ctx, testSession, ev.ID, newStart, newStart.Add(30*time.Minute)); err != nil {
		t.Fatalf("UpdateEventTimes failed: %v", err)
	}

	got, _ := repo.GetEvent(ctx, testSession, ev.ID)
	if !got.StartTime.Equal(newStart) || got.DurationMinutes() != 30 {
		t.Errorf("unexpected times %v - %v", got.StartTime, got.EndTime)
	}
	if got.Subject != "Maths" {
		t.Errorf("expected description untouched, got subject %q", got.Subject)
	}
}

func TestMutations_NotPersisted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		run  func() error
	}{
		{"update synthetic", func() error {
			ev := mustEvent(t, "Study session", at, 30)
			ev.ID = "slot-1"
			return repo.UpdateEvent(ctx, testSession, ev)
		}},
		{"update empty id", func() error {
			return repo.UpdateEvent(ctx, testSession, mustEvent(t, "Study session", at, 30))
		}},
		{"move synthetic", func() error {
			return repo.UpdateEventTimes(ctx, testSession, "slot-1:2", at, at.Add(time.Hour))
		}},
		{"delete synthetic", func() error {
			return repo.DeleteEvent(ctx, testSession, "slot-1")
		}},
		{"delete empty id", func() error {
			return repo.DeleteEvent(ctx, testSession, "")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var npe *study.NotPersistableError
			if err := tt.run(); !errors.As(err, &npe) {
				t.Errorf("expected NotPersistableError, got %v", err)
			}
		})
	}
}

func TestMutations_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)

	errs := map[string]error{
		"update": func() error {
			ev := mustEvent(t, "Gone", at, 30)
			ev.ID = "missing"
			return repo.UpdateEvent(ctx, testSession, ev)
		}(),
		"update times": repo.UpdateEventTimes(ctx, testSession, "missing", at, at.Add(time.Hour)),
		"delete":       repo.DeleteEvent(ctx, testSession, "missing"),
		"delete slot":  repo.DeleteSlot(ctx, testSession, "missing"),
	}

	for name, err := range errs {
		var pe *study.PersistenceError
		if !errors.As(err, &pe) || !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected not-found persistence error, got %v", name, err)
		}
	}
}

func TestDeleteEvent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ev := mustEvent(t, "Geography", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC), 30)
	if err := repo.InsertEvent(ctx, testSession, ev); err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}
	if err := repo.DeleteEvent(ctx, testSession, ev.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if got, _ := repo.GetEvent(ctx, testSession, ev.ID); got != nil {
		t.Error("expected event to be deleted")
	}
}

func TestReplaceAllSlots_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	input := []*study.PreferredStudySlot{
		{DayOfWeek: 3, SlotCount: 2, SlotDurationMinutes: 30, PreferredStartHour: 16},
		{DayOfWeek: 1, SlotCount: 1, SlotDurationMinutes: 45, PreferredStartHour: 17},
	}

	for round := 1; round <= 2; round++ {
		saved, err := repo.ReplaceAllSlots(ctx, testSession, input)
		if err != nil {
			t.Fatalf("round %d: ReplaceAllSlots failed: %v", round, err)
		}
		if len(saved) != 2 {
			t.Fatalf("round %d: expected 2 saved slots, got %d", round, len(saved))
		}
		if saved[0].ID == "" || saved[0].UserID != testSession.UserID {
			t.Errorf("round %d: expected id and user to be set, got %+v", round, saved[0])
		}
	}

	slots, err := repo.ListSlots(ctx, testSession)
	if err != nil {
		t.Fatalf("ListSlots failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots after two saves, got %d", len(slots))
	}
	if slots[0].DayOfWeek != 1 || slots[1].DayOfWeek != 3 {
		t.Errorf("expected slots ordered by day, got %d, %d", slots[0].DayOfWeek, slots[1].DayOfWeek)
	}
	if slots[1].SlotCount != 2 || slots[1].SlotDurationMinutes != 30 || slots[1].PreferredStartHour != 16 {
		t.Errorf("unexpected slot %+v", slots[1])
	}
	if input[0].ID != "" {
		t.Error("expected input slots to be left untouched")
	}
}

func TestReplaceAllSlots_InvalidKeepsExisting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.ReplaceAllSlots(ctx, testSession, []*study.PreferredStudySlot{
		{DayOfWeek: 2, SlotCount: 1, SlotDurationMinutes: 60, PreferredStartHour: 18},
	}); err != nil {
		t.Fatalf("ReplaceAllSlots failed: %v", err)
	}

	_, err := repo.ReplaceAllSlots(ctx, testSession, []*study.PreferredStudySlot{
		{DayOfWeek: 8, SlotCount: 1, SlotDurationMinutes: 60, PreferredStartHour: 18},
	})
	var ve *study.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}

	slots, _ := repo.ListSlots(ctx, testSession)
	if len(slots) != 1 || slots[0].DayOfWeek != 2 {
		t.Errorf("expected previous slots to survive, got %+v", slots)
	}
}

func TestReplaceAllSlots_Empty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.ReplaceAllSlots(ctx, testSession, []*study.PreferredStudySlot{
		{DayOfWeek: 5, SlotCount: 1, SlotDurationMinutes: 20, PreferredStartHour: 15},
	}); err != nil {
		t.Fatalf("ReplaceAllSlots failed: %v", err)
	}
	if _, err := repo.ReplaceAllSlots(ctx, testSession, nil); err != nil {
		t.Fatalf("ReplaceAllSlots(nil) failed: %v", err)
	}

	slots, _ := repo.ListSlots(ctx, testSession)
	if len(slots) != 0 {
		t.Errorf("expected no slots, got %d", len(slots))
	}
}

func TestDeleteSlot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.ReplaceAllSlots(ctx, testSession, []*study.PreferredStudySlot{
		{DayOfWeek: 4, SlotCount: 1, SlotDurationMinutes: 30, PreferredStartHour: 17},
		{DayOfWeek: 6, SlotCount: 1, SlotDurationMinutes: 30, PreferredStartHour: 17},
	})
	if err != nil {
		t.Fatalf("ReplaceAllSlots failed: %v", err)
	}

	if err := repo.DeleteSlot(ctx, testSession, saved[0].ID); err != nil {
		t.Fatalf("DeleteSlot failed: %v", err)
	}
	slots, _ := repo.ListSlots(ctx, testSession)
	if len(slots) != 1 || slots[0].ID != saved[1].ID {
		t.Errorf("expected only second slot left, got %+v", slots)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(storageConfig("mysql", "")); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/a.db", "/tmp/a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"file:a.db?mode=rwc", "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.path); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func storageConfig(driver, path string) config.StorageConfig {
	return config.StorageConfig{Driver: driver, DBPath: path}
}
