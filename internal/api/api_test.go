package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/athro-ai/athro/internal/db"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/recurrence"
	"github.com/athro-ai/athro/internal/study"
)

const testSecret = "test-secret"

// Wednesday 2025-03-12, 12:00 UTC.
var testNow = time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	store.SetLocation(time.UTC)
	t.Cleanup(func() { _ = store.Close() })

	svc := planner.New(store, planner.Options{
		Grid:            grid.DefaultConfig(),
		Expand:          recurrence.DefaultOptions(),
		Location:        time.UTC,
		MaxDailyMinutes: 360,
		Subjects:        []string{"Maths", "Physics"},
	})
	srv, err := New(svc, Options{JWTSecret: testSecret, Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func token(t *testing.T, subject, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return tok
}

func do(t *testing.T, srv *Server, method, path string, body any, tok string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestNew_RequiresSecret(t *testing.T) {
	if _, err := New(nil, Options{}); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/healthz", nil, "")
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("unexpected %d %q", resp.StatusCode, body)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		tok  string
	}{
		{"missing", ""},
		{"wrong secret", token(t, "student-1", "other")},
		{"no subject", token(t, "", testSecret)},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, srv, http.MethodGet, "/api/slots", nil, tt.tok)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestEventLifecycle(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, "student-1", testSecret)

	resp, body := do(t, srv, http.MethodPost, "/api/events", map[string]any{
		"title":            "Algebra drill",
		"subject":          "Maths",
		"topic":            "Quadratics",
		"date":             "2025-03-10",
		"start":            "16:00",
		"duration_minutes": 45,
		"pomodoro":         map[string]int{"work_minutes": 25, "break_minutes": 5},
	}, tok)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.StatusCode, body)
	}
	created := decode[eventDTO](t, body)
	if created.ID == "" || created.Synthetic || created.DurationMinutes != 45 || created.Pomodoro == nil {
		t.Fatalf("unexpected created event %+v", created)
	}

	// Thursday 17:00 of the same week.
	resp, body = do(t, srv, http.MethodPatch, "/api/events/"+created.ID+"/move", map[string]any{
		"week": "2025-03-10", "day": 3, "row": 6,
	}, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move: expected 200, got %d: %s", resp.StatusCode, body)
	}
	moved := decode[eventDTO](t, body)
	if !moved.Start.Equal(time.Date(2025, 3, 13, 17, 0, 0, 0, time.UTC)) || moved.DurationMinutes != 45 {
		t.Errorf("unexpected moved event %+v", moved)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/weeks/2025-03-12", nil, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("week: expected 200, got %d: %s", resp.StatusCode, body)
	}
	week := decode[weekDTO](t, body)
	if len(week.Events) != 1 || len(week.Grid.Rows) != 22 {
		t.Fatalf("unexpected week %+v", week)
	}
	if len(week.Grid.Cells) != 1 || week.Grid.Cells[0].Day != 3 || week.Grid.Cells[0].Row != 6 {
		t.Errorf("unexpected cells %+v", week.Grid.Cells)
	}
	if week.Summary.BySubject["Maths"] != 45 {
		t.Errorf("unexpected summary %+v", week.Summary)
	}

	resp, _ = do(t, srv, http.MethodDelete, "/api/events/"+created.ID, nil, tok)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodDelete, "/api/events/"+created.ID, nil, tok)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, "student-1", testSecret)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing fields", http.MethodPost, "/api/events", map[string]any{"topic": "x"}, http.StatusBadRequest},
		{"bad start", http.MethodPost, "/api/events", map[string]any{
			"title": "t", "subject": "Maths", "date": "2025-03-10", "start": "25:00", "duration_minutes": 30,
		}, http.StatusBadRequest},
		{"unknown subject", http.MethodPost, "/api/events", map[string]any{
			"title": "t", "subject": "Art", "date": "2025-03-10", "start": "16:00", "duration_minutes": 30,
		}, http.StatusBadRequest},
		{"bad week date", http.MethodGet, "/api/weeks/someday", nil, http.StatusBadRequest},
		{"move synthetic", http.MethodPatch, "/api/events/slot-abc/move", map[string]any{"week": "2025-03-10", "day": 1, "row": 1}, http.StatusConflict},
		{"update synthetic", http.MethodPut, "/api/events/slot-abc", map[string]any{"title": "x"}, http.StatusConflict},
		{"move missing", http.MethodPatch, "/api/events/nope/move", map[string]any{"week": "2025-03-10", "day": 1, "row": 1}, http.StatusNotFound},
		{"update missing", http.MethodPut, "/api/events/nope", map[string]any{
			"title": "t", "subject": "Maths", "date": "2025-03-10", "start": "16:00", "duration_minutes": 30,
		}, http.StatusNotFound},
		{"slot out of range", http.MethodPut, "/api/slots", map[string]any{"slots": []map[string]int{
			{"day_of_week": 9, "slot_count": 1, "slot_duration_minutes": 30, "preferred_start_hour": 16},
		}}, http.StatusBadRequest},
		{"over budget", http.MethodPut, "/api/slots", map[string]any{"slots": []map[string]int{
			{"day_of_week": 1, "slot_count": 6, "slot_duration_minutes": 90, "preferred_start_hour": 12},
		}}, http.StatusBadRequest},
		{"export weeks", http.MethodGet, "/api/export.ics?weeks=0", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.method, tt.path, tt.body, tok)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, resp.StatusCode, body)
			}
			if e := decode[errorResponse](t, body); e.Error == "" {
				t.Errorf("expected error message in %s", body)
			}
		})
	}
}

func TestStatusOf_Persistence(t *testing.T) {
	code, body := statusOf(&study.PersistenceError{Op: "load week", Err: errors.New("dial tcp: refused")})
	if code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", code)
	}
	if strings.Contains(body.Error, "dial") {
		t.Errorf("expected storage details hidden, got %q", body.Error)
	}

	code, _ = statusOf(&study.PersistenceError{Op: "delete", Err: db.ErrNotFound})
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for not found, got %d", code)
	}
}

func TestSlotsAndExport(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, "student-1", testSecret)

	resp, body := do(t, srv, http.MethodPut, "/api/slots", map[string]any{"slots": []map[string]int{
		{"day_of_week": 3, "slot_count": 2, "slot_duration_minutes": 30, "preferred_start_hour": 16},
	}}, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put slots: expected 200, got %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/slots", nil, tok)
	slots := decode[struct {
		Slots []slotDTO `json:"slots"`
	}](t, body)
	if resp.StatusCode != http.StatusOK || len(slots.Slots) != 1 || slots.Slots[0].ID == "" {
		t.Fatalf("unexpected slots %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/weeks/today", nil, tok)
	week := decode[weekDTO](t, body)
	if resp.StatusCode != http.StatusOK || len(week.Expanded) != 2 {
		t.Fatalf("expected two expanded sessions, got %d: %s", resp.StatusCode, body)
	}
	if !week.Expanded[0].Synthetic || week.Expanded[1].ID != week.Expanded[0].ID+":2" {
		t.Errorf("unexpected synthetic ids %q, %q", week.Expanded[0].ID, week.Expanded[1].ID)
	}

	resp, body = do(t, srv, http.MethodDelete, "/api/events/"+week.Expanded[0].ID, nil, tok)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete synthetic: expected 204, got %d: %s", resp.StatusCode, body)
	}

	do(t, srv, http.MethodPut, "/api/slots", map[string]any{"slots": []map[string]int{
		{"day_of_week": 1, "slot_count": 1, "slot_duration_minutes": 60, "preferred_start_hour": 18},
	}}, tok)
	resp, body = do(t, srv, http.MethodGet, "/api/export.ics?from=2025-03-10&weeks=2", nil, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type %q", ct)
	}
	if n := strings.Count(string(body), "BEGIN:VEVENT"); n != 2 {
		t.Errorf("expected 2 VEVENTs, got %d", n)
	}
}

func TestPresets(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/api/presets", nil, token(t, "student-1", testSecret))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out := decode[struct {
		Presets []presetDTO `json:"presets"`
	}](t, body)
	if len(out.Presets) != 4 || out.Presets[0].TotalMinutes != 120 {
		t.Errorf("unexpected presets %+v", out.Presets)
	}
}
