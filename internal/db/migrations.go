package db

import "fmt"

// migrate creates the tables if they do not exist. The statements are
// portable between SQLite and Postgres.
func (s *Store) migrate() error {
	statements := []struct {
		name  string
		query string
	}{
		{"calendar_events table", `
			CREATE TABLE IF NOT EXISTS calendar_events (
				id          TEXT PRIMARY KEY,
				student_id  TEXT,
				user_id     TEXT,
				title       TEXT NOT NULL,
				description TEXT,
				event_type  TEXT NOT NULL DEFAULT 'study_session'
				            CHECK(event_type IN ('study_session', 'quiz', 'revision')),
				start_time  TEXT NOT NULL,
				end_time    TEXT NOT NULL,
				created_at  TEXT NOT NULL
			)`},
		{"calendar_events student index", `CREATE INDEX IF NOT EXISTS idx_events_student ON calendar_events(student_id, start_time)`},
		{"calendar_events user index", `CREATE INDEX IF NOT EXISTS idx_events_user ON calendar_events(user_id, start_time)`},
		{"preferred_study_slots table", `
			CREATE TABLE IF NOT EXISTS preferred_study_slots (
				id                    TEXT PRIMARY KEY,
				user_id               TEXT NOT NULL,
				day_of_week           INTEGER NOT NULL CHECK(day_of_week BETWEEN 1 AND 7),
				slot_count            INTEGER NOT NULL CHECK(slot_count > 0),
				slot_duration_minutes INTEGER NOT NULL CHECK(slot_duration_minutes > 0),
				preferred_start_hour  INTEGER NOT NULL CHECK(preferred_start_hour BETWEEN 0 AND 23),
				created_at            TEXT NOT NULL
			)`},
		{"preferred_study_slots user index", `CREATE INDEX IF NOT EXISTS idx_slots_user ON preferred_study_slots(user_id)`},
	}

	for _, st := range statements {
		if _, err := s.db.Exec(st.query); err != nil {
			return fmt.Errorf("creating %s: %w", st.name, err)
		}
	}
	return nil
}
