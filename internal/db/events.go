package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/study"
)

// eventRow mirrors a calendar_events row.
type eventRow struct {
	ID          string         `db:"id"`
	StudentID   sql.NullString `db:"student_id"`
	UserID      sql.NullString `db:"user_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	EventType   string         `db:"event_type"`
	StartTime   string         `db:"start_time"`
	EndTime     string         `db:"end_time"`
	CreatedAt   string         `db:"created_at"`
}

const eventColumns = `id, student_id, user_id, title, description, event_type, start_time, end_time, created_at`

// ownerClause matches rows of a user under either owner column.
const ownerClause = `(student_id = ? OR user_id = ?)`

func (s *Store) toEvent(r eventRow) (*study.CalendarEvent, error) {
	start, err := s.parseTime(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time of %s: %w", r.ID, err)
	}
	end, err := s.parseTime(r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parsing end_time of %s: %w", r.ID, err)
	}

	ev := &study.CalendarEvent{
		ID:        r.ID,
		Title:     r.Title,
		StartTime: start,
		EndTime:   end,
		Type:      study.EventType(r.EventType),
	}
	switch {
	case r.UserID.Valid && r.UserID.String != "":
		ev.UserID = r.UserID.String
	case r.StudentID.Valid:
		ev.UserID = r.StudentID.String
	}
	if !ev.Type.Valid() {
		applog.Debug("unknown event type, using study_session", "id", r.ID, "event_type", r.EventType)
		ev.Type = study.TypeStudySession
	}

	meta, err := study.DecodeDescription(r.Description.String, r.Title)
	if err != nil {
		applog.Debug("description fallback to title", "id", r.ID, "err", err)
	}
	ev.ApplyMetadata(meta)
	return ev, nil
}

func (s *Store) toRow(ev *study.CalendarEvent, userID string) (eventRow, error) {
	desc, err := study.EncodeDescription(ev.Metadata())
	if err != nil {
		return eventRow{}, fmt.Errorf("encoding description: %w", err)
	}
	typ := ev.Type
	if typ == "" {
		typ = study.TypeStudySession
	}
	return eventRow{
		ID:          ev.ID,
		StudentID:   sql.NullString{String: userID, Valid: true},
		UserID:      sql.NullString{String: userID, Valid: true},
		Title:       ev.Title,
		Description: sql.NullString{String: desc, Valid: true},
		EventType:   string(typ),
		StartTime:   formatTime(ev.StartTime),
		EndTime:     formatTime(ev.EndTime),
		CreatedAt:   formatTime(time.Now()),
	}, nil
}

// ListEventsBetween returns the user's events starting in [from, to),
// ordered by start time.
func (s *Store) ListEventsBetween(ctx context.Context, sess study.Session, from, to time.Time) ([]*study.CalendarEvent, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	query := s.db.Rebind(`
		SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE ` + ownerClause + ` AND start_time >= ? AND start_time < ?
		ORDER BY start_time, id
	`)

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, sess.UserID, sess.UserID, formatTime(from), formatTime(to)); err != nil {
		return nil, fail("list events", err)
	}

	events := make([]*study.CalendarEvent, 0, len(rows))
	for _, r := range rows {
		ev, err := s.toEvent(r)
		if err != nil {
			return nil, fail("list events", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// GetEvent retrieves an event by id. Returns nil if not found.
func (s *Store) GetEvent(ctx context.Context, sess study.Session, id string) (*study.CalendarEvent, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	query := s.db.Rebind(`SELECT ` + eventColumns + ` FROM calendar_events WHERE id = ? AND ` + ownerClause)

	var r eventRow
	err := s.db.GetContext(ctx, &r, query, id, sess.UserID, sess.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fail("get event", err)
	}
	ev, err := s.toEvent(r)
	if err != nil {
		return nil, fail("get event", err)
	}
	return ev, nil
}

// InsertEvent stores a new event owned by the session's user. An empty id
// is replaced by a fresh UUID; ids in the slot- namespace are rejected.
func (s *Store) InsertEvent(ctx context.Context, sess study.Session, ev *study.CalendarEvent) error {
	if err := checkSession(sess); err != nil {
		return err
	}
	if err := study.ValidatePersistedID(ev.ID); err != nil {
		return err
	}
	if !ev.EndTime.After(ev.StartTime) {
		return &study.ValidationError{Field: "end_time", Message: study.ErrEndBeforeStart.Error(), Err: study.ErrEndBeforeStart}
	}

	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	row, err := s.toRow(ev, sess.UserID)
	if err != nil {
		return err
	}
	row.ID = id

	query := `
		INSERT INTO calendar_events (` + eventColumns + `)
		VALUES (:id, :student_id, :user_id, :title, :description, :event_type, :start_time, :end_time, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fail("insert event", err)
	}

	ev.ID = id
	ev.UserID = sess.UserID
	return nil
}

// UpdateEvent rewrites the title, description, type and times of an event.
func (s *Store) UpdateEvent(ctx context.Context, sess study.Session, ev *study.CalendarEvent) error {
	if err := checkSession(sess); err != nil {
		return err
	}
	if !ev.IsPersisted() {
		return &study.NotPersistableError{Op: "update event", ID: ev.ID}
	}
	row, err := s.toRow(ev, sess.UserID)
	if err != nil {
		return err
	}

	query := s.db.Rebind(`
		UPDATE calendar_events
		SET title = ?, description = ?, event_type = ?, start_time = ?, end_time = ?
		WHERE id = ? AND ` + ownerClause)
	res, err := s.db.ExecContext(ctx, query,
		row.Title, row.Description, row.EventType, row.StartTime, row.EndTime,
		ev.ID, sess.UserID, sess.UserID,
	)
	return s.checkAffected("update event", ev.ID, res, err)
}

// UpdateEventTimes changes only the start and end of an event.
func (s *Store) UpdateEventTimes(ctx context.Context, sess study.Session, id string, start, end time.Time) error {
	if err := checkSession(sess); err != nil {
		return err
	}
	if id == "" || study.IsSyntheticID(id) {
		return &study.NotPersistableError{Op: "update event times", ID: id}
	}
	if !end.After(start) {
		return &study.ValidationError{Field: "end_time", Message: study.ErrEndBeforeStart.Error(), Err: study.ErrEndBeforeStart}
	}

	query := s.db.Rebind(`UPDATE calendar_events SET start_time = ?, end_time = ? WHERE id = ? AND ` + ownerClause)
	res, err := s.db.ExecContext(ctx, query, formatTime(start), formatTime(end), id, sess.UserID, sess.UserID)
	return s.checkAffected("update event times", id, res, err)
}

// DeleteEvent removes an event by id.
func (s *Store) DeleteEvent(ctx context.Context, sess study.Session, id string) error {
	if err := checkSession(sess); err != nil {
		return err
	}
	if id == "" || study.IsSyntheticID(id) {
		return &study.NotPersistableError{Op: "delete event", ID: id}
	}

	query := s.db.Rebind(`DELETE FROM calendar_events WHERE id = ? AND ` + ownerClause)
	res, err := s.db.ExecContext(ctx, query, id, sess.UserID, sess.UserID)
	return s.checkAffected("delete event", id, res, err)
}

func (s *Store) checkAffected(op, id string, res sql.Result, err error) error {
	if err != nil {
		return fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail(op, fmt.Errorf("getting rows affected: %w", err))
	}
	if n == 0 {
		return fail(op, fmt.Errorf("event %s: %w", id, ErrNotFound))
	}
	return nil
}
