package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/athro-ai/athro/internal/study"
)

// slotRow mirrors a preferred_study_slots row.
type slotRow struct {
	ID                  string `db:"id"`
	UserID              string `db:"user_id"`
	DayOfWeek           int    `db:"day_of_week"`
	SlotCount           int    `db:"slot_count"`
	SlotDurationMinutes int    `db:"slot_duration_minutes"`
	PreferredStartHour  int    `db:"preferred_start_hour"`
	CreatedAt           string `db:"created_at"`
}

const slotColumns = `id, user_id, day_of_week, slot_count, slot_duration_minutes, preferred_start_hour, created_at`

// ListSlots returns the user's preferred study slots ordered by day and hour.
func (s *Store) ListSlots(ctx context.Context, sess study.Session) ([]*study.PreferredStudySlot, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	query := s.db.Rebind(`
		SELECT ` + slotColumns + `
		FROM preferred_study_slots
		WHERE user_id = ?
		ORDER BY day_of_week, preferred_start_hour, created_at, id
	`)

	var rows []slotRow
	if err := s.db.SelectContext(ctx, &rows, query, sess.UserID); err != nil {
		return nil, fail("list slots", err)
	}

	slots := make([]*study.PreferredStudySlot, 0, len(rows))
	for _, r := range rows {
		created, err := s.parseTime(r.CreatedAt)
		if err != nil {
			return nil, fail("list slots", fmt.Errorf("parsing created_at of %s: %w", r.ID, err))
		}
		slots = append(slots, &study.PreferredStudySlot{
			ID:                  r.ID,
			UserID:              r.UserID,
			DayOfWeek:           r.DayOfWeek,
			SlotCount:           r.SlotCount,
			SlotDurationMinutes: r.SlotDurationMinutes,
			PreferredStartHour:  r.PreferredStartHour,
			CreatedAt:           created,
		})
	}
	return slots, nil
}

// ReplaceAllSlots deletes every slot of the user and inserts slots, in one
// transaction. Each inserted slot gets a new id, so slot identity does not
// survive a save. Concurrent savers race: the last commit wins.
func (s *Store) ReplaceAllSlots(ctx context.Context, sess study.Session, slots []*study.PreferredStudySlot) ([]*study.PreferredStudySlot, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	for _, sl := range slots {
		if err := sl.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	saved := make([]*study.PreferredStudySlot, 0, len(slots))
	rows := make([]slotRow, 0, len(slots))
	for _, sl := range slots {
		out := *sl
		out.ID = uuid.NewString()
		out.UserID = sess.UserID
		out.CreatedAt = now.In(s.loc).Truncate(time.Second)
		saved = append(saved, &out)
		rows = append(rows, slotRow{
			ID:                  out.ID,
			UserID:              out.UserID,
			DayOfWeek:           out.DayOfWeek,
			SlotCount:           out.SlotCount,
			SlotDurationMinutes: out.SlotDurationMinutes,
			PreferredStartHour:  out.PreferredStartHour,
			CreatedAt:           formatTime(now),
		})
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM preferred_study_slots WHERE user_id = ?`), sess.UserID); err != nil {
			return fmt.Errorf("deleting slots: %w", err)
		}

		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO preferred_study_slots (`+slotColumns+`)
			VALUES (:id, :user_id, :day_of_week, :slot_count, :slot_duration_minutes, :preferred_start_hour, :created_at)
		`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r); err != nil {
				return fmt.Errorf("inserting slot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fail("replace slots", err)
	}
	return saved, nil
}

// DeleteSlot removes a single slot template.
func (s *Store) DeleteSlot(ctx context.Context, sess study.Session, id string) error {
	if err := checkSession(sess); err != nil {
		return err
	}
	query := s.db.Rebind(`DELETE FROM preferred_study_slots WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query, id, sess.UserID)
	if err != nil {
		return fail("delete slot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail("delete slot", err)
	}
	if n == 0 {
		return fail("delete slot", fmt.Errorf("slot %s: %w", id, ErrNotFound))
	}
	return nil
}
