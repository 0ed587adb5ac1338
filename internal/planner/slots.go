package planner

import (
	"context"
	"slices"

	"github.com/athro-ai/athro/internal/study"
)

// Slots returns the user's preferred study slots.
func (s *Service) Slots(ctx context.Context, sess study.Session) ([]*study.PreferredStudySlot, error) {
	tctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.ListSlots(tctx, sess)
}

// ReplaceSlots validates slots against the daily budget and replaces the
// user's templates with them. Calls for one user are serialized.
func (s *Service) ReplaceSlots(ctx context.Context, sess study.Session, slots []*study.PreferredStudySlot) ([]*study.PreferredStudySlot, error) {
	defer s.writes.Lock(slotsKey(sess))()
	return s.replaceSlots(ctx, sess, slots)
}

func (s *Service) replaceSlots(ctx context.Context, sess study.Session, slots []*study.PreferredStudySlot) ([]*study.PreferredStudySlot, error) {
	for _, sl := range slots {
		if err := sl.Validate(); err != nil {
			return nil, err
		}
	}
	if err := study.CheckDailyBudget(slots, s.opts.MaxDailyMinutes); err != nil {
		return nil, err
	}

	tctx, cancel := s.withTimeout(ctx)
	defer cancel()
	saved, err := s.repo.ReplaceAllSlots(tctx, sess, slots)
	if err != nil {
		return nil, err
	}
	s.changed(sess)
	return saved, nil
}

// ApplyPreset replaces the slots of one ISO weekday with a single template
// built from preset, keeping every other day as is.
func (s *Service) ApplyPreset(ctx context.Context, sess study.Session, day int, preset study.Preset, startHour int) ([]*study.PreferredStudySlot, error) {
	slot, err := study.NewSlot(sess.UserID, day, preset.SlotCount, preset.DurationMinutes, startHour)
	if err != nil {
		return nil, err
	}

	defer s.writes.Lock(slotsKey(sess))()

	current, err := s.Slots(ctx, sess)
	if err != nil {
		return nil, err
	}
	next := slices.DeleteFunc(slices.Clone(current), func(sl *study.PreferredStudySlot) bool {
		return sl.DayOfWeek == day
	})
	next = append(next, slot)
	return s.replaceSlots(ctx, sess, next)
}

// ClearSlots removes every slot template of the user.
func (s *Service) ClearSlots(ctx context.Context, sess study.Session) error {
	_, err := s.ReplaceSlots(ctx, sess, nil)
	return err
}
