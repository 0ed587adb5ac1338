package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/ics"
	"github.com/athro-ai/athro/internal/study"
)

const maxExportWeeks = 52

func (s *Server) today() time.Time {
	return s.now().In(s.svc.Location())
}

func (s *Server) parseDate(field, value string) (time.Time, error) {
	t, err := dateutil.ParseRelativeDate(value, s.today())
	if err != nil {
		return time.Time{}, &study.ValidationError{Field: field, Message: err.Error(), Err: err}
	}
	return t, nil
}

func (s *Server) getWeek(c *fiber.Ctx) error {
	date, err := s.parseDate("date", c.Params("date"))
	if err != nil {
		return err
	}
	view, err := s.svc.Week(c.UserContext(), session(c), date)
	if err != nil {
		return err
	}
	return c.JSON(toWeekDTO(view))
}

func (s *Server) decodeEvent(c *fiber.Ctx) (eventRequest, time.Time, error) {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return req, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	var date time.Time
	if req.Date != "" {
		d, err := dateutil.ParseDate(req.Date, s.svc.Location())
		if err != nil {
			return req, time.Time{}, &study.ValidationError{Field: "date", Message: err.Error(), Err: err}
		}
		date = d
	}
	return req, date, nil
}

func (s *Server) createEvent(c *fiber.Ctx) error {
	req, date, err := s.decodeEvent(c)
	if err != nil {
		return err
	}
	ev, err := s.svc.SaveEvent(c.UserContext(), session(c), req.form("", date))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toEventDTO(ev))
}

func (s *Server) updateEvent(c *fiber.Ctx) error {
	id := c.Params("id")
	if study.IsSyntheticID(id) {
		return &study.NotPersistableError{Op: "update event", ID: id}
	}
	req, date, err := s.decodeEvent(c)
	if err != nil {
		return err
	}
	if _, err := s.svc.GetEvent(c.UserContext(), session(c), id); err != nil {
		return err
	}
	ev, err := s.svc.SaveEvent(c.UserContext(), session(c), req.form(id, date))
	if err != nil {
		return err
	}
	return c.JSON(toEventDTO(ev))
}

func (s *Server) moveEvent(c *fiber.Ctx) error {
	id := c.Params("id")
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	sess := session(c)
	if req.Start != nil {
		ev, err := s.svc.MoveEventTo(c.UserContext(), sess, id, *req.Start)
		if err != nil {
			return err
		}
		return c.JSON(toEventDTO(ev))
	}

	if req.Day == nil || req.Row == nil {
		return &study.MissingFieldError{Fields: []string{"day", "row"}}
	}
	week, err := s.parseDate("week", req.Week)
	if err != nil {
		return err
	}
	ev, err := s.svc.MoveEvent(c.UserContext(), sess, id, week, grid.Cell{Day: *req.Day, Row: *req.Row})
	if err != nil {
		return err
	}
	return c.JSON(toEventDTO(ev))
}

func (s *Server) deleteEvent(c *fiber.Ctx) error {
	if err := s.svc.DeleteEvent(c.UserContext(), session(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listSlots(c *fiber.Ctx) error {
	slots, err := s.svc.Slots(c.UserContext(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"slots": toSlotDTOs(slots)})
}

func (s *Server) replaceSlots(c *fiber.Ctx) error {
	var req slotsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	sess := session(c)
	slots := make([]*study.PreferredStudySlot, 0, len(req.Slots))
	for _, d := range req.Slots {
		slot, err := study.NewSlot(sess.UserID, d.DayOfWeek, d.SlotCount, d.SlotDurationMinutes, d.PreferredStartHour)
		if err != nil {
			return err
		}
		slots = append(slots, slot)
	}

	saved, err := s.svc.ReplaceSlots(c.UserContext(), sess, slots)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"slots": toSlotDTOs(saved)})
}

func (s *Server) listPresets(c *fiber.Ctx) error {
	out := make([]presetDTO, 0, len(study.Presets))
	for _, p := range study.Presets {
		out = append(out, presetDTO{
			Name:            p.Name,
			SlotCount:       p.SlotCount,
			DurationMinutes: p.DurationMinutes,
			TotalMinutes:    p.TotalMinutes(),
		})
	}
	return c.JSON(fiber.Map{
		"presets":   out,
		"durations": study.DurationOptions,
		"counts":    study.CountOptions,
	})
}

func (s *Server) exportICS(c *fiber.Ctx) error {
	from, err := s.parseDate("from", c.Query("from"))
	if err != nil {
		return err
	}
	weeks, err := strconv.Atoi(c.Query("weeks", "1"))
	if err != nil || weeks < 1 || weeks > maxExportWeeks {
		return &study.ValidationError{Field: "weeks", Message: "must be between 1 and " + strconv.Itoa(maxExportWeeks)}
	}

	week := s.svc.WeekOf(from)
	events, err := s.svc.EventsBetween(c.UserContext(), session(c), week.Start, week.Start.AddDate(0, 0, 7*weeks))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="athro.ics"`)
	return ics.Write(c, events, s.now())
}
