// Package editor implements the create/edit form for a single calendar
// event: field validation, the derived end time and the save/delete calls.
package editor

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/study"
)

// DefaultDurationMinutes seeds new forms.
const DefaultDurationMinutes = 30

// Form holds the editable fields of one event. The end time is always
// derived from StartTime and DurationMinutes and cannot be set.
type Form struct {
	ID              string          `form:"id"`
	Title           string          `form:"title" validate:"required"`
	Subject         string          `form:"subject" validate:"required"`
	Topic           string          `form:"topic"`
	Date            time.Time       `form:"start" validate:"required"`
	StartTime       string          `form:"start" validate:"required,clock"`
	DurationMinutes int             `form:"end" validate:"required,gt=0"`
	Type            study.EventType `form:"type" validate:"omitempty,oneof=study_session quiz revision"`
	Pomodoro        *study.Pomodoro `form:"pomodoro"`
}

// NewForm returns an empty create form for the given day.
func NewForm(date time.Time) Form {
	return Form{
		Date:            dateutil.TruncateToDay(date),
		DurationMinutes: DefaultDurationMinutes,
		Type:            study.TypeStudySession,
	}
}

// SeedFromCell returns a create form whose date and start come from the
// grid cell the user picked.
func SeedFromCell(cfg grid.Config, weekStart time.Time, cell grid.Cell) (Form, error) {
	start, err := cfg.CellTime(weekStart, cell)
	if err != nil {
		return Form{}, err
	}
	f := NewForm(start)
	f.StartTime = study.FormatClock(study.MinutesOfDay(start))
	return f, nil
}

// FromEvent returns an edit form for an existing event.
func FromEvent(ev *study.CalendarEvent) Form {
	f := Form{
		ID:              ev.ID,
		Title:           ev.Title,
		Subject:         ev.Subject,
		Topic:           ev.Topic,
		Date:            dateutil.TruncateToDay(ev.StartTime),
		StartTime:       study.FormatClock(study.MinutesOfDay(ev.StartTime)),
		DurationMinutes: ev.DurationMinutes(),
		Type:            ev.Type,
	}
	if ev.Pomodoro != nil {
		p := *ev.Pomodoro
		f.Pomodoro = &p
	}
	return f
}

// IsEdit reports whether the form edits an existing event.
func (f Form) IsEdit() bool {
	return f.ID != ""
}

// Start resolves Date and StartTime to an absolute time.
func (f Form) Start() (time.Time, bool) {
	if f.Date.IsZero() {
		return time.Time{}, false
	}
	m, err := study.ParseClock(f.StartTime)
	if err != nil {
		return time.Time{}, false
	}
	return study.AtClock(f.Date, m), true
}

// EndTime returns start + duration. ok is false while either is unresolved.
func (f Form) EndTime() (end time.Time, ok bool) {
	start, ok := f.Start()
	if !ok || f.DurationMinutes <= 0 {
		return time.Time{}, false
	}
	return start.Add(time.Duration(f.DurationMinutes) * time.Minute), true
}

// SetStart moves the start; the end follows.
func (f *Form) SetStart(clock string) {
	f.StartTime = strings.TrimSpace(clock)
}

// SetDuration changes the duration; the end follows.
func (f *Form) SetDuration(minutes int) {
	f.DurationMinutes = minutes
}

// Event builds the calendar event the form describes. Call Validate first.
func (f Form) Event(userID string) (*study.CalendarEvent, error) {
	start, ok := f.Start()
	if !ok {
		return nil, &study.MissingFieldError{Fields: []string{"start"}}
	}
	end, ok := f.EndTime()
	if !ok {
		return nil, &study.MissingFieldError{Fields: []string{"end"}}
	}
	ev, err := study.NewEvent(strings.TrimSpace(f.Title), strings.TrimSpace(f.Subject), f.Topic, f.Type, start, end)
	if err != nil {
		return nil, err
	}
	ev.ID = f.ID
	ev.UserID = userID
	if f.Pomodoro != nil {
		p := *f.Pomodoro
		ev.Pomodoro = &p
	}
	return ev, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return strings.ToLower(fld.Name)
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := study.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// requiredOrder is the order missing fields are reported in.
var requiredOrder = []string{"title", "subject", "start", "end"}

// Validate checks the form. Empty required fields yield a
// *study.MissingFieldError listing all of them; anything else malformed
// yields a *study.ValidationError. When subjects is non-empty the subject
// must be one of them.
func Validate(f Form, subjects []string) error {
	f.Title = strings.TrimSpace(f.Title)
	f.Subject = strings.TrimSpace(f.Subject)
	f.StartTime = strings.TrimSpace(f.StartTime)

	var missing []string
	var invalid []validator.FieldError

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &study.ValidationError{Message: err.Error(), Err: err}
		}
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
				continue
			}
			invalid = append(invalid, fe)
		}
	}

	// An unresolvable start leaves nothing to derive the end from.
	if slices.Contains(missing, "start") {
		missing = append(missing, "end")
	}
	if len(missing) > 0 {
		var ordered []string
		for _, name := range requiredOrder {
			if slices.Contains(missing, name) {
				ordered = append(ordered, name)
			}
		}
		return &study.MissingFieldError{Fields: ordered}
	}

	if len(invalid) > 0 {
		return fieldError(invalid[0])
	}

	if len(subjects) > 0 && !slices.Contains(subjects, f.Subject) {
		return &study.ValidationError{
			Field:   "subject",
			Message: "must be one of " + strings.Join(subjects, ", "),
		}
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "clock":
		return &study.ValidationError{Field: "start", Message: study.ErrInvalidTimeFormat.Error(), Err: study.ErrInvalidTimeFormat}
	case "gt":
		return &study.ValidationError{Field: "duration", Message: "must be a positive number of minutes"}
	case "oneof":
		return &study.ValidationError{Field: "type", Message: study.ErrInvalidEventType.Error(), Err: study.ErrInvalidEventType}
	}
	return &study.ValidationError{Field: fe.Field(), Message: "failed " + fe.Tag()}
}
