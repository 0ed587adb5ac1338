// Package study defines the core scheduling types for athro: recurring
// preferred study slots and the concrete calendar events they expand into.
package study

import (
	"time"
)

// EventType classifies a calendar event.
type EventType string

const (
	TypeStudySession EventType = "study_session"
	TypeQuiz         EventType = "quiz"
	TypeRevision     EventType = "revision"
)

// Valid returns true if the event type is a known value.
func (t EventType) Valid() bool {
	switch t {
	case TypeStudySession, TypeQuiz, TypeRevision:
		return true
	default:
		return false
	}
}

// ParseEventType parses s into an EventType. Empty means study_session.
func ParseEventType(s string) (EventType, error) {
	if s == "" {
		return TypeStudySession, nil
	}
	t := EventType(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Message: ErrInvalidEventType.Error(), Err: ErrInvalidEventType}
	}
	return t, nil
}

// Session identifies the signed-in user. It is passed explicitly to every
// component that touches user data.
type Session struct {
	UserID string
}

// Valid reports whether the session carries a user.
func (s Session) Valid() bool {
	return s.UserID != ""
}

// Pomodoro holds the work/break cadence of a pomodoro-style session.
type Pomodoro struct {
	WorkMinutes  int
	BreakMinutes int
}

// Cycles returns how many full work+break cycles fit in d.
func (p Pomodoro) Cycles(d time.Duration) int {
	cycle := p.WorkMinutes + p.BreakMinutes
	if p.WorkMinutes <= 0 || cycle <= 0 {
		return 0
	}
	mins := int(d.Minutes())
	n := mins / cycle
	// A trailing work block without its break still counts.
	if mins%cycle >= p.WorkMinutes {
		n++
	}
	return n
}

// CalendarEvent is one concrete, dated, timed occurrence.
type CalendarEvent struct {
	ID           string
	UserID       string
	Title        string
	Subject      string
	Topic        string
	Pomodoro     *Pomodoro
	StartTime    time.Time
	EndTime      time.Time
	Type         EventType
	SourceSlotID string // set only on slot-derived events
}

// NewEvent creates a CalendarEvent with validation.
func NewEvent(title, subject, topic string, typ EventType, start, end time.Time) (*CalendarEvent, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: ErrEmptyTitle.Error(), Err: ErrEmptyTitle}
	}
	if typ == "" {
		typ = TypeStudySession
	}
	if !typ.Valid() {
		return nil, &ValidationError{Field: "type", Message: ErrInvalidEventType.Error(), Err: ErrInvalidEventType}
	}
	if !end.After(start) {
		return nil, &ValidationError{Field: "end_time", Message: ErrEndBeforeStart.Error(), Err: ErrEndBeforeStart}
	}
	return &CalendarEvent{
		Title:     title,
		Subject:   subject,
		Topic:     topic,
		Type:      typ,
		StartTime: start,
		EndTime:   end,
	}, nil
}

// Duration returns EndTime - StartTime.
func (e *CalendarEvent) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// DurationMinutes returns the event duration in whole minutes.
func (e *CalendarEvent) DurationMinutes() int {
	return int(e.Duration().Minutes())
}

// IsSynthetic returns true if the event was expanded from a slot.
func (e *CalendarEvent) IsSynthetic() bool {
	return IsSyntheticID(e.ID)
}

// IsPersisted returns true if the event has a server-assigned id.
func (e *CalendarEvent) IsPersisted() bool {
	return e.ID != "" && !IsSyntheticID(e.ID)
}

// Metadata returns the packed description fields of the event.
func (e *CalendarEvent) Metadata() Metadata {
	m := Metadata{Subject: e.Subject, Topic: e.Topic}
	if e.Pomodoro != nil {
		m.IsPomodoro = true
		m.PomodoroWorkMinutes = e.Pomodoro.WorkMinutes
		m.PomodoroBreakMinutes = e.Pomodoro.BreakMinutes
	}
	return m
}

// ApplyMetadata copies decoded description fields onto the event.
func (e *CalendarEvent) ApplyMetadata(m Metadata) {
	e.Subject = m.Subject
	e.Topic = m.Topic
	e.Pomodoro = nil
	if m.IsPomodoro {
		e.Pomodoro = &Pomodoro{WorkMinutes: m.PomodoroWorkMinutes, BreakMinutes: m.PomodoroBreakMinutes}
	}
}

// OverlapsWith returns true if both events share any instant.
func (e *CalendarEvent) OverlapsWith(other *CalendarEvent) bool {
	if other == nil {
		return false
	}
	return e.StartTime.Before(other.EndTime) && other.StartTime.Before(e.EndTime)
}
