package study

import (
	"context"
	"time"
)

// WeekData is what a single week load returns.
type WeekData struct {
	Slots  []*PreferredStudySlot
	Events []*CalendarEvent
}

// Repository defines the storage interface for slots and events. All
// methods are scoped to the session's user.
type Repository interface {
	// LoadWeek returns the user's slots and the events starting in the
	// seven days from weekStart.
	LoadWeek(ctx context.Context, sess Session, weekStart time.Time) (*WeekData, error)

	// ListEventsBetween returns events starting in [from, to).
	ListEventsBetween(ctx context.Context, sess Session, from, to time.Time) ([]*CalendarEvent, error)

	// GetEvent retrieves an event by id. Returns nil if not found.
	GetEvent(ctx context.Context, sess Session, id string) (*CalendarEvent, error)

	// InsertEvent stores a new event and assigns its id.
	InsertEvent(ctx context.Context, sess Session, ev *CalendarEvent) error

	// UpdateEvent rewrites every field of an existing event.
	UpdateEvent(ctx context.Context, sess Session, ev *CalendarEvent) error

	// UpdateEventTimes changes only the start and end of an event.
	UpdateEventTimes(ctx context.Context, sess Session, id string, start, end time.Time) error

	// DeleteEvent removes an event by id.
	DeleteEvent(ctx context.Context, sess Session, id string) error

	// ListSlots returns the user's preferred study slots.
	ListSlots(ctx context.Context, sess Session) ([]*PreferredStudySlot, error)

	// ReplaceAllSlots deletes every slot of the user and inserts slots.
	// Last writer wins; there is no optimistic locking.
	ReplaceAllSlots(ctx context.Context, sess Session, slots []*PreferredStudySlot) ([]*PreferredStudySlot, error)

	// DeleteSlot removes a single slot template.
	DeleteSlot(ctx context.Context, sess Session, id string) error

	// Close releases any resources held by the repository.
	Close() error
}
