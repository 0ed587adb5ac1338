package editor

import (
	"context"
	"fmt"

	"github.com/athro-ai/athro/internal/study"
)

// Store is the subset of the repository the editor writes through.
type Store interface {
	InsertEvent(ctx context.Context, sess study.Session, ev *study.CalendarEvent) error
	UpdateEvent(ctx context.Context, sess study.Session, ev *study.CalendarEvent) error
	DeleteEvent(ctx context.Context, sess study.Session, id string) error
	DeleteSlot(ctx context.Context, sess study.Session, id string) error
}

// Editor saves and deletes single events.
type Editor struct {
	store    Store
	subjects []string

	// OnChange is called after every successful write so the caller can
	// reload the week.
	OnChange func()
}

// New creates an Editor. subjects is the list a form's subject must come
// from; nil accepts any subject.
func New(store Store, subjects []string) *Editor {
	return &Editor{store: store, subjects: subjects}
}

// Subjects returns the allowed subjects.
func (e *Editor) Subjects() []string {
	return e.subjects
}

// Validate checks a form against the editor's subject list.
func (e *Editor) Validate(f Form) error {
	return Validate(f, e.subjects)
}

// Save validates the form and writes it: an update keyed by id when the
// form edits an existing event, an insert otherwise. On failure nothing is
// written and the form can be retried as is.
func (e *Editor) Save(ctx context.Context, sess study.Session, f Form) (*study.CalendarEvent, error) {
	if study.IsSyntheticID(f.ID) {
		return nil, &study.NotPersistableError{Op: "save event", ID: f.ID}
	}
	if err := e.Validate(f); err != nil {
		return nil, err
	}
	ev, err := f.Event(sess.UserID)
	if err != nil {
		return nil, err
	}

	if f.IsEdit() {
		if err := e.store.UpdateEvent(ctx, sess, ev); err != nil {
			return nil, err
		}
	} else {
		if err := e.store.InsertEvent(ctx, sess, ev); err != nil {
			return nil, err
		}
	}
	e.changed()
	return ev, nil
}

// Delete removes the event with the given id. A slot-derived id deletes
// the slot template it was expanded from, since the same id recurs every
// week and has no row of its own.
func (e *Editor) Delete(ctx context.Context, sess study.Session, id string) error {
	if id == "" {
		return &study.NotPersistableError{Op: "delete event"}
	}

	if study.IsSyntheticID(id) {
		slotID, _, ok := study.ParseSyntheticID(id)
		if !ok {
			return &study.NotPersistableError{Op: "delete event", ID: id}
		}
		if err := e.store.DeleteSlot(ctx, sess, slotID); err != nil {
			return fmt.Errorf("deleting slot template: %w", err)
		}
	} else if err := e.store.DeleteEvent(ctx, sess, id); err != nil {
		return err
	}

	e.changed()
	return nil
}

func (e *Editor) changed() {
	if e.OnChange != nil {
		e.OnChange()
	}
}
