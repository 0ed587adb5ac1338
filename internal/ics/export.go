// Package ics writes study events as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/athro-ai/athro/internal/study"
)

// UIDDomain is appended to every event id to form its UID.
const UIDDomain = "athro"

// ProductID identifies the generator in PRODID.
const ProductID = "athro"

// UID returns the iCalendar UID of ev. Slot-derived ids recur every week,
// so their UID carries the occurrence date.
func UID(ev *study.CalendarEvent) string {
	if ev.IsSynthetic() {
		return fmt.Sprintf("%s-%s@%s", ev.ID, ev.StartTime.UTC().Format("20060102"), UIDDomain)
	}
	return ev.ID + "@" + UIDDomain
}

// Description renders the "subject: topic" line of ev.
func Description(ev *study.CalendarEvent) string {
	switch {
	case ev.Subject != "" && ev.Topic != "":
		return ev.Subject + ": " + ev.Topic
	case ev.Subject != "":
		return ev.Subject
	}
	return ev.Topic
}

// Build returns a VCALENDAR with one VEVENT per event, ordered by start.
func Build(events []*study.CalendarEvent, stamp time.Time) *ical.Calendar {
	sorted := make([]*study.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev != nil {
			sorted = append(sorted, ev)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	cal := ical.NewCalendarFor(ProductID)
	cal.SetMethod(ical.MethodPublish)

	for _, ev := range sorted {
		ve := cal.AddEvent(UID(ev))
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(ev.StartTime.UTC())
		ve.SetEndAt(ev.EndTime.UTC())
		ve.SetSummary(ev.Title)
		if desc := Description(ev); desc != "" {
			ve.SetDescription(desc)
		}
		typ := ev.Type
		if typ == "" {
			typ = study.TypeStudySession
		}
		ve.AddProperty(ical.ComponentPropertyCategories, string(typ))
		if ev.Pomodoro != nil {
			ve.AddProperty(ical.ComponentProperty("X-ATHRO-POMODORO"),
				fmt.Sprintf("%d/%d", ev.Pomodoro.WorkMinutes, ev.Pomodoro.BreakMinutes))
		}
	}
	return cal
}

// Write serializes events as an iCalendar document to w.
func Write(w io.Writer, events []*study.CalendarEvent, stamp time.Time) error {
	if _, err := io.WriteString(w, Build(events, stamp).Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// String returns the serialized iCalendar document.
func String(events []*study.CalendarEvent, stamp time.Time) string {
	var b strings.Builder
	_ = Write(&b, events, stamp)
	return b.String()
}
