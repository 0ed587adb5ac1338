package tui

import (
	"testing"
	"time"

	"github.com/athro-ai/athro/internal/study"
)

func TestYankText(t *testing.T) {
	start := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	ev := &study.CalendarEvent{
		Title:     "Algebra drill",
		Subject:   "Maths",
		Topic:     "Quadratics",
		StartTime: start,
		EndTime:   start.Add(45 * time.Minute),
	}
	if got, want := yankText(ev, time.UTC), "Mon Mar 10 16:00-16:45 · Algebra drill · Maths / Quadratics"; got != want {
		t.Errorf("yankText() = %q, want %q", got, want)
	}

	ev.Subject, ev.Topic = "", ""
	if got, want := yankText(ev, time.UTC), "Mon Mar 10 16:00-16:45 · Algebra drill"; got != want {
		t.Errorf("yankText() = %q, want %q", got, want)
	}
}

func TestCalcColWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, defaultColWidth},
		{40, minColWidth},
		{120, 15},
		{200, 26},
	}
	for _, tt := range tests {
		if got := calcColWidth(tt.width); got != tt.want {
			t.Errorf("calcColWidth(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{20, "20m"},
		{60, "1h"},
		{150, "2h30m"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.minutes); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight() = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Errorf("padRight() should not cut, got %q", got)
	}
}
