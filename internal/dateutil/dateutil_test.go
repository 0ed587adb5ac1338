package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		got, err := ParseDate("2025-01-15", time.UTC)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("empty defaults to today", func(t *testing.T) {
		got, err := ParseDate("", time.UTC)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		today := TruncateToDay(time.Now().In(time.UTC))
		if !got.Equal(today) {
			t.Errorf("got %v, want %v", got, today)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := ParseDate("01-15-2025", time.UTC)
		if !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("got error %v, want %v", err, ErrInvalidDateFormat)
		}
	})

	t.Run("parsed in location", func(t *testing.T) {
		loc := time.FixedZone("BST", 3600)
		got, err := ParseDate("2024-06-05", loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Location() != loc || got.Hour() != 0 {
			t.Errorf("expected local midnight, got %v", got)
		}
	})
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, 6, 5, 16, 0, 0, 0, time.UTC), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"across month", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)},
		{"across year", time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC), time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeekOf(tt.in)
			if !w.Start.Equal(tt.want) {
				t.Errorf("Start: got %v, want %v", w.Start, tt.want)
			}
			if !w.End.Equal(tt.want.AddDate(0, 0, 7)) {
				t.Errorf("End: got %v, want %v", w.End, tt.want.AddDate(0, 0, 7))
			}
			if !w.Contains(tt.in) {
				t.Errorf("week should contain %v", tt.in)
			}
		})
	}
}

func TestWeekContainsIsHalfOpen(t *testing.T) {
	w := WeekOf(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	if !w.Contains(w.Start) {
		t.Error("week should contain its start")
	}
	if w.Contains(w.End) {
		t.Error("week should not contain its end")
	}
	if w.Contains(w.Start.Add(-time.Nanosecond)) {
		t.Error("week should not contain the instant before its start")
	}
	if !w.Next().Start.Equal(w.End) {
		t.Errorf("Next: got %v, want %v", w.Next().Start, w.End)
	}
	if !w.Prev().End.Equal(w.Start) {
		t.Errorf("Prev: got %v, want %v", w.Prev().End, w.Start)
	}
}

func TestDayColumn(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	for col := 0; col < 7; col++ {
		if got := DayColumn(monday.AddDate(0, 0, col)); got != col {
			t.Errorf("DayColumn(%s) = %d, want %d", monday.AddDate(0, 0, col).Weekday(), got, col)
		}
	}
}

func TestWeekRange(t *testing.T) {
	monday, sunday := WeekRange(time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC))
	if monday.Weekday() != time.Monday || sunday.Weekday() != time.Sunday {
		t.Errorf("got %s..%s", monday.Weekday(), sunday.Weekday())
	}
	if sunday.Sub(monday) != 6*24*time.Hour {
		t.Errorf("expected six days between monday and sunday, got %v", sunday.Sub(monday))
	}
}

func TestParseRelativeDate(t *testing.T) {
	// Wednesday
	ref := time.Date(2024, 6, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr error
	}{
		{"", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), nil},
		{"today", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), nil},
		{"Tomorrow", time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), nil},
		{"yesterday", time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), nil},
		{"next-week", time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), nil},
		{"last-week", time.Date(2024, 5, 29, 0, 0, 0, 0, time.UTC), nil},
		{"monday", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), nil},
		{"sunday", time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), nil},
		{"2023-12-25", time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), nil},
		{"next-friday", time.Time{}, ErrInvalidDateFormat},
		{"2024/06/05", time.Time{}, ErrInvalidDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRelativeDate(tt.in, ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.Local {
		t.Errorf("empty name: got %v, %v", loc, err)
	}
	loc, err = LoadLocation("UTC")
	if err != nil || loc.String() != "UTC" {
		t.Errorf("UTC: got %v, %v", loc, err)
	}
	if _, err := LoadLocation("Mars/Olympus"); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("expected ErrInvalidTimezone, got %v", err)
	}
}
