package scheduling

import (
	"testing"
	"time"
)

func TestWindowsForMatchesWeekday(t *testing.T) {
	index := NewAvailabilityIndex([]WindowSpec{
		{Weekday: "monday", StartTime: "09:00", EndTime: "12:00"},
		{Weekday: "monday", StartTime: "14:00", EndTime: "16:00"},
		{Weekday: "tuesday", StartTime: "10:00", EndTime: "11:00"},
	})

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	if got := len(index.WindowsFor(monday)); got != 2 {
		t.Fatalf("expected 2 monday windows, got %d", got)
	}

	wednesday := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	if got := len(index.WindowsFor(wednesday)); got != 0 {
		t.Fatalf("expected no wednesday windows, got %d", got)
	}
}

func TestWindowsForIsOrderIndependent(t *testing.T) {
	forward := []WindowSpec{
		{Weekday: "monday", StartTime: "09:00", EndTime: "12:00"},
		{Weekday: "monday", StartTime: "14:00", EndTime: "16:00"},
	}
	reversed := []WindowSpec{forward[1], forward[0]}

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	a := NewAvailabilityIndex(forward).WindowsFor(monday)
	b := NewAvailabilityIndex(reversed).WindowsFor(monday)

	if len(a) != len(b) {
		t.Fatalf("expected same window count, got %d and %d", len(a), len(b))
	}
	seen := make(map[int]bool)
	for _, w := range a {
		seen[w.StartMinute] = true
	}
	for _, w := range b {
		if !seen[w.StartMinute] {
			t.Fatalf("window starting at minute %d missing from reordered index", w.StartMinute)
		}
	}
}

func TestNewAvailabilityIndexDropsMalformedWindows(t *testing.T) {
	index := NewAvailabilityIndex([]WindowSpec{
		{Weekday: "noday", StartTime: "09:00", EndTime: "12:00"},
		{Weekday: "monday", StartTime: "12:00", EndTime: "09:00"},
		{Weekday: "monday", StartTime: "late", EndTime: "later"},
	})

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	if got := len(index.WindowsFor(monday)); got != 0 {
		t.Fatalf("expected malformed windows to be dropped, got %d", got)
	}
}
