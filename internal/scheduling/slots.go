package scheduling

import (
	"sort"
	"time"
)

const (
	// SlotHorizonDays bounds how far ahead slots are offered.
	SlotHorizonDays = 60
	// SlotStepMinutes is the enumeration granularity within a window.
	SlotStepMinutes = 30
)

// CandidateSlot is a conflict-free time range offered to a requester. It is
// transient: computed on demand, never persisted.
type CandidateSlot struct {
	Date  time.Time `json:"-"`
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`

	DateLabel  string `json:"date"`
	StartLabel string `json:"start"`
	EndLabel   string `json:"end"`
}

// EnumerateSlots walks every date in [today, today+horizon), steps through
// each availability window at the fixed granularity, and keeps candidates
// of the requested duration that start at or after now and overlap no
// retained booking. Results are ordered ascending by start time. An empty
// result is a valid "no availability" answer, not a failure.
//
// The same availability and booking snapshot always yields the same
// candidate set; the chosen slot must still be re-validated at write time,
// since nothing here holds it.
func EnumerateSlots(avail *AvailabilityIndex, bookings *BookingIndex, durationMinutes int, now time.Time) []CandidateSlot {
	if durationMinutes <= 0 {
		return nil
	}

	today := dateOf(now)
	slots := make([]CandidateSlot, 0)
	for day := 0; day < SlotHorizonDays; day++ {
		date := today.AddDate(0, 0, day)
		for _, window := range avail.WindowsFor(date) {
			for offset := window.StartMinute; offset+durationMinutes <= window.EndMinute; offset += SlotStepMinutes {
				start := atMinutes(date, offset)
				if start.Before(now) {
					continue
				}
				candidate := Interval{Start: start, End: atMinutes(date, offset+durationMinutes)}
				if bookings.HasConflict(candidate) {
					continue
				}
				slots = append(slots, CandidateSlot{
					Date:       date,
					Start:      candidate.Start,
					End:        candidate.End,
					DateLabel:  date.Format("2006-01-02"),
					StartLabel: FormatClock(offset),
					EndLabel:   FormatClock(offset + durationMinutes),
				})
			}
		}
	}

	// Windows within a day carry no guaranteed order, so sort the whole set.
	sort.Slice(slots, func(a, b int) bool {
		return slots[a].Start.Before(slots[b].Start)
	})
	return slots
}
