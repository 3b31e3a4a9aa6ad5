package scheduling

import "time"

// WindowSpec is a tutor-declared weekly availability window as stored:
// a weekday name plus "15:04" wall-clock bounds.
type WindowSpec struct {
	Weekday   string
	StartTime string
	EndTime   string
}

// DayWindow is a normalized window: minutes since midnight on a weekday.
type DayWindow struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

// AvailabilityIndex buckets a tutor's weekly windows by weekday for lookup
// by calendar date. It is immutable after construction and safe for
// concurrent readers.
type AvailabilityIndex struct {
	byWeekday map[time.Weekday][]DayWindow
}

// NewAvailabilityIndex normalizes windows into weekday buckets. Windows
// with an unknown weekday, unparseable bounds, or an empty range are
// dropped; they cannot produce slots. Input order is not preserved and
// callers must not rely on the order of WindowsFor results.
func NewAvailabilityIndex(windows []WindowSpec) *AvailabilityIndex {
	index := &AvailabilityIndex{byWeekday: make(map[time.Weekday][]DayWindow)}
	for _, w := range windows {
		weekday, ok := ParseWeekday(w.Weekday)
		if !ok {
			continue
		}
		startMin, ok := ParseClock(w.StartTime)
		if !ok {
			continue
		}
		endMin, ok := ParseClock(w.EndTime)
		if !ok || endMin <= startMin {
			continue
		}
		index.byWeekday[weekday] = append(index.byWeekday[weekday], DayWindow{
			Weekday:     weekday,
			StartMinute: startMin,
			EndMinute:   endMin,
		})
	}
	return index
}

// WindowsFor returns the windows whose weekday matches the given date.
// An empty result means the tutor is unavailable that day.
func (i *AvailabilityIndex) WindowsFor(date time.Time) []DayWindow {
	return i.byWeekday[date.Weekday()]
}
