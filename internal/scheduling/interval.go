package scheduling

import "time"

// Interval is a half-open [Start, End) time range. Start < End is a
// precondition on construction, not a runtime check.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share at least one instant.
// Back-to-back intervals do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Minutes returns the interval length in whole minutes.
func (a Interval) Minutes() int {
	return int(a.End.Sub(a.Start) / time.Minute)
}
