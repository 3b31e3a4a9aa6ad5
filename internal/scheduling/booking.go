package scheduling

// BookedSession is the slice of a persisted session that conflict testing
// needs: its identity, interval, status, and whether it came from a class
// template.
type BookedSession struct {
	ID       int64
	ClassID  *int64
	Status   string
	Interval Interval
}

// BookingIndex holds the intervals a candidate slot must not overlap. It is
// built from one consistent read of a tutor's sessions and performs no I/O.
type BookingIndex struct {
	retained []Interval
}

// NewBookingIndex keeps every session interval except cancelled sessions,
// the session being rescheduled (which must not conflict with itself), and,
// when excludeClassSessions is set, template-generated sessions — those are
// offered through alternative-session selection, not slot enumeration.
func NewBookingIndex(sessions []BookedSession, excludeSessionID int64, excludeClassSessions bool) *BookingIndex {
	index := &BookingIndex{}
	for _, s := range sessions {
		if s.ID == excludeSessionID {
			continue
		}
		if s.Status == "cancelled" {
			continue
		}
		if excludeClassSessions && s.ClassID != nil {
			continue
		}
		index.retained = append(index.retained, s.Interval)
	}
	return index
}

// HasConflict reports whether the candidate overlaps any retained booking.
func (i *BookingIndex) HasConflict(candidate Interval) bool {
	for _, booked := range i.retained {
		if booked.Overlaps(candidate) {
			return true
		}
	}
	return false
}

// Retained returns how many booking intervals are in the conflict set.
func (i *BookingIndex) Retained() int {
	return len(i.retained)
}
