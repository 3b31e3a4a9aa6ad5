package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// TemplatePattern is the weekly recurrence rule of a class template.
// Wall-clock times are "15:04" strings; TermStart and TermEnd are calendar
// dates (their time-of-day component is ignored).
type TemplatePattern struct {
	ClassID   int64
	TutorID   int64
	Subject   string
	Weekday   string
	StartTime string
	EndTime   string
	TermStart time.Time
	TermEnd   time.Time
	Location  *string
	Online    bool
}

// PlannedSession is one concrete occurrence expanded from a template,
// ready to be persisted by the caller.
type PlannedSession struct {
	ClassID        int64
	TutorID        int64
	Subject        string
	Sequence       int
	Start          time.Time
	End            time.Time
	Location       *string
	Online         bool
	ParticipantIDs []int64
	BatchID        uuid.UUID
}

// ExpandTemplate materializes one session per week from the first date on
// or after TermStart matching the template weekday through TermEnd,
// inclusive of both boundaries. Sessions are numbered from 1 and each
// carries its own copy of the current participant set, so a later
// regeneration snapshots enrollment instead of sharing it.
//
// An unknown weekday, an inverted term, or an unparseable wall-clock time
// yields an empty result rather than an error; callers validate template
// fields before expanding, and an empty expansion is safe to persist.
func ExpandTemplate(p TemplatePattern, participantIDs []int64, batchID uuid.UUID) []PlannedSession {
	weekday, ok := ParseWeekday(p.Weekday)
	if !ok {
		return nil
	}
	startMin, ok := ParseClock(p.StartTime)
	if !ok {
		return nil
	}
	endMin, ok := ParseClock(p.EndTime)
	if !ok || endMin <= startMin {
		return nil
	}

	first := dateOf(p.TermStart)
	last := dateOf(p.TermEnd)
	if last.Before(first) {
		return nil
	}

	// Wrap forward at most 6 days to the first matching weekday.
	for first.Weekday() != weekday {
		first = first.AddDate(0, 0, 1)
	}

	var planned []PlannedSession
	sequence := 0
	for date := first; !date.After(last); date = date.AddDate(0, 0, 7) {
		sequence++
		planned = append(planned, PlannedSession{
			ClassID:        p.ClassID,
			TutorID:        p.TutorID,
			Subject:        p.Subject,
			Sequence:       sequence,
			Start:          atMinutes(date, startMin),
			End:            atMinutes(date, endMin),
			Location:       p.Location,
			Online:         p.Online,
			ParticipantIDs: append([]int64(nil), participantIDs...),
			BatchID:        batchID,
		})
	}
	return planned
}

// NextOccurrence returns the first occurrence of the pattern starting at or
// after the given instant and within the term. It backs the explicit
// pending-slot variant used when a class has no materialized instances yet.
func NextOccurrence(p TemplatePattern, after time.Time) (Interval, bool) {
	weekday, ok := ParseWeekday(p.Weekday)
	if !ok {
		return Interval{}, false
	}
	startMin, ok := ParseClock(p.StartTime)
	if !ok {
		return Interval{}, false
	}
	endMin, ok := ParseClock(p.EndTime)
	if !ok || endMin <= startMin {
		return Interval{}, false
	}

	date := dateOf(p.TermStart)
	if afterDate := dateOf(after); afterDate.After(date) {
		date = afterDate
	}
	for date.Weekday() != weekday {
		date = date.AddDate(0, 0, 1)
	}
	if atMinutes(date, startMin).Before(after) {
		date = date.AddDate(0, 0, 7)
	}
	if date.After(dateOf(p.TermEnd)) {
		return Interval{}, false
	}
	return Interval{Start: atMinutes(date, startMin), End: atMinutes(date, endMin)}, true
}
