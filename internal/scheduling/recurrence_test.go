package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func wednesdayPattern() TemplatePattern {
	return TemplatePattern{
		ClassID:   5,
		TutorID:   9,
		Subject:   "algebra",
		Weekday:   "wednesday",
		StartTime: "14:00",
		EndTime:   "15:30",
		TermStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TermEnd:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpandTemplateProducesWeeklyInstances(t *testing.T) {
	batch := uuid.New()
	planned := ExpandTemplate(wednesdayPattern(), []int64{21, 22}, batch)

	if len(planned) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(planned))
	}

	wantDates := []string{"2025-01-01", "2025-01-08", "2025-01-15"}
	for i, session := range planned {
		if got := session.Start.Format("2006-01-02"); got != wantDates[i] {
			t.Fatalf("instance %d: expected date %s, got %s", i, wantDates[i], got)
		}
		if got := session.Start.Format("15:04"); got != "14:00" {
			t.Fatalf("instance %d: expected start 14:00, got %s", i, got)
		}
		if got := session.End.Format("15:04"); got != "15:30" {
			t.Fatalf("instance %d: expected end 15:30, got %s", i, got)
		}
		if session.Sequence != i+1 {
			t.Fatalf("instance %d: expected sequence %d, got %d", i, i+1, session.Sequence)
		}
		if session.BatchID != batch {
			t.Fatalf("instance %d: expected batch id %s, got %s", i, batch, session.BatchID)
		}
		if len(session.ParticipantIDs) != 2 {
			t.Fatalf("instance %d: expected 2 participants, got %d", i, len(session.ParticipantIDs))
		}
	}
}

func TestExpandTemplateInstancesAreSevenDaysApart(t *testing.T) {
	pattern := wednesdayPattern()
	pattern.TermEnd = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	planned := ExpandTemplate(pattern, nil, uuid.New())
	if len(planned) < 2 {
		t.Fatalf("expected multiple instances, got %d", len(planned))
	}
	for i := 1; i < len(planned); i++ {
		if gap := planned[i].Start.Sub(planned[i-1].Start); gap != 7*24*time.Hour {
			t.Fatalf("expected 7-day gap between instances %d and %d, got %v", i-1, i, gap)
		}
	}
	last := planned[len(planned)-1]
	if last.Start.After(pattern.TermEnd.Add(24 * time.Hour)) {
		t.Fatalf("last instance %v falls past the term end", last.Start)
	}
}

func TestExpandTemplateWrapsForwardToFirstMatchingWeekday(t *testing.T) {
	pattern := wednesdayPattern()
	// 2025-01-02 is a Thursday; the first Wednesday on or after it is 01-08.
	pattern.TermStart = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	pattern.TermEnd = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	planned := ExpandTemplate(pattern, nil, uuid.New())
	if len(planned) == 0 {
		t.Fatal("expected instances")
	}
	if got := planned[0].Start.Format("2006-01-02"); got != "2025-01-08" {
		t.Fatalf("expected first instance on 2025-01-08, got %s", got)
	}
}

func TestExpandTemplateInvertedTermIsEmpty(t *testing.T) {
	pattern := wednesdayPattern()
	pattern.TermStart, pattern.TermEnd = pattern.TermEnd, pattern.TermStart

	if planned := ExpandTemplate(pattern, nil, uuid.New()); len(planned) != 0 {
		t.Fatalf("expected empty expansion for inverted term, got %d instances", len(planned))
	}
}

func TestExpandTemplateInvalidWeekdayIsEmpty(t *testing.T) {
	pattern := wednesdayPattern()
	pattern.Weekday = "midweek"

	if planned := ExpandTemplate(pattern, nil, uuid.New()); len(planned) != 0 {
		t.Fatalf("expected empty expansion for invalid weekday, got %d instances", len(planned))
	}
}

func TestExpandTemplateSnapshotsParticipantsPerInstance(t *testing.T) {
	participants := []int64{31}
	planned := ExpandTemplate(wednesdayPattern(), participants, uuid.New())
	if len(planned) == 0 {
		t.Fatal("expected instances")
	}

	participants[0] = 99
	if planned[0].ParticipantIDs[0] != 31 {
		t.Fatal("expected instance participant set to be a copy of the input")
	}

	planned[0].ParticipantIDs[0] = 77
	if planned[1].ParticipantIDs[0] != 31 {
		t.Fatal("expected each instance to own its participant set")
	}
}

func TestNextOccurrenceSkipsPassedStart(t *testing.T) {
	pattern := wednesdayPattern()
	pattern.TermEnd = time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)

	// Wednesday 2025-01-08 at 14:30: this week's start already passed.
	after := time.Date(2025, 1, 8, 14, 30, 0, 0, time.UTC)
	next, ok := NextOccurrence(pattern, after)
	if !ok {
		t.Fatal("expected an occurrence inside the term")
	}
	if got := next.Start.Format("2006-01-02 15:04"); got != "2025-01-15 14:00" {
		t.Fatalf("expected next occurrence 2025-01-15 14:00, got %s", got)
	}
}

func TestNextOccurrenceOutsideTerm(t *testing.T) {
	after := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, ok := NextOccurrence(wednesdayPattern(), after); ok {
		t.Fatal("expected no occurrence after the term end")
	}
}
