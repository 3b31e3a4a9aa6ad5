package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
)

type stubAvailabilityLister struct {
	windows []models.AvailabilityWindow
}

func (s *stubAvailabilityLister) ListByTutor(_ context.Context, _ int64) ([]models.AvailabilityWindow, error) {
	return s.windows, nil
}

type stubConflictLister struct {
	sessions map[int64]*models.Session
	booked   []models.Session
}

func (s *stubConflictLister) GetByID(_ context.Context, id int64) (*models.Session, error) {
	if session, ok := s.sessions[id]; ok {
		return session, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubConflictLister) ListForConflict(
	_ context.Context,
	_ int64,
	_ time.Time,
) ([]models.Session, error) {
	return s.booked, nil
}

func allWeekWindows(startTime, endTime string) []models.AvailabilityWindow {
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	windows := make([]models.AvailabilityWindow, 0, len(days))
	for _, day := range days {
		windows = append(windows, models.AvailabilityWindow{
			TutorID:   1,
			Weekday:   day,
			StartTime: startTime,
			EndTime:   endTime,
		})
	}
	return windows
}

func TestEnumerateSlotsValidatesInput(t *testing.T) {
	service := &ScheduleService{
		availability: &stubAvailabilityLister{},
		sessions:     &stubConflictLister{},
	}

	if _, err := service.EnumerateSlots(context.Background(), 1, 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero duration, got %v", err)
	}
	if _, err := service.EnumerateSlots(context.Background(), 0, 0, 60); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero tutor, got %v", err)
	}
}

func TestEnumerateSlotsRejectsUnknownExcludedSession(t *testing.T) {
	service := &ScheduleService{
		availability: &stubAvailabilityLister{},
		sessions:     &stubConflictLister{sessions: map[int64]*models.Session{}},
	}

	if _, err := service.EnumerateSlots(context.Background(), 1, 999, 60); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEnumerateSlotsRejectsForeignExcludedSession(t *testing.T) {
	service := &ScheduleService{
		availability: &stubAvailabilityLister{},
		sessions: &stubConflictLister{sessions: map[int64]*models.Session{
			5: {ID: 5, TutorID: 42},
		}},
	}

	if _, err := service.EnumerateSlots(context.Background(), 1, 5, 60); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for session of another tutor, got %v", err)
	}
}

func TestEnumerateSlotsSkipsBookedTime(t *testing.T) {
	now := time.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	blockedStart := tomorrow.Add(9 * time.Hour)
	blockedEnd := tomorrow.Add(11 * time.Hour)

	service := &ScheduleService{
		availability: &stubAvailabilityLister{windows: allWeekWindows("09:00", "11:00")},
		sessions: &stubConflictLister{booked: []models.Session{
			{
				ID:        5,
				TutorID:   1,
				Status:    models.SessionStatusConfirmed,
				StartTime: blockedStart,
				EndTime:   blockedEnd,
			},
		}},
	}

	slots, err := service.EnumerateSlots(context.Background(), 1, 0, 60)
	if err != nil {
		t.Fatalf("EnumerateSlots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots on free days")
	}
	for i, slot := range slots {
		if i > 0 && slot.Start.Before(slots[i-1].Start) {
			t.Fatalf("slots out of order at %d: %v after %v", i, slot.Start, slots[i-1].Start)
		}
		if slot.Start.Before(blockedEnd) && blockedStart.Before(slot.End) {
			t.Fatalf("slot %v-%v overlaps booked session", slot.Start, slot.End)
		}
	}
}

func TestEnumerateSlotsFreesExcludedSessionTime(t *testing.T) {
	now := time.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	blockedStart := tomorrow.Add(9 * time.Hour)
	blockedEnd := tomorrow.Add(11 * time.Hour)
	booked := models.Session{
		ID:        5,
		TutorID:   1,
		Status:    models.SessionStatusConfirmed,
		StartTime: blockedStart,
		EndTime:   blockedEnd,
	}

	service := &ScheduleService{
		availability: &stubAvailabilityLister{windows: allWeekWindows("09:00", "11:00")},
		sessions: &stubConflictLister{
			sessions: map[int64]*models.Session{5: &booked},
			booked:   []models.Session{booked},
		},
	}

	slots, err := service.EnumerateSlots(context.Background(), 1, 5, 60)
	if err != nil {
		t.Fatalf("EnumerateSlots: %v", err)
	}

	found := false
	for _, slot := range slots {
		if slot.Start.Equal(blockedStart) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the excluded session's own time to be offered, got %d slots", len(slots))
	}
}
