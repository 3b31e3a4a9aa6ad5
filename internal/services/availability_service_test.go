package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
)

type stubWindowStore struct {
	windows []models.AvailabilityWindow
	created *models.AvailabilityWindow
	deleted bool
}

func (s *stubWindowStore) Create(
	_ context.Context,
	tutorID int64,
	weekday, startTime, endTime string,
) (*models.AvailabilityWindow, error) {
	window := &models.AvailabilityWindow{
		ID:        int64(len(s.windows) + 1),
		TutorID:   tutorID,
		Weekday:   weekday,
		StartTime: startTime,
		EndTime:   endTime,
	}
	s.created = window
	return window, nil
}

func (s *stubWindowStore) ListByTutor(_ context.Context, _ int64) ([]models.AvailabilityWindow, error) {
	return s.windows, nil
}

func (s *stubWindowStore) Delete(_ context.Context, _, _ int64) (bool, error) {
	return s.deleted, nil
}

func TestCreateWindowValidatesFields(t *testing.T) {
	service := NewAvailabilityService(&stubWindowStore{})

	cases := []struct {
		name  string
		input CreateWindowInput
	}{
		{"bad weekday", CreateWindowInput{Weekday: "someday", StartTime: "09:00", EndTime: "12:00"}},
		{"bad start", CreateWindowInput{Weekday: "monday", StartTime: "9am", EndTime: "12:00"}},
		{"bad end", CreateWindowInput{Weekday: "monday", StartTime: "09:00", EndTime: "25:00"}},
		{"inverted", CreateWindowInput{Weekday: "monday", StartTime: "12:00", EndTime: "09:00"}},
		{"empty", CreateWindowInput{Weekday: "monday", StartTime: "09:00", EndTime: "09:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.CreateWindow(context.Background(), 1, tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateWindowRejectsOverlap(t *testing.T) {
	store := &stubWindowStore{windows: []models.AvailabilityWindow{
		{ID: 1, TutorID: 1, Weekday: "monday", StartTime: "09:00", EndTime: "12:00"},
	}}
	service := NewAvailabilityService(store)

	_, err := service.CreateWindow(context.Background(), 1, CreateWindowInput{
		Weekday:   "Monday",
		StartTime: "11:00",
		EndTime:   "13:00",
	})
	if !errors.Is(err, ErrWindowOverlap) {
		t.Fatalf("expected ErrWindowOverlap, got %v", err)
	}

	// Back-to-back windows do not overlap.
	window, err := service.CreateWindow(context.Background(), 1, CreateWindowInput{
		Weekday:   "monday",
		StartTime: "12:00",
		EndTime:   "13:00",
	})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if window.Weekday != "monday" || window.StartTime != "12:00" {
		t.Fatalf("unexpected window %+v", window)
	}

	// Same hours on another day are fine too.
	if _, err := service.CreateWindow(context.Background(), 1, CreateWindowInput{
		Weekday:   "tuesday",
		StartTime: "10:00",
		EndTime:   "11:00",
	}); err != nil {
		t.Fatalf("CreateWindow other day: %v", err)
	}
}

func TestDeleteWindowNotFound(t *testing.T) {
	service := NewAvailabilityService(&stubWindowStore{deleted: false})

	if err := service.DeleteWindow(context.Background(), 1, 99); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
}
