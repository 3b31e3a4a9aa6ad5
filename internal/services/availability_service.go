package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/scheduling"
)

var (
	ErrWindowNotFound = errors.New("availability window not found")
	ErrWindowOverlap  = errors.New("availability window overlaps an existing window")
)

type windowStore interface {
	Create(ctx context.Context, tutorID int64, weekday, startTime, endTime string) (*models.AvailabilityWindow, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]models.AvailabilityWindow, error)
	Delete(ctx context.Context, windowID, tutorID int64) (bool, error)
}

type AvailabilityService struct {
	windows windowStore
}

func NewAvailabilityService(windows windowStore) *AvailabilityService {
	return &AvailabilityService{windows: windows}
}

type CreateWindowInput struct {
	Weekday   string
	StartTime string
	EndTime   string
}

func (s *AvailabilityService) CreateWindow(
	ctx context.Context,
	tutorID int64,
	input CreateWindowInput,
) (*models.AvailabilityWindow, error) {
	weekday := strings.ToLower(strings.TrimSpace(input.Weekday))
	if _, ok := scheduling.ParseWeekday(weekday); !ok {
		return nil, ErrInvalidInput
	}
	startMinute, ok := scheduling.ParseClock(input.StartTime)
	if !ok {
		return nil, ErrInvalidInput
	}
	endMinute, ok := scheduling.ParseClock(input.EndTime)
	if !ok {
		return nil, ErrInvalidInput
	}
	if endMinute <= startMinute {
		return nil, ErrInvalidInput
	}

	existing, err := s.windows.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	for _, window := range existing {
		if window.Weekday != weekday {
			continue
		}
		otherStart, _ := scheduling.ParseClock(window.StartTime)
		otherEnd, _ := scheduling.ParseClock(window.EndTime)
		if startMinute < otherEnd && otherStart < endMinute {
			return nil, ErrWindowOverlap
		}
	}

	return s.windows.Create(
		ctx,
		tutorID,
		weekday,
		scheduling.FormatClock(startMinute),
		scheduling.FormatClock(endMinute),
	)
}

func (s *AvailabilityService) ListWindows(
	ctx context.Context,
	tutorID int64,
) ([]models.AvailabilityWindow, error) {
	return s.windows.ListByTutor(ctx, tutorID)
}

func (s *AvailabilityService) DeleteWindow(
	ctx context.Context,
	tutorID int64,
	windowID int64,
) error {
	deleted, err := s.windows.Delete(ctx, windowID, tutorID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWindowNotFound
	}
	return nil
}
