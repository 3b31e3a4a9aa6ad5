package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/repository"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/scheduling"
)

var ErrClassNotFound = errors.New("class not found")

type availabilityLister interface {
	ListByTutor(ctx context.Context, tutorID int64) ([]models.AvailabilityWindow, error)
}

type conflictLister interface {
	ListForConflict(ctx context.Context, tutorID int64, from time.Time) ([]models.Session, error)
	GetByID(ctx context.Context, id int64) (*models.Session, error)
}

type templateReader interface {
	GetByID(ctx context.Context, id int64) (*models.ClassTemplate, error)
}

type enrollmentLister interface {
	ListStudentIDs(ctx context.Context, classID int64) ([]int64, error)
}

// ScheduleService owns recurring session generation and free-slot lookup for
// a tutor's calendar.
type ScheduleService struct {
	db           *pgxpool.Pool
	templates    templateReader
	enrollments  enrollmentLister
	availability availabilityLister
	sessions     conflictLister
	logger       *zap.Logger
}

func NewScheduleService(
	db *pgxpool.Pool,
	templateRepo *repository.ClassTemplateRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	availabilityRepo *repository.AvailabilityRepository,
	sessionRepo *repository.SessionRepository,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		db:           db,
		templates:    templateRepo,
		enrollments:  enrollmentRepo,
		availability: availabilityRepo,
		sessions:     sessionRepo,
		logger:       logger,
	}
}

type GenerationResult struct {
	BatchID    uuid.UUID `json:"batch_id"`
	Generated  int       `json:"generated"`
	Superseded int64     `json:"superseded"`
}

// GenerateTermSessions expands a class template into dated sessions for its
// term. Future confirmed instances from earlier generations of the same class
// are cancelled in the same transaction, so regeneration never leaves the
// calendar with both old and new instances of a class.
func (s *ScheduleService) GenerateTermSessions(
	ctx context.Context,
	tutorID int64,
	classID int64,
) (*GenerationResult, error) {
	template, err := s.templates.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	if template.TutorID != tutorID {
		return nil, ErrForbidden
	}
	if !template.Active {
		return nil, ErrInvalidInput
	}

	studentIDs, err := s.enrollments.ListStudentIDs(ctx, classID)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	planned := scheduling.ExpandTemplate(scheduling.TemplatePattern{
		ClassID:   template.ID,
		TutorID:   template.TutorID,
		Subject:   template.Subject,
		Weekday:   template.Weekday,
		StartTime: template.StartTime,
		EndTime:   template.EndTime,
		TermStart: template.TermStart,
		TermEnd:   template.TermEnd,
		Location:  template.Location,
		Online:    template.Online,
	}, studentIDs, batchID)
	if len(planned) == 0 {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	superseded, err := txSessionRepo.SupersedeFutureByClass(ctx, classID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	for _, plan := range planned {
		sequence := plan.Sequence
		session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
			ClassID:         &template.ID,
			GenerationBatch: &batchID,
			Sequence:        &sequence,
			TutorID:         plan.TutorID,
			Subject:         plan.Subject,
			StartTime:       plan.Start,
			EndTime:         plan.End,
			Status:          models.SessionStatusConfirmed,
			Location:        plan.Location,
			Online:          plan.Online,
		})
		if err != nil {
			return nil, err
		}
		for _, studentID := range plan.ParticipantIDs {
			if err := txSessionRepo.AddParticipant(ctx, session.ID, studentID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("generated term sessions",
		zap.Int64("class_id", classID),
		zap.String("batch_id", batchID.String()),
		zap.Int("generated", len(planned)),
		zap.Int64("superseded", superseded),
	)

	return &GenerationResult{
		BatchID:    batchID,
		Generated:  len(planned),
		Superseded: superseded,
	}, nil
}

// EnumerateSlots lists the open slots on a tutor's calendar that could hold a
// session of the given duration. When excludeSessionID names an existing
// session, that session's own time does not count as a conflict, so the slots
// are suitable reschedule targets for it. Class-derived sessions are ignored
// as conflicts only when the excluded session itself belongs to a class; those
// are rescheduled by moving between class instances, not onto free slots.
func (s *ScheduleService) EnumerateSlots(
	ctx context.Context,
	tutorID int64,
	excludeSessionID int64,
	durationMinutes int,
) ([]scheduling.CandidateSlot, error) {
	if tutorID <= 0 || durationMinutes <= 0 {
		return nil, ErrInvalidInput
	}

	excludeClassSessions := false
	if excludeSessionID > 0 {
		excluded, err := s.sessions.GetByID(ctx, excludeSessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if excluded.TutorID != tutorID {
			return nil, ErrInvalidInput
		}
		excludeClassSessions = excluded.ClassID != nil
	}

	windows, err := s.availability.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booked, err := s.sessions.ListForConflict(ctx, tutorID, now)
	if err != nil {
		return nil, err
	}

	specs := make([]scheduling.WindowSpec, 0, len(windows))
	for _, window := range windows {
		specs = append(specs, scheduling.WindowSpec{
			Weekday:   window.Weekday,
			StartTime: window.StartTime,
			EndTime:   window.EndTime,
		})
	}

	sessions := make([]scheduling.BookedSession, 0, len(booked))
	for _, session := range booked {
		sessions = append(sessions, scheduling.BookedSession{
			ID:      session.ID,
			ClassID: session.ClassID,
			Status:  session.Status,
			Interval: scheduling.Interval{
				Start: session.StartTime,
				End:   session.EndTime,
			},
		})
	}

	avail := scheduling.NewAvailabilityIndex(specs)
	bookings := scheduling.NewBookingIndex(sessions, excludeSessionID, excludeClassSessions)
	return scheduling.EnumerateSlots(avail, bookings, durationMinutes, now), nil
}
