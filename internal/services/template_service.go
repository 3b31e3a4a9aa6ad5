package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/repository"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/scheduling"
)

var (
	ErrClassFull               = errors.New("class is at capacity")
	ErrAlreadyEnrolled         = errors.New("student is already enrolled")
	ErrNotEnrolled             = errors.New("student is not enrolled")
	ErrCapacityBelowEnrollment = errors.New("max students cannot drop below current enrollment")
)

type templateStore interface {
	Create(ctx context.Context, input repository.CreateClassTemplateInput) (*models.ClassTemplate, error)
	GetByID(ctx context.Context, classID int64) (*models.ClassTemplate, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]models.ClassTemplate, error)
	ListActive(ctx context.Context) ([]models.ClassTemplate, error)
	Update(ctx context.Context, classID int64, input repository.UpdateClassTemplateInput) (*models.ClassTemplate, error)
}

type enrollmentStore interface {
	Enroll(ctx context.Context, classID, studentID int64) (*models.Enrollment, error)
	Unenroll(ctx context.Context, classID, studentID int64) (bool, error)
	CountByClass(ctx context.Context, classID int64) (int, error)
	IsEnrolled(ctx context.Context, classID, studentID int64) (bool, error)
}

type TemplateService struct {
	db          *pgxpool.Pool
	templates   templateStore
	enrollments enrollmentStore
}

func NewTemplateService(
	db *pgxpool.Pool,
	templateRepo *repository.ClassTemplateRepository,
	enrollmentRepo *repository.EnrollmentRepository,
) *TemplateService {
	return &TemplateService{
		db:          db,
		templates:   templateRepo,
		enrollments: enrollmentRepo,
	}
}

type CreateTemplateInput struct {
	Subject     string
	Weekday     string
	StartTime   string
	EndTime     string
	TermStart   time.Time
	TermEnd     time.Time
	Location    *string
	Online      bool
	MaxStudents int
}

func (s *TemplateService) CreateTemplate(
	ctx context.Context,
	tutorID int64,
	input CreateTemplateInput,
) (*models.ClassTemplate, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" || input.MaxStudents < 1 {
		return nil, ErrInvalidInput
	}
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
	if input.TermEnd.Before(input.TermStart) {
		return nil, ErrInvalidInput
	}

	return s.templates.Create(ctx, repository.CreateClassTemplateInput{
		TutorID:         tutorID,
		Subject:         subject,
		Weekday:         weekday,
		StartTime:       scheduling.FormatClock(startMinute),
		EndTime:         scheduling.FormatClock(endMinute),
		DurationMinutes: endMinute - startMinute,
		TermStart:       input.TermStart,
		TermEnd:         input.TermEnd,
		Location:        input.Location,
		Online:          input.Online,
		MaxStudents:     input.MaxStudents,
	})
}

func (s *TemplateService) GetTemplate(
	ctx context.Context,
	classID int64,
) (*models.ClassTemplate, error) {
	template, err := s.templates.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return template, nil
}

func (s *TemplateService) ListMyTemplates(
	ctx context.Context,
	tutorID int64,
) ([]models.ClassTemplate, error) {
	return s.templates.ListByTutor(ctx, tutorID)
}

func (s *TemplateService) ListCatalog(ctx context.Context) ([]models.ClassTemplate, error) {
	return s.templates.ListActive(ctx)
}

func (s *TemplateService) UpdateTemplate(
	ctx context.Context,
	tutorID int64,
	classID int64,
	input repository.UpdateClassTemplateInput,
) (*models.ClassTemplate, error) {
	template, err := s.GetTemplate(ctx, classID)
	if err != nil {
		return nil, err
	}
	if template.TutorID != tutorID {
		return nil, ErrForbidden
	}
	if input.Subject != nil && strings.TrimSpace(*input.Subject) == "" {
		return nil, ErrInvalidInput
	}
	if input.MaxStudents != nil {
		if *input.MaxStudents < 1 {
			return nil, ErrInvalidInput
		}
		enrolled, err := s.enrollments.CountByClass(ctx, classID)
		if err != nil {
			return nil, err
		}
		if *input.MaxStudents < enrolled {
			return nil, ErrCapacityBelowEnrollment
		}
	}
	return s.templates.Update(ctx, classID, input)
}

// DeactivateTemplate retires a class and cancels its future confirmed
// instances in the same transaction. Past instances stay untouched.
func (s *TemplateService) DeactivateTemplate(
	ctx context.Context,
	tutorID int64,
	classID int64,
) (int64, error) {
	template, err := s.GetTemplate(ctx, classID)
	if err != nil {
		return 0, err
	}
	if template.TutorID != tutorID {
		return 0, ErrForbidden
	}
	if !template.Active {
		return 0, ErrInvalidStateTransition
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := repository.NewClassTemplateRepository(tx).Deactivate(ctx, classID); err != nil {
		return 0, err
	}
	cancelled, err := repository.NewSessionRepository(tx).SupersedeFutureByClass(
		ctx, classID, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return cancelled, nil
}

func (s *TemplateService) Enroll(
	ctx context.Context,
	studentID int64,
	classID int64,
) (*models.Enrollment, error) {
	template, err := s.GetTemplate(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !template.Active {
		return nil, ErrInvalidInput
	}
	if template.TutorID == studentID {
		return nil, ErrInvalidInput
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	count, err := s.enrollments.CountByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if count >= template.MaxStudents {
		return nil, ErrClassFull
	}

	enrollment, err := s.enrollments.Enroll(ctx, classID, studentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

func (s *TemplateService) Unenroll(
	ctx context.Context,
	studentID int64,
	classID int64,
) error {
	removed, err := s.enrollments.Unenroll(ctx, classID, studentID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotEnrolled
	}
	return nil
}
