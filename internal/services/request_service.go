package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/repository"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/scheduling"
)

var (
	ErrRequestNotFound        = errors.New("request not found")
	ErrReasonTooShort         = errors.New("reason must be at least 10 characters")
	ErrSlotInPast             = errors.New("requested time must be in the future")
	ErrAlternativeNotEligible = errors.New("alternative session is not eligible")
	ErrSessionFull            = errors.New("session is at capacity")
	ErrDuplicateRequest       = errors.New("a pending request already exists for this session")
)

const minReasonRunes = 10

// minSlotLead keeps approvals from landing on a slot that expired while the
// student was typing.
const minSlotLead = time.Minute

type sessionReader interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
}

type requestStore interface {
	Create(ctx context.Context, input repository.CreateChangeRequestInput) (*models.ChangeRequest, error)
	GetByID(ctx context.Context, requestID int64) (*models.ChangeRequest, error)
	FindPendingBySession(ctx context.Context, sessionID int64) (*models.ChangeRequest, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]models.ChangeRequest, error)
	ListPendingForTutor(ctx context.Context, tutorID int64) ([]models.ChangeRequest, error)
	ResolveIfPending(ctx context.Context, requestID int64, nextStatus string) (*models.ChangeRequest, error)
}

var _ requestStore = (*repository.ChangeRequestRepository)(nil)

type enrollmentChecker interface {
	IsEnrolled(ctx context.Context, classID, studentID int64) (bool, error)
}

// Notifier pushes resolution events to connected clients. A nil Notifier is
// valid and drops events.
type Notifier interface {
	NotifyUser(userID int64, event string, content string, refID int64)
}

// RequestService validates and resolves session change requests. Validation
// runs in a fixed order so callers always see the first violated rule:
// reason length, then requested-time future check, then alternative-session
// eligibility, then the one-pending-request-per-session rule.
type RequestService struct {
	db          *pgxpool.Pool
	sessions    sessionReader
	requests    requestStore
	templates   templateReader
	enrollments enrollmentChecker
	notifier    Notifier
	logger      *zap.Logger
}

func NewRequestService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	requestRepo *repository.ChangeRequestRepository,
	templateRepo *repository.ClassTemplateRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	notifier Notifier,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		db:          db,
		sessions:    sessionRepo,
		requests:    requestRepo,
		templates:   templateRepo,
		enrollments: enrollmentRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

type CreateRequestInput struct {
	SessionID            int64
	Type                 string
	Reason               string
	PreferredStart       *time.Time
	PreferredEnd         *time.Time
	AlternativeSessionID *int64
}

func (s *RequestService) CreateRequest(
	ctx context.Context,
	requesterID int64,
	input CreateRequestInput,
) (*models.ChangeRequest, error) {
	requestType := strings.ToLower(strings.TrimSpace(input.Type))
	if requestType != models.RequestTypeCancel && requestType != models.RequestTypeReschedule {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.HasParticipant(requesterID) {
		return nil, ErrForbidden
	}
	if session.Status == models.SessionStatusCancelled ||
		session.Status == models.SessionStatusCompleted {
		return nil, ErrInvalidStateTransition
	}

	reason := strings.TrimSpace(input.Reason)
	if utf8.RuneCountInString(reason) < minReasonRunes {
		return nil, ErrReasonTooShort
	}

	create := repository.CreateChangeRequestInput{
		SessionID:   session.ID,
		RequesterID: requesterID,
		Type:        requestType,
		Reason:      reason,
	}

	if requestType == models.RequestTypeReschedule {
		hasSlot := input.PreferredStart != nil && input.PreferredEnd != nil
		hasAlternative := input.AlternativeSessionID != nil
		if hasSlot == hasAlternative {
			return nil, ErrInvalidInput
		}

		if hasSlot {
			start := input.PreferredStart.UTC()
			end := input.PreferredEnd.UTC()
			if !end.After(start) {
				return nil, ErrInvalidInput
			}
			if start.Before(time.Now().UTC().Add(minSlotLead)) {
				return nil, ErrSlotInPast
			}
			create.PreferredStart = &start
			create.PreferredEnd = &end
		} else {
			if err := s.checkAlternative(ctx, session, requesterID, *input.AlternativeSessionID); err != nil {
				return nil, err
			}
			create.AlternativeSessionID = input.AlternativeSessionID
		}
	}

	if _, err := s.requests.FindPendingBySession(ctx, session.ID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	request, err := s.requests.Create(ctx, create)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	s.notify(session.TutorID, "request_created", "A session change was requested", request.ID)
	return request, nil
}

// checkAlternative enforces the rules for moving onto another session: same
// tutor, same subject, still in the future, not the session being changed,
// not already attended by the requester, and with seats left.
func (s *RequestService) checkAlternative(
	ctx context.Context,
	session *models.Session,
	requesterID int64,
	alternativeID int64,
) error {
	alternative, err := s.sessions.GetByID(ctx, alternativeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	if alternative.ID == session.ID {
		return ErrAlternativeNotEligible
	}
	if alternative.TutorID != session.TutorID || alternative.Subject != session.Subject {
		return ErrAlternativeNotEligible
	}
	if alternative.Status == models.SessionStatusCancelled ||
		alternative.Status == models.SessionStatusCompleted {
		return ErrAlternativeNotEligible
	}
	if !alternative.StartTime.After(time.Now().UTC()) {
		return ErrAlternativeNotEligible
	}
	if alternative.HasParticipant(requesterID) {
		return ErrAlternativeNotEligible
	}

	capacity, err := s.sessionCapacity(ctx, alternative)
	if err != nil {
		return err
	}
	if len(alternative.ParticipantIDs) >= capacity {
		return ErrSessionFull
	}
	return nil
}

// Ad-hoc sessions seat one student; class instances inherit the template cap.
func (s *RequestService) sessionCapacity(
	ctx context.Context,
	session *models.Session,
) (int, error) {
	if session.ClassID == nil {
		return 1, nil
	}
	template, err := s.templates.GetByID(ctx, *session.ClassID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrClassNotFound
		}
		return 0, err
	}
	return template.MaxStudents, nil
}

func (s *RequestService) ListMyRequests(
	ctx context.Context,
	requesterID int64,
) ([]models.ChangeRequest, error) {
	return s.requests.ListByRequester(ctx, requesterID)
}

func (s *RequestService) ListPendingForTutor(
	ctx context.Context,
	tutorID int64,
) ([]models.ChangeRequest, error) {
	return s.requests.ListPendingForTutor(ctx, tutorID)
}

// Resolve lets the owning tutor approve or deny a pending request. Approval
// re-verifies conflicts and capacity inside the transaction that applies the
// change, so a slot taken between request and approval fails with ErrConflict
// instead of double-booking.
func (s *RequestService) Resolve(
	ctx context.Context,
	tutorID int64,
	requestID int64,
	decision string,
) (*models.ChangeRequest, error) {
	nextStatus, err := normalizeDecision(decision)
	if err != nil {
		return nil, err
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, ErrInvalidStateTransition
	}

	session, err := s.sessions.GetByID(ctx, request.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.TutorID != tutorID {
		return nil, ErrForbidden
	}

	if nextStatus == models.RequestStatusDenied {
		resolved, err := s.requests.ResolveIfPending(ctx, requestID, models.RequestStatusDenied)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidStateTransition
			}
			return nil, err
		}
		s.notify(request.RequesterID, "request_denied", "Your change request was denied", request.ID)
		return resolved, nil
	}

	resolved, err := s.approve(ctx, request)
	if err != nil {
		return nil, err
	}
	s.notify(request.RequesterID, "request_approved", "Your change request was approved", request.ID)
	return resolved, nil
}

func (s *RequestService) approve(
	ctx context.Context,
	request *models.ChangeRequest,
) (*models.ChangeRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txRequestRepo := repository.NewChangeRequestRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, request.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCancelled ||
		session.Status == models.SessionStatusCompleted {
		return nil, ErrInvalidStateTransition
	}

	switch {
	case request.Type == models.RequestTypeCancel:
		if _, err := txSessionRepo.UpdateStatusIfCurrent(
			ctx, session.ID, session.Status, models.SessionStatusCancelled,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidStateTransition
			}
			return nil, err
		}

	case request.PreferredStart != nil && request.PreferredEnd != nil:
		start := request.PreferredStart.UTC()
		end := request.PreferredEnd.UTC()
		durationMins := int(end.Sub(start) / time.Minute)

		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", session.TutorID); err != nil {
			return nil, err
		}
		hasConflict, err := txSessionRepo.HasConflictExcludingSession(
			ctx, session.TutorID, start, durationMins, session.ID,
		)
		if err != nil {
			return nil, err
		}
		if hasConflict {
			return nil, ErrConflict
		}
		if _, err := txSessionRepo.Reschedule(ctx, session.ID, session.Status, start, end); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidStateTransition
			}
			return nil, err
		}

	case request.AlternativeSessionID != nil:
		if err := s.moveToAlternative(ctx, txSessionRepo, session, request); err != nil {
			return nil, err
		}

	default:
		return nil, ErrInvalidInput
	}

	resolved, err := txRequestRepo.ResolveIfPending(ctx, request.ID, models.RequestStatusApproved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *RequestService) moveToAlternative(
	ctx context.Context,
	txSessionRepo *repository.SessionRepository,
	session *models.Session,
	request *models.ChangeRequest,
) error {
	alternative, err := txSessionRepo.GetByIDForUpdate(ctx, *request.AlternativeSessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlternativeNotEligible
		}
		return err
	}
	if alternative.Status == models.SessionStatusCancelled ||
		alternative.Status == models.SessionStatusCompleted {
		return ErrAlternativeNotEligible
	}
	if !alternative.StartTime.After(time.Now().UTC()) {
		return ErrAlternativeNotEligible
	}

	capacity, err := s.sessionCapacity(ctx, alternative)
	if err != nil {
		return err
	}
	if len(alternative.ParticipantIDs) >= capacity {
		return ErrSessionFull
	}

	if err := txSessionRepo.RemoveParticipant(ctx, session.ID, request.RequesterID); err != nil {
		return err
	}
	if err := txSessionRepo.AddParticipant(ctx, alternative.ID, request.RequesterID); err != nil {
		return err
	}

	// An ad-hoc session emptied by the move has nothing left to hold.
	if session.ClassID == nil && len(session.ParticipantIDs) == 1 &&
		session.ParticipantIDs[0] == request.RequesterID {
		if _, err := txSessionRepo.UpdateStatusIfCurrent(
			ctx, session.ID, session.Status, models.SessionStatusCancelled,
		); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}
	return nil
}

// PendingTemplateSlot stands in for a class instance that has not been
// generated yet.
type PendingTemplateSlot struct {
	ClassID int64     `json:"class_id"`
	Subject string    `json:"subject"`
	Start   time.Time `json:"start_time"`
	End     time.Time `json:"end_time"`
}

// ChangeTarget is the session a class change request should attach to.
// Exactly one of Session and Pending is set.
type ChangeTarget struct {
	Session *models.Session      `json:"session,omitempty"`
	Pending *PendingTemplateSlot `json:"pending,omitempty"`
}

// ChangeTargetForClass resolves which session of a class a student's change
// request should target: the next upcoming instance, falling back to the most
// recent past one, falling back to the template's next computed occurrence
// when no instances exist at all.
func (s *RequestService) ChangeTargetForClass(
	ctx context.Context,
	studentID int64,
	classID int64,
) (*ChangeTarget, error) {
	template, err := s.templates.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrForbidden
	}

	sessions, err := s.sessions.List(ctx, repository.SessionListFilter{
		ActorID: studentID,
		Role:    "student",
		ClassID: &classID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var upcoming, latestPast *models.Session
	for i := range sessions {
		session := &sessions[i]
		if session.Status == models.SessionStatusCancelled {
			continue
		}
		if !session.StartTime.Before(now) {
			if upcoming == nil || session.StartTime.Before(upcoming.StartTime) {
				upcoming = session
			}
		} else if latestPast == nil || session.StartTime.After(latestPast.StartTime) {
			latestPast = session
		}
	}

	if upcoming != nil {
		return &ChangeTarget{Session: upcoming}, nil
	}
	if latestPast != nil {
		return &ChangeTarget{Session: latestPast}, nil
	}

	occurrence, ok := scheduling.NextOccurrence(scheduling.TemplatePattern{
		ClassID:   template.ID,
		TutorID:   template.TutorID,
		Subject:   template.Subject,
		Weekday:   template.Weekday,
		StartTime: template.StartTime,
		EndTime:   template.EndTime,
		TermStart: template.TermStart,
		TermEnd:   template.TermEnd,
	}, now)
	if !ok {
		return nil, ErrSessionNotFound
	}

	return &ChangeTarget{Pending: &PendingTemplateSlot{
		ClassID: template.ID,
		Subject: template.Subject,
		Start:   occurrence.Start,
		End:     occurrence.End,
	}}, nil
}

func (s *RequestService) notify(userID int64, event, content string, refID int64) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyUser(userID, event, content, refID)
}

func normalizeDecision(decision string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "approve", "approved":
		return models.RequestStatusApproved, nil
	case "deny", "denied":
		return models.RequestStatusDenied, nil
	default:
		return "", ErrInvalidStatus
	}
}
