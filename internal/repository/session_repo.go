package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
)

type CreateSessionInput struct {
	ClassID         *int64
	GenerationBatch *uuid.UUID
	Sequence        *int
	TutorID         int64
	Subject         string
	StartTime       time.Time
	EndTime         time.Time
	Status          string
	Location        *string
	Online          bool
	Notes           *string
}

type SessionListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
	ClassID   *int64
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	s.id, s.class_id, s.generation_batch, s.sequence, s.tutor_id, s.subject,
	s.start_time, s.end_time, s.status, s.location, s.online, s.notes,
	s.created_at, s.updated_at,
	COALESCE(
		(SELECT array_agg(sp.student_id ORDER BY sp.student_id)
		 FROM session_participants sp
		 WHERE sp.session_id = s.id),
		'{}'
	)`

func scanSession(row interface{ Scan(dest ...any) error }) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.ClassID,
		&session.GenerationBatch,
		&session.Sequence,
		&session.TutorID,
		&session.Subject,
		&session.StartTime,
		&session.EndTime,
		&session.Status,
		&session.Location,
		&session.Online,
		&session.Notes,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.ParticipantIDs,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := `
		INSERT INTO sessions (
			class_id, generation_batch, sequence, tutor_id, subject,
			start_time, end_time, status, location, online, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, class_id, generation_batch, sequence, tutor_id, subject,
			start_time, end_time, status, location, online, notes,
			created_at, updated_at
	`
	var session models.Session
	err := r.db.QueryRow(
		ctx,
		query,
		input.ClassID,
		input.GenerationBatch,
		input.Sequence,
		input.TutorID,
		input.Subject,
		input.StartTime,
		input.EndTime,
		input.Status,
		input.Location,
		input.Online,
		input.Notes,
	).Scan(
		&session.ID,
		&session.ClassID,
		&session.GenerationBatch,
		&session.Sequence,
		&session.TutorID,
		&session.Subject,
		&session.StartTime,
		&session.EndTime,
		&session.Status,
		&session.Location,
		&session.Online,
		&session.Notes,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.ParticipantIDs = make([]int64, 0)
	return &session, nil
}

func (r *SessionRepository) AddParticipant(ctx context.Context, sessionID, studentID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO session_participants (session_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, student_id) DO NOTHING
	`, sessionID, studentID)
	return err
}

func (r *SessionRepository) RemoveParticipant(ctx context.Context, sessionID, studentID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM session_participants
		WHERE session_id = $1 AND student_id = $2
	`, sessionID, studentID)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.id = $1
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(
	ctx context.Context,
	sessionID int64,
) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.id = $1
		FOR UPDATE OF s
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	args := []any{filter.ActorID}
	var whereParts []string
	if filter.Role == "tutor" {
		whereParts = append(whereParts, "s.tutor_id = $1")
	} else {
		whereParts = append(whereParts, `EXISTS (
			SELECT 1 FROM session_participants sp
			WHERE sp.session_id = s.id AND sp.student_id = $1
		)`)
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("s.status = $%d", len(args)))
	}
	if filter.ClassID != nil {
		args = append(args, *filter.ClassID)
		whereParts = append(whereParts, fmt.Sprintf("s.class_id = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "s.end_time > NOW()")
	case "past":
		whereParts = append(whereParts, "s.end_time <= NOW()")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions s
		WHERE %s
		ORDER BY s.start_time ASC, s.id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// ListForConflict returns a tutor's non-cancelled sessions that end after
// the given instant; these form the conflict set for slot enumeration.
func (r *SessionRepository) ListForConflict(
	ctx context.Context,
	tutorID int64,
	from time.Time,
) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.tutor_id = $1
		  AND s.status <> 'cancelled'
		  AND s.end_time > $2
		ORDER BY s.start_time ASC, s.id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := `
		WITH updated AS (
			UPDATE sessions
			SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING id
		)
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.id = (SELECT id FROM updated)
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// Reschedule moves a session to a new time range and marks it rescheduled.
// The status guard keeps the update from racing a concurrent resolution.
func (r *SessionRepository) Reschedule(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	newStart time.Time,
	newEnd time.Time,
) (*models.Session, error) {
	query := `
		WITH updated AS (
			UPDATE sessions
			SET start_time = $3, end_time = $4, status = 'rescheduled', updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING id
		)
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.id = (SELECT id FROM updated)
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, newStart, newEnd))
}

func (r *SessionRepository) HasConflict(
	ctx context.Context,
	tutorID int64,
	start time.Time,
	durationMinutes int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE tutor_id = $1
			  AND status <> 'cancelled'
			  AND start_time < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND end_time > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, tutorID, start, durationMinutes).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

func (r *SessionRepository) HasConflictExcludingSession(
	ctx context.Context,
	tutorID int64,
	start time.Time,
	durationMinutes int,
	excludedSessionID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE tutor_id = $1
			  AND id <> $4
			  AND status <> 'cancelled'
			  AND start_time < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND end_time > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, tutorID, start, durationMinutes, excludedSessionID).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

// SupersedeFutureByClass cancels a class's future confirmed sessions so a
// regenerated batch replaces them instead of stacking on top.
func (r *SessionRepository) SupersedeFutureByClass(
	ctx context.Context,
	classID int64,
	from time.Time,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET status = 'cancelled', updated_at = NOW()
		WHERE class_id = $1
		  AND status = 'confirmed'
		  AND start_time > $2
	`, classID, from)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
