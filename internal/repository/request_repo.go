package repository

import (
	"context"
	"time"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
)

type CreateChangeRequestInput struct {
	SessionID            int64
	RequesterID          int64
	Type                 string
	Reason               string
	PreferredStart       *time.Time
	PreferredEnd         *time.Time
	AlternativeSessionID *int64
}

type ChangeRequestRepository struct {
	db DBTX
}

func NewChangeRequestRepository(db DBTX) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

const changeRequestColumns = `
	id, session_id, requester_id, type, reason, preferred_start,
	preferred_end, alternative_session_id, status, resolved_at,
	created_at, updated_at`

func scanChangeRequest(row interface{ Scan(dest ...any) error }) (*models.ChangeRequest, error) {
	var request models.ChangeRequest
	err := row.Scan(
		&request.ID,
		&request.SessionID,
		&request.RequesterID,
		&request.Type,
		&request.Reason,
		&request.PreferredStart,
		&request.PreferredEnd,
		&request.AlternativeSessionID,
		&request.Status,
		&request.ResolvedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *ChangeRequestRepository) Create(
	ctx context.Context,
	input CreateChangeRequestInput,
) (*models.ChangeRequest, error) {
	query := `
		INSERT INTO change_requests (
			session_id, requester_id, type, reason,
			preferred_start, preferred_end, alternative_session_id, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
		RETURNING ` + changeRequestColumns

	return scanChangeRequest(r.db.QueryRow(
		ctx,
		query,
		input.SessionID,
		input.RequesterID,
		input.Type,
		input.Reason,
		input.PreferredStart,
		input.PreferredEnd,
		input.AlternativeSessionID,
	))
}

func (r *ChangeRequestRepository) GetByID(ctx context.Context, requestID int64) (*models.ChangeRequest, error) {
	query := `
		SELECT ` + changeRequestColumns + `
		FROM change_requests
		WHERE id = $1
	`
	return scanChangeRequest(r.db.QueryRow(ctx, query, requestID))
}

// FindPendingBySession returns pgx.ErrNoRows when no pending request
// exists for the session.
func (r *ChangeRequestRepository) FindPendingBySession(
	ctx context.Context,
	sessionID int64,
) (*models.ChangeRequest, error) {
	query := `
		SELECT ` + changeRequestColumns + `
		FROM change_requests
		WHERE session_id = $1 AND status = 'pending'
	`
	return scanChangeRequest(r.db.QueryRow(ctx, query, sessionID))
}

func (r *ChangeRequestRepository) ListByRequester(
	ctx context.Context,
	requesterID int64,
) ([]models.ChangeRequest, error) {
	query := `
		SELECT ` + changeRequestColumns + `
		FROM change_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, requesterID)
}

// ListPendingForTutor returns pending requests against the tutor's
// sessions, oldest first.
func (r *ChangeRequestRepository) ListPendingForTutor(
	ctx context.Context,
	tutorID int64,
) ([]models.ChangeRequest, error) {
	query := `
		SELECT ` + prefixedChangeRequestColumns("cr") + `
		FROM change_requests cr
		JOIN sessions s ON s.id = cr.session_id
		WHERE s.tutor_id = $1 AND cr.status = 'pending'
		ORDER BY cr.created_at ASC, cr.id ASC
	`
	return r.list(ctx, query, tutorID)
}

func (r *ChangeRequestRepository) ResolveIfPending(
	ctx context.Context,
	requestID int64,
	nextStatus string,
) (*models.ChangeRequest, error) {
	query := `
		UPDATE change_requests
		SET status = $2, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + changeRequestColumns

	return scanChangeRequest(r.db.QueryRow(ctx, query, requestID, nextStatus))
}

func (r *ChangeRequestRepository) list(ctx context.Context, query string, args ...any) ([]models.ChangeRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.ChangeRequest, 0)
	for rows.Next() {
		request, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

func prefixedChangeRequestColumns(alias string) string {
	return alias + ".id, " + alias + ".session_id, " + alias + ".requester_id, " +
		alias + ".type, " + alias + ".reason, " + alias + ".preferred_start, " +
		alias + ".preferred_end, " + alias + ".alternative_session_id, " +
		alias + ".status, " + alias + ".resolved_at, " + alias + ".created_at, " +
		alias + ".updated_at"
}
