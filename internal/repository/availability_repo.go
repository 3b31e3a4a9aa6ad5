package repository

import (
	"context"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
)

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) Create(
	ctx context.Context,
	tutorID int64,
	weekday string,
	startTime string,
	endTime string,
) (*models.AvailabilityWindow, error) {
	query := `
		INSERT INTO availability_windows (tutor_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tutor_id, weekday, start_time, end_time, created_at
	`
	var window models.AvailabilityWindow
	err := r.db.QueryRow(ctx, query, tutorID, weekday, startTime, endTime).Scan(
		&window.ID,
		&window.TutorID,
		&window.Weekday,
		&window.StartTime,
		&window.EndTime,
		&window.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &window, nil
}

func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID int64) ([]models.AvailabilityWindow, error) {
	query := `
		SELECT id, tutor_id, weekday, start_time, end_time, created_at
		FROM availability_windows
		WHERE tutor_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]models.AvailabilityWindow, 0)
	for rows.Next() {
		var window models.AvailabilityWindow
		if err := rows.Scan(
			&window.ID,
			&window.TutorID,
			&window.Weekday,
			&window.StartTime,
			&window.EndTime,
			&window.CreatedAt,
		); err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, rows.Err()
}

func (r *AvailabilityRepository) Delete(ctx context.Context, windowID, tutorID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM availability_windows
		WHERE id = $1 AND tutor_id = $2
	`, windowID, tutorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
