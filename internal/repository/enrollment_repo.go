package repository

import (
	"context"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
)

type EnrollmentRepository struct {
	db DBTX
}

func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Enroll(ctx context.Context, classID, studentID int64) (*models.Enrollment, error) {
	query := `
		INSERT INTO class_enrollments (class_id, student_id)
		VALUES ($1, $2)
		RETURNING id, class_id, student_id, created_at
	`
	var enrollment models.Enrollment
	err := r.db.QueryRow(ctx, query, classID, studentID).Scan(
		&enrollment.ID,
		&enrollment.ClassID,
		&enrollment.StudentID,
		&enrollment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) Unenroll(ctx context.Context, classID, studentID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM class_enrollments
		WHERE class_id = $1 AND student_id = $2
	`, classID, studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *EnrollmentRepository) CountByClass(ctx context.Context, classID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM class_enrollments
		WHERE class_id = $1
	`, classID).Scan(&count)
	return count, err
}

func (r *EnrollmentRepository) ListStudentIDs(ctx context.Context, classID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT student_id
		FROM class_enrollments
		WHERE class_id = $1
		ORDER BY student_id ASC
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, classID, studentID int64) (bool, error) {
	var enrolled bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM class_enrollments
			WHERE class_id = $1 AND student_id = $2
		)
	`, classID, studentID).Scan(&enrolled)
	return enrolled, err
}
