package repository

import (
	"context"
	"time"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
)

type CreateClassTemplateInput struct {
	TutorID         int64
	Subject         string
	Weekday         string
	StartTime       string
	EndTime         string
	DurationMinutes int
	TermStart       time.Time
	TermEnd         time.Time
	Location        *string
	Online          bool
	MaxStudents     int
}

type UpdateClassTemplateInput struct {
	Subject     *string
	Location    *string
	Online      *bool
	MaxStudents *int
}

type ClassTemplateRepository struct {
	db DBTX
}

func NewClassTemplateRepository(db DBTX) *ClassTemplateRepository {
	return &ClassTemplateRepository{db: db}
}

const classTemplateColumns = `
	id, tutor_id, subject, weekday, start_time, end_time, duration_min,
	term_start, term_end, location, online, max_students, active,
	created_at, updated_at`

func scanClassTemplate(row interface{ Scan(dest ...any) error }) (*models.ClassTemplate, error) {
	var template models.ClassTemplate
	err := row.Scan(
		&template.ID,
		&template.TutorID,
		&template.Subject,
		&template.Weekday,
		&template.StartTime,
		&template.EndTime,
		&template.DurationMinutes,
		&template.TermStart,
		&template.TermEnd,
		&template.Location,
		&template.Online,
		&template.MaxStudents,
		&template.Active,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *ClassTemplateRepository) Create(
	ctx context.Context,
	input CreateClassTemplateInput,
) (*models.ClassTemplate, error) {
	query := `
		INSERT INTO class_templates (
			tutor_id, subject, weekday, start_time, end_time, duration_min,
			term_start, term_end, location, online, max_students, active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		RETURNING ` + classTemplateColumns

	return scanClassTemplate(r.db.QueryRow(
		ctx,
		query,
		input.TutorID,
		input.Subject,
		input.Weekday,
		input.StartTime,
		input.EndTime,
		input.DurationMinutes,
		input.TermStart,
		input.TermEnd,
		input.Location,
		input.Online,
		input.MaxStudents,
	))
}

func (r *ClassTemplateRepository) GetByID(ctx context.Context, classID int64) (*models.ClassTemplate, error) {
	query := `
		SELECT ` + classTemplateColumns + `
		FROM class_templates
		WHERE id = $1
	`
	return scanClassTemplate(r.db.QueryRow(ctx, query, classID))
}

func (r *ClassTemplateRepository) ListByTutor(ctx context.Context, tutorID int64) ([]models.ClassTemplate, error) {
	query := `
		SELECT ` + classTemplateColumns + `
		FROM class_templates
		WHERE tutor_id = $1 AND active = TRUE
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]models.ClassTemplate, 0)
	for rows.Next() {
		template, err := scanClassTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *template)
	}
	return templates, rows.Err()
}

func (r *ClassTemplateRepository) ListActive(ctx context.Context) ([]models.ClassTemplate, error) {
	query := `
		SELECT ` + classTemplateColumns + `
		FROM class_templates
		WHERE active = TRUE
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]models.ClassTemplate, 0)
	for rows.Next() {
		template, err := scanClassTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *template)
	}
	return templates, rows.Err()
}

func (r *ClassTemplateRepository) Update(
	ctx context.Context,
	classID int64,
	input UpdateClassTemplateInput,
) (*models.ClassTemplate, error) {
	query := `
		UPDATE class_templates
		SET subject = COALESCE($2, subject),
		    location = COALESCE($3, location),
		    online = COALESCE($4, online),
		    max_students = COALESCE($5, max_students),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + classTemplateColumns

	return scanClassTemplate(r.db.QueryRow(
		ctx,
		query,
		classID,
		input.Subject,
		input.Location,
		input.Online,
		input.MaxStudents,
	))
}

func (r *ClassTemplateRepository) Deactivate(ctx context.Context, classID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE class_templates
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, classID)
	return err
}
