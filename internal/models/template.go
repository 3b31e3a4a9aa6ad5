package models

import "time"

// ClassTemplate is a recurring weekly schedule definition. StartTime and
// EndTime are wall-clock "15:04" strings; TermStart and TermEnd are
// calendar dates.
type ClassTemplate struct {
	ID              int64     `json:"id"`
	TutorID         int64     `json:"tutor_id"`
	Subject         string    `json:"subject"`
	Weekday         string    `json:"weekday"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	TermStart       time.Time `json:"term_start"`
	TermEnd         time.Time `json:"term_end"`
	Location        *string   `json:"location"`
	Online          bool      `json:"online"`
	MaxStudents     int       `json:"max_students"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Enrollment struct {
	ID        int64     `json:"id"`
	ClassID   int64     `json:"class_id"`
	StudentID int64     `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
