package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusPending     = "pending"
	SessionStatusConfirmed   = "confirmed"
	SessionStatusCompleted   = "completed"
	SessionStatusCancelled   = "cancelled"
	SessionStatusRescheduled = "rescheduled"
)

// Session is one concrete, dated occurrence. ClassID and GenerationBatch
// are nil for ad-hoc bookings; template-generated sessions carry both plus
// a 1-based Sequence used for the "Session N" label.
type Session struct {
	ID              int64      `json:"id"`
	ClassID         *int64     `json:"class_id"`
	GenerationBatch *uuid.UUID `json:"generation_batch,omitempty"`
	Sequence        *int       `json:"sequence,omitempty"`
	TutorID         int64      `json:"tutor_id"`
	Subject         string     `json:"subject"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	Status          string     `json:"status"`
	Location        *string    `json:"location"`
	Online          bool       `json:"online"`
	Notes           *string    `json:"notes"`
	ParticipantIDs  []int64    `json:"participant_ids"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasParticipant reports whether the student is booked on this session.
func (s *Session) HasParticipant(studentID int64) bool {
	for _, id := range s.ParticipantIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
