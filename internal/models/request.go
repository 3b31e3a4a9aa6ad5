package models

import "time"

const (
	RequestTypeCancel     = "cancel"
	RequestTypeReschedule = "reschedule"

	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
)

// ChangeRequest is a participant's pending cancel or reschedule of a
// session. A reschedule carries either a preferred time range picked from
// the enumerated slots or an alternative existing session, never both.
// At most one pending request may exist per session.
type ChangeRequest struct {
	ID                   int64      `json:"id"`
	SessionID            int64      `json:"session_id"`
	RequesterID          int64      `json:"requester_id"`
	Type                 string     `json:"type"`
	Reason               string     `json:"reason"`
	PreferredStart       *time.Time `json:"preferred_start,omitempty"`
	PreferredEnd         *time.Time `json:"preferred_end,omitempty"`
	AlternativeSessionID *int64     `json:"alternative_session_id,omitempty"`
	Status               string     `json:"status"`
	ResolvedAt           *time.Time `json:"resolved_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
