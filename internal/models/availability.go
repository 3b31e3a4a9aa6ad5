package models

import "time"

// AvailabilityWindow is a tutor-declared open time range on a weekday.
// Times are wall-clock "15:04" strings; windows on one weekday must not
// overlap.
type AvailabilityWindow struct {
	ID        int64     `json:"id"`
	TutorID   int64     `json:"tutor_id"`
	Weekday   string    `json:"weekday"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}
