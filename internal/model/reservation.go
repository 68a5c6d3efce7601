package model

import "time"

// Reservation records a student claiming a slot. Rows are append-only:
// cancellation reopens the availability but the reservation stays as
// history, so a student cannot reserve the same slot twice.
type Reservation struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"studentId"`
	AvailabilityID string    `json:"availabilityId"`
	CreatedAt      time.Time `json:"createdAt"`
}
