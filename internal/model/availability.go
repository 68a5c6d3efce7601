package model

import (
	"strings"
	"time"
)

type Modality string

const (
	ModalityVirtual  Modality = "virtual"
	ModalityInPerson Modality = "in_person"
)

// IsValid reports whether the modality is one of the known values.
func (m Modality) IsValid() bool {
	return m == ModalityVirtual || m == ModalityInPerson
}

// Availability is a professor-published bookable time window.
// StartAt/EndAt are the canonical instants; Date, StartTime and EndTime
// are denormalized display strings derived from them at publish time.
type Availability struct {
	ID              string    `json:"id"`
	ProfessorID     string    `json:"professorId"`
	ProfessorName   string    `json:"professorName"`
	Subject         string    `json:"subject"`
	SubjectLower    string    `json:"-"`
	Modality        Modality  `json:"modality"`
	Room            *string   `json:"room,omitempty"` // set iff modality is in_person
	StartAt         time.Time `json:"start"`
	EndAt           time.Time `json:"end"`
	DurationMinutes int       `json:"duration"`
	Date            string    `json:"date"`      // "2006-01-02"
	StartTime       string    `json:"startTime"` // "15:04"
	EndTime         string    `json:"endTime"`   // "15:04"
	IsAvailable     bool      `json:"isAvailable"`
	StudentID       *string   `json:"studentId,omitempty"` // set iff IsAvailable is false
	CreatedAt       time.Time `json:"createdAt"`
}

// IsOpen reports whether the slot can still be reserved.
func (a *Availability) IsOpen() bool {
	return a.IsAvailable && a.StudentID == nil
}

// IsFuture reports whether the slot has not started yet at the given instant.
func (a *Availability) IsFuture(now time.Time) bool {
	return !a.StartAt.Before(now)
}

// SyncDerived recomputes DurationMinutes, SubjectLower and the
// denormalized date/time strings from the canonical instants.
// All strings are derived in UTC.
func (a *Availability) SyncDerived() {
	a.DurationMinutes = int(a.EndAt.Sub(a.StartAt).Seconds()) / 60
	a.SubjectLower = lowerTrim(a.Subject)
	start := a.StartAt.UTC()
	end := a.EndAt.UTC()
	a.Date = start.Format("2006-01-02")
	a.StartTime = start.Format("15:04")
	a.EndTime = end.Format("15:04")
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
