package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncDerived(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	end := start.Add(90*time.Minute + 45*time.Second)

	a := &Availability{
		Subject: "  Cálculo Diferencial ",
		StartAt: start,
		EndAt:   end,
	}
	a.SyncDerived()

	// Duration is the integer floor of the second count over 60.
	assert.Equal(t, 90, a.DurationMinutes)
	assert.Equal(t, "cálculo diferencial", a.SubjectLower)
	assert.Equal(t, "2026-03-14", a.Date)
	assert.Equal(t, "15:30", a.StartTime)
	assert.Equal(t, "17:00", a.EndTime)
}

func TestSyncDerivedUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)
	a := &Availability{
		Subject: "Física",
		StartAt: time.Date(2026, 3, 14, 20, 0, 0, 0, loc),
		EndAt:   time.Date(2026, 3, 14, 21, 0, 0, 0, loc),
	}
	a.SyncDerived()

	// 20:00 UTC-6 is 02:00 UTC the next day.
	assert.Equal(t, "2026-03-15", a.Date)
	assert.Equal(t, "02:00", a.StartTime)
}

func TestIsOpen(t *testing.T) {
	student := "student-1"

	open := &Availability{IsAvailable: true}
	assert.True(t, open.IsOpen())

	reserved := &Availability{IsAvailable: false, StudentID: &student}
	assert.False(t, reserved.IsOpen())
}

func TestIsFuture(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&Availability{StartAt: now}).IsFuture(now))
	assert.True(t, (&Availability{StartAt: now.Add(time.Hour)}).IsFuture(now))
	assert.False(t, (&Availability{StartAt: now.Add(-time.Second)}).IsFuture(now))
}

func TestModalityIsValid(t *testing.T) {
	assert.True(t, ModalityVirtual.IsValid())
	assert.True(t, ModalityInPerson.IsValid())
	assert.False(t, Modality("presencial").IsValid())
	assert.False(t, Modality("").IsValid())
}

func TestUserTeaches(t *testing.T) {
	professor := &User{Subjects: []string{"Cálculo", "Física"}}

	assert.True(t, professor.Teaches("cálculo"))
	assert.True(t, professor.Teaches(" Física "))
	assert.False(t, professor.Teaches("Química"))

	// An empty list means no restriction.
	unrestricted := &User{}
	assert.True(t, unrestricted.Teaches("anything"))
}
