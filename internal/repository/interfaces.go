package repository

import (
	"context"
	"time"

	"github.com/cetiassist/asesoria_backend/internal/model"
)

// AvailabilityStore is the persistence contract for availability slots.
// Services depend on this interface so tests can substitute an
// in-memory fake.
type AvailabilityStore interface {
	Create(ctx context.Context, availability *model.Availability) error
	// GetByID returns (nil, nil) when the slot does not exist.
	GetByID(ctx context.Context, id string) (*model.Availability, error)
	// ListOpenFrom returns open slots with start_at >= from, ordered by
	// (start_at, id). professorID and subject filters are optional.
	ListOpenFrom(ctx context.Context, from time.Time, professorID, subject string) ([]*model.Availability, error)
	// ListFrom returns every slot with start_at >= from regardless of
	// its availability flag, ordered by (start_at, id).
	ListFrom(ctx context.Context, from time.Time) ([]*model.Availability, error)
	// Reserve atomically flips an open slot to reserved. Returns
	// model.ErrAvailabilityNotFound or model.ErrAlreadyReserved when
	// the guarded update matched no row.
	Reserve(ctx context.Context, id, studentID string) error
	// Release atomically reopens a reserved slot, clearing the student
	// together with the flag. A non-empty studentID narrows the guard to
	// that student's reservation. Returns model.ErrAvailabilityNotFound
	// or model.ErrNotReserved when the guarded update matched no row.
	Release(ctx context.Context, id, studentID string) error
	// DeleteStartedBefore deletes at most limit slots whose start is
	// before cutoff and reports how many rows went away.
	DeleteStartedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// ReservationStore persists the append-only reservation history.
type ReservationStore interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	// ExistsFor reports whether the student ever reserved the slot.
	ExistsFor(ctx context.Context, studentID, availabilityID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error)
}

// UserStore persists user profiles.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	// GetByID returns (nil, nil) when the user does not exist.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail returns (nil, nil) when the user does not exist.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
