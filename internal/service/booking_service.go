package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cetiassist/asesoria_backend/internal/metrics"
	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/cetiassist/asesoria_backend/internal/repository"
	"go.uber.org/zap"
)

// BookingService drives the open -> reserved transition and its
// reversal. The underlying store only guarantees atomic single-row
// writes, so the reserve guard lives in the conditional update and the
// reservation record is appended afterwards.
type BookingService struct {
	availabilities repository.AvailabilityStore
	reservations   repository.ReservationStore
	metrics        metrics.Recorder
	logger         *zap.Logger
}

func NewBookingService(
	availabilities repository.AvailabilityStore,
	reservations repository.ReservationStore,
	recorder metrics.Recorder,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		availabilities: availabilities,
		reservations:   reservations,
		metrics:        recorder,
		logger:         logger,
	}
}

// Reserve claims an open slot for the student. Of two concurrent calls
// on the same slot exactly one wins; the loser gets ErrAlreadyReserved.
func (s *BookingService) Reserve(ctx context.Context, availabilityID, studentID string) (*model.Reservation, error) {
	if availabilityID == "" {
		return nil, model.NewValidationError("availabilityId", "must not be empty")
	}
	if studentID == "" {
		return nil, model.NewValidationError("studentId", "must not be empty")
	}

	// Reservation history is append-only, so a prior reservation for
	// this slot blocks the student even after a cancellation.
	already, err := s.reservations.ExistsFor(ctx, studentID, availabilityID)
	if err != nil {
		return nil, fmt.Errorf("check prior reservation: %w", err)
	}
	if already {
		return nil, model.ErrAlreadyRequested
	}

	if err := s.availabilities.Reserve(ctx, availabilityID, studentID); err != nil {
		if errors.Is(err, model.ErrAlreadyReserved) {
			s.metrics.RecordReservationConflict()
		}
		return nil, err
	}

	reservation := &model.Reservation{
		StudentID:      studentID,
		AvailabilityID: availabilityID,
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		// Reopen the slot so it is not lost; the original error surfaces.
		if relErr := s.availabilities.Release(ctx, availabilityID, studentID); relErr != nil {
			s.logger.Error("Failed to release slot after reservation insert failure",
				zap.String("availability_id", availabilityID),
				zap.Error(relErr),
			)
		}
		return nil, fmt.Errorf("record reservation: %w", err)
	}

	s.metrics.RecordReservation()
	s.logger.Info("Availability reserved",
		zap.String("reservation_id", reservation.ID),
		zap.String("availability_id", availabilityID),
		zap.String("student_id", studentID),
	)

	return reservation, nil
}

// Cancel reopens a reserved slot. Only the reserving student or the
// owning professor may cancel. Cancelling an open slot fails with
// ErrNotReserved, a second cancel included; there is no reservation
// to authorize against, so that check runs first.
func (s *BookingService) Cancel(ctx context.Context, availabilityID string, actor *model.User) error {
	if availabilityID == "" {
		return model.NewValidationError("availabilityId", "must not be empty")
	}

	availability, err := s.availabilities.GetByID(ctx, availabilityID)
	if err != nil {
		return fmt.Errorf("get availability: %w", err)
	}
	if availability == nil {
		return model.ErrAvailabilityNotFound
	}
	if availability.IsAvailable {
		return model.ErrNotReserved
	}

	if !canCancel(actor, availability) {
		return model.ErrForbidden
	}

	// Students release conditionally on their own id so a cancel racing
	// a re-reservation cannot clear someone else's booking. The owning
	// professor releases whoever holds the slot.
	releaseFor := ""
	if actor.ID != availability.ProfessorID {
		releaseFor = actor.ID
	}
	if err := s.availabilities.Release(ctx, availabilityID, releaseFor); err != nil {
		return err
	}

	s.metrics.RecordCancellation()
	s.logger.Info("Reservation cancelled",
		zap.String("availability_id", availabilityID),
		zap.String("actor_id", actor.ID),
	)

	return nil
}

// Validate mirrors the authoritative server-side reservation check:
// the slot must still be open and the student must not hold a prior
// reservation for it. Returns (false, reason) instead of an error for
// the expected rejections.
func (s *BookingService) Validate(ctx context.Context, studentID, availabilityID string) (bool, string, error) {
	if studentID == "" || availabilityID == "" {
		return false, "", model.NewValidationError("request", "studentId and availabilityId are required")
	}

	availability, err := s.availabilities.GetByID(ctx, availabilityID)
	if err != nil {
		return false, "", fmt.Errorf("get availability: %w", err)
	}
	if availability == nil || !availability.IsOpen() {
		return false, "The availability has already been reserved.", nil
	}

	already, err := s.reservations.ExistsFor(ctx, studentID, availabilityID)
	if err != nil {
		return false, "", fmt.Errorf("check prior reservation: %w", err)
	}
	if already {
		return false, "You already reserved this availability.", nil
	}

	return true, "", nil
}

// StudentReservations returns the student's reservation history.
func (s *BookingService) StudentReservations(ctx context.Context, studentID string) ([]*model.Reservation, error) {
	return s.reservations.ListByStudent(ctx, studentID)
}

func canCancel(actor *model.User, availability *model.Availability) bool {
	if actor == nil {
		return false
	}
	if actor.ID == availability.ProfessorID {
		return true
	}
	return availability.StudentID != nil && *availability.StudentID == actor.ID
}
