package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cetiassist/asesoria_backend/internal/metrics"
	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/cetiassist/asesoria_backend/internal/repository"
	"go.uber.org/zap"
)

// PublishInput carries the raw publish request. Date and times are the
// denormalized strings the clients work with; the canonical instants
// are derived here.
type PublishInput struct {
	Subject   string
	Modality  model.Modality
	Room      string
	Date      string // "2006-01-02"
	StartTime string // "15:04"
	EndTime   string // "15:04"
}

type AvailabilityService struct {
	store          repository.AvailabilityStore
	metrics        metrics.Recorder
	logger         *zap.Logger
	purgeBatchSize int

	// now is swappable in tests.
	now func() time.Time
}

func NewAvailabilityService(
	store repository.AvailabilityStore,
	recorder metrics.Recorder,
	logger *zap.Logger,
	purgeBatchSize int,
) *AvailabilityService {
	return &AvailabilityService{
		store:          store,
		metrics:        recorder,
		logger:         logger,
		purgeBatchSize: purgeBatchSize,
		now:            time.Now,
	}
}

// Publish validates the input and writes one open availability slot.
// Exactly one insert, no read-before-write.
func (s *AvailabilityService) Publish(ctx context.Context, professor *model.User, input PublishInput) (*model.Availability, error) {
	if professor == nil || professor.ID == "" {
		return nil, model.NewValidationError("professorId", "must not be empty")
	}

	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, model.NewValidationError("subject", "must not be empty")
	}
	if !professor.Teaches(subject) {
		return nil, model.NewValidationError("subject", "professor does not offer this subject")
	}

	if !input.Modality.IsValid() {
		return nil, model.NewValidationError("modality", "must be virtual or in_person")
	}

	var room *string
	if input.Modality == model.ModalityInPerson {
		trimmed := strings.TrimSpace(input.Room)
		if trimmed == "" {
			return nil, model.NewValidationError("room", "required for in-person availabilities")
		}
		room = &trimmed
	} else if strings.TrimSpace(input.Room) != "" {
		return nil, model.NewValidationError("room", "must be empty for virtual availabilities")
	}

	startAt, err := combineDateTime(input.Date, input.StartTime)
	if err != nil {
		return nil, model.NewValidationError("startTime", err.Error())
	}
	endAt, err := combineDateTime(input.Date, input.EndTime)
	if err != nil {
		return nil, model.NewValidationError("endTime", err.Error())
	}
	if !endAt.After(startAt) {
		return nil, model.NewValidationError("endTime", "must be after startTime")
	}

	availability := &model.Availability{
		ProfessorID:   professor.ID,
		ProfessorName: professor.Name,
		Subject:       subject,
		Modality:      input.Modality,
		Room:          room,
		StartAt:       startAt,
		EndAt:         endAt,
		IsAvailable:   true,
	}
	availability.SyncDerived()

	if err := s.store.Create(ctx, availability); err != nil {
		return nil, fmt.Errorf("publish availability: %w", err)
	}

	s.metrics.RecordPublish()
	s.logger.Info("Availability published",
		zap.String("availability_id", availability.ID),
		zap.String("professor_id", professor.ID),
		zap.String("subject", subject),
		zap.String("modality", string(input.Modality)),
		zap.Time("start", startAt),
		zap.Int("duration_minutes", availability.DurationMinutes),
	)

	return availability, nil
}

// ListOpen returns open future slots, optionally scoped to one
// professor and/or subject.
func (s *AvailabilityService) ListOpen(ctx context.Context, professorID, subject string) ([]*model.Availability, error) {
	availabilities, err := s.store.ListOpenFrom(ctx, s.now(), professorID, subject)
	if err != nil {
		return nil, fmt.Errorf("list open availabilities: %w", err)
	}
	return availabilities, nil
}

// AvailableSessions returns every future slot, open or reserved, and
// kicks off a purge sweep as a fire-and-forget side effect. Purge
// failures never surface to the caller.
func (s *AvailabilityService) AvailableSessions(ctx context.Context) ([]*model.Availability, error) {
	sessions, err := s.store.ListFrom(ctx, s.startOfToday())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	go func() {
		// Detached from the request: the sweep outlives the response.
		purgeCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.PurgeExpired(purgeCtx); err != nil {
			s.logger.Error("Opportunistic purge failed", zap.Error(err))
		}
	}()

	return sessions, nil
}

// PurgeExpired deletes slots with start before today 00:00 in bounded
// batches, looping until none remain.
func (s *AvailabilityService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.startOfToday()

	var total int64
	for {
		deleted, err := s.store.DeleteStartedBefore(ctx, cutoff, s.purgeBatchSize)
		if err != nil {
			return total, fmt.Errorf("purge expired availabilities: %w", err)
		}
		total += deleted
		if deleted < int64(s.purgeBatchSize) {
			break
		}
	}

	if total > 0 {
		s.metrics.RecordPurgedSlots(total)
		s.logger.Info("Expired availabilities purged", zap.Int64("count", total))
	}

	return total, nil
}

func (s *AvailabilityService) startOfToday() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// combineDateTime builds a canonical UTC instant from the denormalized
// "2006-01-02" and "15:04" strings.
func combineDateTime(date, clock string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected date %q and time %q", "2006-01-02", "15:04")
	}
	return t, nil
}
