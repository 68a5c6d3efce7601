package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const availabilityColumns = `id, professor_id, professor_name, subject, subject_lower, modality, room,
	       start_at, end_at, duration_minutes, date, start_time, end_time,
	       is_available, student_id, created_at`

type AvailabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// Create inserts one availability document. Each publish gets a fresh
// id; there is no read-before-write.
func (r *AvailabilityRepository) Create(ctx context.Context, availability *model.Availability) error {
	if availability.ID == "" {
		availability.ID = uuid.New().String()
	}

	query := `
		INSERT INTO availabilities (id, professor_id, professor_name, subject, subject_lower, modality, room,
		                            start_at, end_at, duration_minutes, date, start_time, end_time,
		                            is_available, student_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		availability.ID,
		availability.ProfessorID,
		availability.ProfessorName,
		availability.Subject,
		availability.SubjectLower,
		availability.Modality,
		availability.Room,
		availability.StartAt,
		availability.EndAt,
		availability.DurationMinutes,
		availability.Date,
		availability.StartTime,
		availability.EndTime,
		availability.IsAvailable,
		availability.StudentID,
	).Scan(&availability.CreatedAt)

	if err != nil {
		return fmt.Errorf("create availability: %w", err)
	}

	return nil
}

// GetByID loads one availability. Returns (nil, nil) when it does not exist.
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*model.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availabilities WHERE id = $1`

	availability, err := scanAvailability(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability by id: %w", err)
	}

	return availability, nil
}

// ListOpenFrom returns open future slots. The (start_at, id) order
// gives a stable secondary order for equal start instants.
func (r *AvailabilityRepository) ListOpenFrom(ctx context.Context, from time.Time, professorID, subject string) ([]*model.Availability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availabilities
		WHERE is_available = TRUE
		  AND start_at >= $1
		  AND ($2 = '' OR professor_id = $2)
		  AND ($3 = '' OR subject_lower = lower($3))
		ORDER BY start_at, id
	`

	rows, err := r.pool.Query(ctx, query, from, professorID, subject)
	if err != nil {
		return nil, fmt.Errorf("list open availabilities: %w", err)
	}
	defer rows.Close()

	return collectAvailabilities(rows)
}

// ListFrom returns every slot starting at or after from, open or reserved.
func (r *AvailabilityRepository) ListFrom(ctx context.Context, from time.Time) ([]*model.Availability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availabilities
		WHERE start_at >= $1
		ORDER BY start_at, id
	`

	rows, err := r.pool.Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("list availabilities: %w", err)
	}
	defer rows.Close()

	return collectAvailabilities(rows)
}

// Reserve flips an open slot to reserved in a single guarded update.
// The WHERE clause on is_available is what makes two concurrent
// reservers resolve to exactly one winner.
func (r *AvailabilityRepository) Reserve(ctx context.Context, id, studentID string) error {
	query := `
		UPDATE availabilities
		SET is_available = FALSE, student_id = $1
		WHERE id = $2 AND is_available = TRUE
	`

	result, err := r.pool.Exec(ctx, query, studentID, id)
	if err != nil {
		return fmt.Errorf("reserve availability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyMiss(ctx, id, model.ErrAlreadyReserved)
	}

	return nil
}

// Release reopens a reserved slot, clearing flag and student together.
// A non-empty studentID extends the guard so only that student's
// reservation is cleared.
func (r *AvailabilityRepository) Release(ctx context.Context, id, studentID string) error {
	query := `
		UPDATE availabilities
		SET is_available = TRUE, student_id = NULL
		WHERE id = $1 AND is_available = FALSE
		  AND ($2 = '' OR student_id = $2)
	`

	result, err := r.pool.Exec(ctx, query, id, studentID)
	if err != nil {
		return fmt.Errorf("release availability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyMiss(ctx, id, model.ErrNotReserved)
	}

	return nil
}

// classifyMiss distinguishes "row gone" from "guard failed" after a
// conditional update matched nothing.
func (r *AvailabilityRepository) classifyMiss(ctx context.Context, id string, guardErr error) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM availabilities WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check availability exists: %w", err)
	}

	if !exists {
		return model.ErrAvailabilityNotFound
	}
	return guardErr
}

// DeleteStartedBefore removes at most limit expired slots per call.
// Callers loop until it reports zero deletions.
func (r *AvailabilityRepository) DeleteStartedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	query := `
		DELETE FROM availabilities
		WHERE id IN (
			SELECT id FROM availabilities
			WHERE start_at < $1
			ORDER BY start_at
			LIMIT $2
		)
	`

	result, err := r.pool.Exec(ctx, query, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired availabilities: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanAvailability(row pgx.Row) (*model.Availability, error) {
	var a model.Availability
	err := row.Scan(
		&a.ID,
		&a.ProfessorID,
		&a.ProfessorName,
		&a.Subject,
		&a.SubjectLower,
		&a.Modality,
		&a.Room,
		&a.StartAt,
		&a.EndAt,
		&a.DurationMinutes,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.IsAvailable,
		&a.StudentID,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAvailabilities(rows pgx.Rows) ([]*model.Availability, error) {
	var availabilities []*model.Availability
	for rows.Next() {
		availability, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		availabilities = append(availabilities, availability)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availabilities: %w", err)
	}

	return availabilities, nil
}
