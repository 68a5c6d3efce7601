package repository

import (
	"context"
	"fmt"

	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// Create appends one reservation record. Rows are never updated or
// deleted afterwards.
func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}

	query := `
		INSERT INTO reservations (id, student_id, availability_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		reservation.ID,
		reservation.StudentID,
		reservation.AvailabilityID,
	).Scan(&reservation.CreatedAt)

	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}

	return nil
}

// ExistsFor reports whether the student ever reserved the availability.
func (r *ReservationRepository) ExistsFor(ctx context.Context, studentID, availabilityID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE student_id = $1 AND availability_id = $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, studentID, availabilityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation exists: %w", err)
	}

	return exists, nil
}

// ListByStudent returns the student's reservation history, newest first.
func (r *ReservationRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error) {
	query := `
		SELECT id, student_id, availability_id, created_at
		FROM reservations
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list reservations by student: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return reservations, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.StudentID,
		&res.AvailabilityID,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
