package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mentorme/matching-api/internal/models"
)

// BookingRepository exposes the booking aggregates the trust score
// recompute reads. Booking lifecycle itself is owned elsewhere.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CountByTutor returns the total number of bookings for a tutor.
func (r *BookingRepository) CountByTutor(ctx context.Context, tutorID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings WHERE tutor_id = $1`, tutorID); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

// CountByTutorAndStatus returns the number of a tutor's bookings in the
// given status.
func (r *BookingRepository) CountByTutorAndStatus(ctx context.Context, tutorID string, status models.BookingStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM bookings WHERE tutor_id = $1 AND status = $2`, tutorID, status); err != nil {
		return 0, fmt.Errorf("count bookings by status: %w", err)
	}
	return count, nil
}
