package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mentorme/matching-api/internal/models"
)

// ReviewRepository exposes the review aggregates the trust score
// recompute reads.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// AggregateByTutor returns the review count and average rating for a
// tutor. Tutors without reviews aggregate to zero, not NULL.
func (r *ReviewRepository) AggregateByTutor(ctx context.Context, tutorID string) (*models.ReviewAggregate, error) {
	const query = `SELECT COUNT(*) AS total_reviews, COALESCE(AVG(rating), 0) AS average_rating
		FROM reviews WHERE tutor_id = $1`
	var agg models.ReviewAggregate
	if err := r.db.GetContext(ctx, &agg, query, tutorID); err != nil {
		return nil, fmt.Errorf("aggregate reviews: %w", err)
	}
	return &agg, nil
}
