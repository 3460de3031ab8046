package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/mentorme/matching-api/internal/models"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
)

type trustTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutorProfile, error)
	UpdateTrustScore(ctx context.Context, id string, score float64, aggregates models.TrustAggregates) error
}

type trustBookingRepository interface {
	CountByTutor(ctx context.Context, tutorID string) (int, error)
	CountByTutorAndStatus(ctx context.Context, tutorID string, status models.BookingStatus) (int, error)
}

type trustReviewRepository interface {
	AggregateByTutor(ctx context.Context, tutorID string) (*models.ReviewAggregate, error)
}

// CalculateTrustScore maps a tutor's aggregate history onto a 0-100
// reputation score. Five additive components, one subtractive penalty,
// clamped to [0,100]:
//
//	profile        verified bonus 15 + review count capped at 20, max 35
//	completion     step function over the completion rate (5/10/18/25)
//	rating         linear, (rating/5) * 25
//	responsiveness step function over avg response time (10/7/4/2)
//	policy         +5 clean, +2 for one violation, flat -10 from two up
//
// The completion steps are deliberate: crossing 50/75/90 percent marks
// adoption thresholds rather than a smooth gradient.
func CalculateTrustScore(input models.TutorTrustInput) float64 {
	verificationScore := 0.0
	if input.Verified {
		verificationScore = 15
	}
	reviewsScore := float64(input.TotalReviews)
	if reviewsScore > 20 {
		reviewsScore = 20
	}
	profileScore := verificationScore + reviewsScore
	if profileScore > 35 {
		profileScore = 35
	}

	completionRate := 1.0
	if input.TotalBookings > 0 {
		completionRate = float64(input.TotalCompletedBookings) / float64(input.TotalBookings)
	}
	completionScore := 5.0
	switch {
	case completionRate >= 0.9:
		completionScore = 25
	case completionRate >= 0.75:
		completionScore = 18
	case completionRate >= 0.5:
		completionScore = 10
	}

	clampedRating := clamp(input.AverageRating, 0, 5)
	ratingScore := (clampedRating / 5) * 25

	responseScore := 2.0
	switch {
	case input.AvgResponseTimeSeconds < 300:
		responseScore = 10
	case input.AvgResponseTimeSeconds < 3600:
		responseScore = 7
	case input.AvgResponseTimeSeconds < 21600:
		responseScore = 4
	}

	policyScore := 0.0
	policyPenalty := 0.0
	switch {
	case input.PolicyViolationsCount == 0:
		policyScore = 5
	case input.PolicyViolationsCount == 1:
		policyScore = 2
	default:
		policyPenalty = 10
	}

	total := profileScore + completionScore + ratingScore + responseScore + policyScore - policyPenalty
	return clamp(total, 0, 100)
}

// TrustScoreService recomputes and persists tutor trust scores. It is
// pull-based: callers trigger a recompute after any booking or review
// mutation, and every recompute re-reads aggregates from scratch.
type TrustScoreService struct {
	tutors   trustTutorRepository
	bookings trustBookingRepository
	reviews  trustReviewRepository
	logger   *zap.Logger
}

// NewTrustScoreService constructs a TrustScoreService.
func NewTrustScoreService(tutors trustTutorRepository, bookings trustBookingRepository, reviews trustReviewRepository, logger *zap.Logger) *TrustScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrustScoreService{tutors: tutors, bookings: bookings, reviews: reviews, logger: logger}
}

// Recompute derives a fresh TutorTrustInput snapshot for the tutor,
// recalculates the trust score and persists it together with the
// refreshed aggregates. It returns the newly stored score. Concurrent
// recomputes for the same tutor are a last-write-wins race; both writes
// derive from full snapshots, so the stored score is always consistent
// with some recent state.
func (s *TrustScoreService) Recompute(ctx context.Context, tutorID string) (float64, error) {
	profile, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor profile")
	}

	totalBookings, err := s.bookings.CountByTutor(ctx, tutorID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookings")
	}
	completed, err := s.bookings.CountByTutorAndStatus(ctx, tutorID, models.BookingCompleted)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count completed bookings")
	}
	cancelled, err := s.bookings.CountByTutorAndStatus(ctx, tutorID, models.BookingCancelled)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cancelled bookings")
	}
	reviewAgg, err := s.reviews.AggregateByTutor(ctx, tutorID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate reviews")
	}

	input := models.TutorTrustInput{
		Verified:               profile.Verified,
		AverageRating:          reviewAgg.AverageRating,
		TotalReviews:           reviewAgg.TotalReviews,
		TotalBookings:          totalBookings,
		TotalCompletedBookings: completed,
		TotalCancelledBookings: cancelled,
		AvgResponseTimeSeconds: profile.AvgResponseTimeSeconds,
		PolicyViolationsCount:  profile.PolicyViolationsCount,
	}
	score := CalculateTrustScore(input)

	aggregates := models.TrustAggregates{
		TotalBookings:          totalBookings,
		TotalCompletedBookings: completed,
		TotalCancelledBookings: cancelled,
		TotalReviews:           reviewAgg.TotalReviews,
		AverageRating:          reviewAgg.AverageRating,
		UpdatedAt:              time.Now().UTC(),
	}
	if err := s.tutors.UpdateTrustScore(ctx, tutorID, score, aggregates); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist trust score")
	}

	s.logger.Sugar().Infow("trust score recomputed",
		"tutor_id", tutorID,
		"score", score,
		"total_bookings", totalBookings,
		"total_reviews", reviewAgg.TotalReviews,
	)
	return score, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
