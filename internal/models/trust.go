package models

import "time"

// TutorTrustInput is a snapshot of the aggregates the trust score is a
// pure function of. It is derived fresh before every recompute, never
// updated incrementally.
type TutorTrustInput struct {
	Verified               bool    `json:"verified"`
	AverageRating          float64 `json:"average_rating"`
	TotalReviews           int     `json:"total_reviews"`
	TotalBookings          int     `json:"total_bookings"`
	TotalCompletedBookings int     `json:"total_completed_bookings"`
	TotalCancelledBookings int     `json:"total_cancelled_bookings"`
	AvgResponseTimeSeconds float64 `json:"avg_response_time_seconds"`
	PolicyViolationsCount  int     `json:"policy_violations_count"`
}

// TrustAggregates is the refreshed counter set persisted alongside a
// recomputed trust score.
type TrustAggregates struct {
	TotalBookings          int
	TotalCompletedBookings int
	TotalCancelledBookings int
	TotalReviews           int
	AverageRating          float64
	UpdatedAt              time.Time
}
