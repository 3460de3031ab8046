package models

import "time"

// LocationType enumerates where a class or availability takes place.
type LocationType string

const (
	LocationOnline    LocationType = "ONLINE"
	LocationAtStudent LocationType = "AT_STUDENT"
	LocationAtTutor   LocationType = "AT_TUTOR"
)

// TutorProfile represents a tutor's long-lived marketplace record. Trust
// score, average rating and the booking/review counters are a cached,
// recomputable projection of booking and review state.
type TutorProfile struct {
	ID                      string     `db:"id" json:"id"`
	UserID                  string     `db:"user_id" json:"user_id"`
	FullName                string     `db:"full_name" json:"full_name"`
	Bio                     *string    `db:"bio" json:"bio,omitempty"`
	Education               *string    `db:"education" json:"education,omitempty"`
	City                    *string    `db:"city" json:"city,omitempty"`
	District                *string    `db:"district" json:"district,omitempty"`
	Verified                bool       `db:"verified" json:"verified"`
	TrustScore              float64    `db:"trust_score" json:"trust_score"`
	AverageRating           float64    `db:"average_rating" json:"average_rating"`
	TotalReviews            int        `db:"total_reviews" json:"total_reviews"`
	TotalBookings           int        `db:"total_bookings" json:"total_bookings"`
	TotalCompletedBookings  int        `db:"total_completed_bookings" json:"total_completed_bookings"`
	TotalCancelledBookings  int        `db:"total_cancelled_bookings" json:"total_cancelled_bookings"`
	AvgResponseTimeSeconds  float64    `db:"avg_response_time_seconds" json:"avg_response_time_seconds"`
	PolicyViolationsCount   int        `db:"policy_violations_count" json:"policy_violations_count"`
	ProfileEmbedding        Vector     `db:"profile_embedding" json:"profile_embedding,omitempty"`
	ProfileEmbeddingModel   *string    `db:"profile_embedding_model" json:"profile_embedding_model,omitempty"`
	LastTrustScoreUpdatedAt *time.Time `db:"last_trust_score_updated_at" json:"last_trust_score_updated_at,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// TutorClass is a published class offered by a tutor.
type TutorClass struct {
	ID           string       `db:"id" json:"id"`
	TutorID      string       `db:"tutor_id" json:"tutor_id"`
	SubjectID    string       `db:"subject_id" json:"subject_id"`
	TargetGrade  *string      `db:"target_grade" json:"target_grade,omitempty"`
	PricePerHour float64      `db:"price_per_hour" json:"price_per_hour"`
	LocationType LocationType `db:"location_type" json:"location_type"`
	City         *string      `db:"city" json:"city,omitempty"`
	District     *string      `db:"district" json:"district,omitempty"`
}

// TutorAvailability is a recurring weekly slot a tutor has declared open.
type TutorAvailability struct {
	ID           string       `db:"id" json:"id"`
	TutorID      string       `db:"tutor_id" json:"tutor_id"`
	DayOfWeek    int          `db:"day_of_week" json:"day_of_week"`
	StartMinute  int          `db:"start_minute" json:"start_minute"`
	EndMinute    int          `db:"end_minute" json:"end_minute"`
	LocationType LocationType `db:"location_type" json:"location_type"`
}

// CandidateTutor is the read-only view the matching engine scores: a
// profile together with its published classes and weekly availability.
// The engine never mutates it.
type CandidateTutor struct {
	Profile        TutorProfile        `json:"profile"`
	Classes        []TutorClass        `json:"classes"`
	Availabilities []TutorAvailability `json:"availabilities"`
}

// TutorProfileText carries the free-text profile parts the embedding
// gateway concatenates.
type TutorProfileText struct {
	Bio          *string
	Education    *string
	Certificates []string
}

// CandidateFilter is the coarse pre-filter applied in storage before
// fine-grained scoring.
type CandidateFilter struct {
	SubjectID     string
	City          string
	District      string
	PriceMin      *float64
	PriceMax      *float64
	TrustScoreMin *float64
	Limit         int
}
