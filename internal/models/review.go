package models

// ReviewAggregate summarises a tutor's reviews.
type ReviewAggregate struct {
	TotalReviews  int     `db:"total_reviews"`
	AverageRating float64 `db:"average_rating"`
}
