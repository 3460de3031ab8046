package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepositoryAggregateByTutor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total_reviews, COALESCE(AVG(rating), 0) AS average_rating")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"total_reviews", "average_rating"}).AddRow(8, 4.25))

	agg, err := repo.AggregateByTutor(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 8, agg.TotalReviews)
	assert.Equal(t, 4.25, agg.AverageRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryAggregateNoReviews(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total_reviews, COALESCE(AVG(rating), 0) AS average_rating")).
		WithArgs("t2").
		WillReturnRows(sqlmock.NewRows([]string{"total_reviews", "average_rating"}).AddRow(0, 0.0))

	agg, err := repo.AggregateByTutor(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.TotalReviews)
	assert.Zero(t, agg.AverageRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
