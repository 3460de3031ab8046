package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorme/matching-api/internal/models"
)

func TestBookingRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE tutor_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE tutor_id = $1 AND status = $2")).
		WithArgs("t1", string(models.BookingCompleted)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	total, err := repo.CountByTutor(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	completed, err := repo.CountByTutorAndStatus(context.Background(), "t1", models.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, 10, completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
