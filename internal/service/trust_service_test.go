package service

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mentorme/matching-api/internal/models"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
)

func TestCalculateTrustScoreComponents(t *testing.T) {
	cases := []struct {
		name  string
		input models.TutorTrustInput
		want  float64
	}{
		{
			name:  "zero value tutor",
			input: models.TutorTrustInput{},
			// profile 0, completion 25 (no bookings counts as full rate),
			// rating 0, response 10 (zero falls in the fastest band), policy +5
			want: 40,
		},
		{
			name: "fully established tutor",
			input: models.TutorTrustInput{
				Verified:               true,
				AverageRating:          5,
				TotalReviews:           50,
				TotalBookings:          100,
				TotalCompletedBookings: 95,
				AvgResponseTimeSeconds: 60,
			},
			// profile 35, completion 25, rating 25, response 10, policy 5
			want: 100,
		},
		{
			name: "two violations subtract after the additive total",
			input: models.TutorTrustInput{
				Verified:               true,
				AverageRating:          5,
				TotalReviews:           50,
				TotalBookings:          100,
				TotalCompletedBookings: 95,
				AvgResponseTimeSeconds: 60,
				PolicyViolationsCount:  2,
			},
			// 35+25+25+10+0-10 = 85: a net 15 below the clean tutor
			want: 85,
		},
		{
			name: "low completion rate",
			input: models.TutorTrustInput{
				TotalBookings:          10,
				TotalCompletedBookings: 3,
				AvgResponseTimeSeconds: 100000,
			},
			// profile 0, completion 5, rating 0, response 2, policy 5
			want: 12,
		},
		{
			name: "mid tier completion and response",
			input: models.TutorTrustInput{
				Verified:               true,
				AverageRating:          4,
				TotalReviews:           10,
				TotalBookings:          20,
				TotalCompletedBookings: 16,
				AvgResponseTimeSeconds: 1800,
			},
			// profile 25, completion 18, rating 20, response 7, policy 5
			want: 75,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, CalculateTrustScore(tc.input), 1e-9)
		})
	}
}

func TestCalculateTrustScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		total := rng.Intn(200)
		completed := 0
		if total > 0 {
			completed = rng.Intn(total + 1)
		}
		input := models.TutorTrustInput{
			Verified:               rng.Intn(2) == 0,
			AverageRating:          rng.Float64() * 7,
			TotalReviews:           rng.Intn(500),
			TotalBookings:          total,
			TotalCompletedBookings: completed,
			TotalCancelledBookings: total - completed,
			AvgResponseTimeSeconds: rng.Float64() * 100000,
			PolicyViolationsCount:  rng.Intn(5),
		}
		score := CalculateTrustScore(input)
		require.GreaterOrEqual(t, score, 0.0, "input %+v", input)
		require.LessOrEqual(t, score, 100.0, "input %+v", input)
	}
}

func TestCalculateTrustScoreMonotonicity(t *testing.T) {
	base := models.TutorTrustInput{
		Verified:               true,
		TotalReviews:           10,
		TotalBookings:          20,
		TotalCompletedBookings: 15,
		AvgResponseTimeSeconds: 600,
	}

	prev := -1.0
	for rating := 0.0; rating <= 5.0; rating += 0.5 {
		in := base
		in.AverageRating = rating
		score := CalculateTrustScore(in)
		require.GreaterOrEqual(t, score, prev, "rating %v", rating)
		prev = score
	}

	prev = 101.0
	for violations := 0; violations <= 4; violations++ {
		in := base
		in.AverageRating = 4
		in.PolicyViolationsCount = violations
		score := CalculateTrustScore(in)
		require.LessOrEqual(t, score, prev, "violations %d", violations)
		prev = score
	}
}

type mockTrustTutorRepo struct {
	profiles map[string]*models.TutorProfile
	updated  map[string]float64
	savedAgg map[string]models.TrustAggregates
}

func (m *mockTrustTutorRepo) FindByID(ctx context.Context, id string) (*models.TutorProfile, error) {
	if p, ok := m.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTrustTutorRepo) UpdateTrustScore(ctx context.Context, id string, score float64, aggregates models.TrustAggregates) error {
	if m.updated == nil {
		m.updated = make(map[string]float64)
	}
	if m.savedAgg == nil {
		m.savedAgg = make(map[string]models.TrustAggregates)
	}
	m.updated[id] = score
	m.savedAgg[id] = aggregates
	return nil
}

type mockBookingRepo struct {
	total     int
	completed int
	cancelled int
}

func (m *mockBookingRepo) CountByTutor(ctx context.Context, tutorID string) (int, error) {
	return m.total, nil
}

func (m *mockBookingRepo) CountByTutorAndStatus(ctx context.Context, tutorID string, status models.BookingStatus) (int, error) {
	switch status {
	case models.BookingCompleted:
		return m.completed, nil
	case models.BookingCancelled:
		return m.cancelled, nil
	}
	return 0, nil
}

type mockReviewRepo struct {
	agg models.ReviewAggregate
}

func (m *mockReviewRepo) AggregateByTutor(ctx context.Context, tutorID string) (*models.ReviewAggregate, error) {
	cp := m.agg
	return &cp, nil
}

func TestTrustScoreServiceRecompute(t *testing.T) {
	tutors := &mockTrustTutorRepo{
		profiles: map[string]*models.TutorProfile{
			"t1": {ID: "t1", Verified: true, AvgResponseTimeSeconds: 120, PolicyViolationsCount: 0},
		},
	}
	bookings := &mockBookingRepo{total: 40, completed: 38, cancelled: 1}
	reviews := &mockReviewRepo{agg: models.ReviewAggregate{TotalReviews: 25, AverageRating: 4.6}}

	svc := NewTrustScoreService(tutors, bookings, reviews, zap.NewNop())
	score, err := svc.Recompute(context.Background(), "t1")
	require.NoError(t, err)

	// profile 35 (15 + capped 20), completion 25, rating 23, response 10, policy 5
	assert.InDelta(t, 98, score, 1e-9)
	assert.InDelta(t, 98, tutors.updated["t1"], 1e-9)

	agg := tutors.savedAgg["t1"]
	assert.Equal(t, 40, agg.TotalBookings)
	assert.Equal(t, 38, agg.TotalCompletedBookings)
	assert.Equal(t, 1, agg.TotalCancelledBookings)
	assert.Equal(t, 25, agg.TotalReviews)
	assert.InDelta(t, 4.6, agg.AverageRating, 1e-9)
	assert.False(t, agg.UpdatedAt.IsZero())
}

func TestTrustScoreServiceRecomputeNotFound(t *testing.T) {
	svc := NewTrustScoreService(&mockTrustTutorRepo{}, &mockBookingRepo{}, &mockReviewRepo{}, zap.NewNop())
	_, err := svc.Recompute(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
