package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorme/matching-api/internal/models"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
)

type fakeTutorBrowser struct {
	tutors     []models.CandidateTutor
	err        error
	lastFilter models.CandidateFilter
}

func (f *fakeTutorBrowser) FindCandidates(_ context.Context, filter models.CandidateFilter) ([]models.CandidateTutor, error) {
	f.lastFilter = filter
	return f.tutors, f.err
}

type fakeTrustRecomputer struct {
	score  float64
	err    error
	lastID string
}

func (f *fakeTrustRecomputer) Recompute(_ context.Context, tutorID string) (float64, error) {
	f.lastID = tutorID
	return f.score, f.err
}

type fakeEmbeddingUpdater struct {
	err    error
	lastID string
}

func (f *fakeEmbeddingUpdater) UpdateTutorProfileEmbedding(_ context.Context, tutorID string) error {
	f.lastID = tutorID
	return f.err
}

func getRequest(target string) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return rec, c
}

func TestTutorHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	browser := &fakeTutorBrowser{tutors: []models.CandidateTutor{
		{Profile: models.TutorProfile{ID: "t1"}},
	}}
	handler := NewTutorHandler(browser, &fakeTrustRecomputer{}, &fakeEmbeddingUpdater{})

	rec, c := getRequest("/tutors?subjectId=math&city=Hanoi&priceMin=100000&priceMax=300000&trustScoreMin=70&limit=20")
	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "math", browser.lastFilter.SubjectID)
	assert.Equal(t, "Hanoi", browser.lastFilter.City)
	require.NotNil(t, browser.lastFilter.PriceMin)
	assert.InDelta(t, 100000, *browser.lastFilter.PriceMin, 1e-9)
	require.NotNil(t, browser.lastFilter.PriceMax)
	assert.InDelta(t, 300000, *browser.lastFilter.PriceMax, 1e-9)
	require.NotNil(t, browser.lastFilter.TrustScoreMin)
	assert.InDelta(t, 70, *browser.lastFilter.TrustScoreMin, 1e-9)
	assert.Equal(t, 20, browser.lastFilter.Limit)
}

func TestTutorHandlerListRequiresSubject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTutorHandler(&fakeTutorBrowser{}, &fakeTrustRecomputer{}, &fakeEmbeddingUpdater{})

	rec, c := getRequest("/tutors")
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTutorHandlerListRejectsBadNumber(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTutorHandler(&fakeTutorBrowser{}, &fakeTrustRecomputer{}, &fakeEmbeddingUpdater{})

	rec, c := getRequest("/tutors?subjectId=math&priceMin=cheap")
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTutorHandlerRecomputeTrustScore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	trust := &fakeTrustRecomputer{score: 87.5}
	handler := NewTutorHandler(&fakeTutorBrowser{}, trust, &fakeEmbeddingUpdater{})

	rec, c := getRequest("/tutors/t1/trust-score/recompute")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	handler.RecomputeTrustScore(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", trust.lastID)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.EqualValues(t, 87.5, data["trust_score"])
}

func TestTutorHandlerRecomputeNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	trust := &fakeTrustRecomputer{err: appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")}
	handler := NewTutorHandler(&fakeTutorBrowser{}, trust, &fakeEmbeddingUpdater{})

	rec, c := getRequest("/tutors/missing/trust-score/recompute")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.RecomputeTrustScore(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTutorHandlerRefreshEmbedding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	embedding := &fakeEmbeddingUpdater{}
	handler := NewTutorHandler(&fakeTutorBrowser{}, &fakeTrustRecomputer{}, embedding)

	rec, c := getRequest("/tutors/t1/embedding/refresh")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	handler.RefreshEmbedding(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", embedding.lastID)
}
