package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mentorme/matching-api/internal/models"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
	"github.com/mentorme/matching-api/pkg/response"
)

type tutorBrowser interface {
	FindCandidates(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateTutor, error)
}

type trustRecomputer interface {
	Recompute(ctx context.Context, tutorID string) (float64, error)
}

type profileEmbeddingUpdater interface {
	UpdateTutorProfileEmbedding(ctx context.Context, tutorID string) error
}

// TutorHandler exposes tutor browsing and per-tutor maintenance endpoints.
type TutorHandler struct {
	tutors    tutorBrowser
	trust     trustRecomputer
	embedding profileEmbeddingUpdater
}

// NewTutorHandler constructs TutorHandler.
func NewTutorHandler(tutors tutorBrowser, trust trustRecomputer, embedding profileEmbeddingUpdater) *TutorHandler {
	return &TutorHandler{tutors: tutors, trust: trust, embedding: embedding}
}

// List godoc
// @Summary List verified tutors offering a subject
// @Tags Tutors
// @Produce json
// @Param subjectId query string true "Subject ID"
// @Param city query string false "Filter by city"
// @Param district query string false "Filter by district"
// @Param priceMin query number false "Minimum price per hour"
// @Param priceMax query number false "Maximum price per hour"
// @Param trustScoreMin query number false "Minimum trust score"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tutors [get]
func (h *TutorHandler) List(c *gin.Context) {
	filter := models.CandidateFilter{
		SubjectID: strings.TrimSpace(c.Query("subjectId")),
		City:      strings.TrimSpace(c.Query("city")),
		District:  strings.TrimSpace(c.Query("district")),
	}
	if filter.SubjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId is required"))
		return
	}

	var parseErr error
	filter.PriceMin = parseFloatQuery(c, "priceMin", &parseErr)
	filter.PriceMax = parseFloatQuery(c, "priceMax", &parseErr)
	filter.TrustScoreMin = parseFloatQuery(c, "trustScoreMin", &parseErr)
	if parseErr != nil {
		response.Error(c, parseErr)
		return
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		filter.Limit = limit
	}

	tutors, err := h.tutors.FindCandidates(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tutors, nil, map[string]interface{}{
		"count": len(tutors),
	})
}

// RecomputeTrustScore godoc
// @Summary Recompute and persist a tutor's trust score
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/trust-score/recompute [post]
func (h *TutorHandler) RecomputeTrustScore(c *gin.Context) {
	tutorID := c.Param("id")
	score, err := h.trust.Recompute(c.Request.Context(), tutorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"tutor_id":    tutorID,
		"trust_score": score,
	}, nil)
}

// RefreshEmbedding godoc
// @Summary Regenerate a tutor's profile embedding
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/embedding/refresh [post]
func (h *TutorHandler) RefreshEmbedding(c *gin.Context) {
	tutorID := c.Param("id")
	if err := h.embedding.UpdateTutorProfileEmbedding(c.Request.Context(), tutorID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"tutor_id": tutorID,
		"status":   "refreshed",
	}, nil)
}

func parseFloatQuery(c *gin.Context, name string, parseErr *error) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" || *parseErr != nil {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*parseErr = appErrors.Clone(appErrors.ErrValidation, name+" must be a number")
		return nil
	}
	return &value
}
