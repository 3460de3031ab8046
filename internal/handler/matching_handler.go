package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mentorme/matching-api/internal/models"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
	"github.com/mentorme/matching-api/pkg/response"
)

type matchingService interface {
	MatchTutors(ctx context.Context, request models.MatchingRequest, limit int) ([]models.MatchedTutor, error)
}

// MatchingHandler exposes the tutor matching endpoint.
type MatchingHandler struct {
	matching matchingService
}

// NewMatchingHandler constructs MatchingHandler.
func NewMatchingHandler(matching matchingService) *MatchingHandler {
	return &MatchingHandler{matching: matching}
}

// Match godoc
// @Summary Rank tutors against a matching request
// @Tags Matching
// @Accept json
// @Produce json
// @Param limit query int false "Maximum results"
// @Param payload body models.MatchingRequest true "Matching request"
// @Success 200 {object} response.Envelope
// @Router /matching/match [post]
func (h *MatchingHandler) Match(c *gin.Context) {
	var request models.MatchingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer"))
			return
		}
		limit = parsed
	}

	matches, err := h.matching.MatchTutors(c.Request.Context(), request, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, nil, map[string]interface{}{
		"count": len(matches),
	})
}
