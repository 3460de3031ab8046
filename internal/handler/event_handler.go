package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appErrors "github.com/mentorme/matching-api/pkg/errors"
	"github.com/mentorme/matching-api/pkg/jobs"
	"github.com/mentorme/matching-api/pkg/response"
)

const (
	// JobTypeTrustRecompute labels queued trust-score recomputes so the
	// worker log shows which event produced them.
	JobTypeTrustRecompute = "trust.recompute"
)

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// EventHandler accepts domain events from other services and turns them
// into background work. Events are fire-and-forget: the caller gets 202
// once the job is queued, never the recompute result.
type EventHandler struct {
	queue jobEnqueuer
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(queue jobEnqueuer) *EventHandler {
	return &EventHandler{queue: queue}
}

type tutorEventPayload struct {
	TutorID string `json:"tutor_id" binding:"required"`
}

// BookingCompleted godoc
// @Summary Ingest a booking-completed event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body tutorEventPayload true "Event payload"
// @Success 202 {object} response.Envelope
// @Router /events/booking-completed [post]
func (h *EventHandler) BookingCompleted(c *gin.Context) {
	h.enqueueRecompute(c, "booking-completed")
}

// ReviewCreated godoc
// @Summary Ingest a review-created event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body tutorEventPayload true "Event payload"
// @Success 202 {object} response.Envelope
// @Router /events/review-created [post]
func (h *EventHandler) ReviewCreated(c *gin.Context) {
	h.enqueueRecompute(c, "review-created")
}

func (h *EventHandler) enqueueRecompute(c *gin.Context, source string) {
	var payload tutorEventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeTrustRecompute,
		TutorID: payload.TutorID,
	}
	if err := h.queue.Enqueue(job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue trust recompute"))
		return
	}

	response.Accepted(c, gin.H{
		"job_id":   job.ID,
		"tutor_id": payload.TutorID,
		"source":   source,
	})
}
