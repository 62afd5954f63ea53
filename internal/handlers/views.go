package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/services"
)

type ViewHandler struct {
	tracker *services.ViewTracker
}

func NewViewHandler(tracker *services.ViewTracker) *ViewHandler {
	return &ViewHandler{tracker: tracker}
}

type recordViewBody struct {
	DisplayName string `json:"display_name"`
	ProfileType string `json:"profile_type"`
}

// RecordView treats an unknown profile as a no-op and still returns
// 200 with recorded=false.
func (h *ViewHandler) RecordView(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	// The body is optional; an empty one reads as io.EOF and is fine, but a
	// present-and-malformed body is rejected.
	var body recordViewBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	metric, recorded := h.tracker.RecordView(c.Request.Context(), id, body.DisplayName, body.ProfileType)
	if !recorded {
		RespondOK(c, gin.H{"recorded": false})
		return
	}
	RespondOK(c, gin.H{"recorded": true, "metric": metric})
}

func (h *ViewHandler) RecordBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	metric, recorded := h.tracker.RecordBooking(c.Request.Context(), id)
	if !recorded {
		RespondOK(c, gin.H{"recorded": false})
		return
	}
	RespondOK(c, gin.H{"recorded": true, "metric": metric})
}
