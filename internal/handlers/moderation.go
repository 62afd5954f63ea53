package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/services"
	"github.com/localspark/marketplace-backend/internal/types"
)

type ModerationHandler struct {
	flagging *services.FlaggingEngine
}

func NewModerationHandler(flagging *services.FlaggingEngine) *ModerationHandler {
	return &ModerationHandler{flagging: flagging}
}

type flagBody struct {
	Reason         types.FlagReason `json:"reason"`
	SentimentScore float64          `json:"sentiment_score"`
}

func (h *ModerationHandler) Flag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body flagBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if body.Reason == "" {
		body.Reason = types.FlagReasonManual
	}
	flag, err := h.flagging.Flag(c.Request.Context(), id, body.Reason, body.SentimentScore)
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "flag_failed", err)
		return
	}
	RespondOK(c, gin.H{"flag": flag})
}

// Resolve is idempotent: resolving a profile with no open flag reports
// resolved=false without error.
func (h *ModerationHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	resolved := h.flagging.Resolve(c.Request.Context(), id)
	RespondOK(c, gin.H{"resolved": resolved})
}

func (h *ModerationHandler) IncrementRewrite(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	count, ok := h.flagging.IncrementRewrite(c.Request.Context(), id)
	if !ok {
		RespondOK(c, gin.H{"incremented": false})
		return
	}
	RespondOK(c, gin.H{"incremented": true, "rewrite_count": count})
}
