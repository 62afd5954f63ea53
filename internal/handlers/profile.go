package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileStore
}

func NewProfileHandler(profiles *services.ProfileStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Create(c *gin.Context) {
	var input services.CreateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	profile, err := h.profiles.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile})
}

func (h *ProfileHandler) List(c *gin.Context) {
	RespondOK(c, gin.H{"profiles": h.profiles.List()})
}

func (h *ProfileHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	profile, ok := h.profiles.Get(id)
	if !ok {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("profile %s not found", id))
		return
	}
	RespondOK(c, gin.H{"profile": profile})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), id, input)
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"profile": profile})
}

func (h *ProfileHandler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.profiles.Retry(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "retry_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "generation_queued"})
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	h.profiles.Delete(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}
