package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/localspark/marketplace-backend/internal/services"
)

type MetricsHandler struct {
	snapshots *services.MetricsSnapshotService
}

func NewMetricsHandler(snapshots *services.MetricsSnapshotService) *MetricsHandler {
	return &MetricsHandler{snapshots: snapshots}
}

func (h *MetricsHandler) Snapshot(c *gin.Context) {
	snap, err := h.snapshots.Build(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "snapshot_failed", err)
		return
	}
	RespondOK(c, snap)
}

func (h *MetricsHandler) Leaderboard(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	snap, err := h.snapshots.Build(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "snapshot_failed", err)
		return
	}
	top := snap.TopPerformingProfiles
	if len(top) > limit {
		top = top[:limit]
	}
	RespondOK(c, gin.H{"top_performing_profiles": top})
}
