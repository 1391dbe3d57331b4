package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sitespark/backend/internal/jobs"
	"github.com/sitespark/backend/internal/services/showcase"
)

// ShowcaseHandler serves the ranked showcase and the admin rebuild hook
type ShowcaseHandler struct {
	showcaseSvc *showcase.Service
	rankJob     *jobs.ShowcaseRankJob
}

// NewShowcaseHandler creates a new showcase handler
func NewShowcaseHandler(showcaseSvc *showcase.Service, rankJob *jobs.ShowcaseRankJob) *ShowcaseHandler {
	return &ShowcaseHandler{showcaseSvc: showcaseSvc, rankJob: rankJob}
}

// GetShowcase returns one page of the current ranking
func (h *ShowcaseHandler) GetShowcase(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, total, err := h.showcaseSvc.GetShowcase(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load showcase"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// RebuildShowcase enqueues an on-demand ranking run (admin only)
func (h *ShowcaseHandler) RebuildShowcase(c *gin.Context) {
	if err := h.rankJob.EnqueueRankJob(true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue showcase rebuild"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "rebuild_enqueued"})
}
