package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/models"
	"github.com/sitespark/backend/internal/services/showcase"
	"github.com/sitespark/backend/internal/services/viral"
	"gorm.io/gorm"
)

// ViralHandler handles share/pageview recording and score reads
type ViralHandler struct {
	ingestor    *viral.Ingestor
	showcaseSvc *showcase.Service
}

// NewViralHandler creates a new viral handler
func NewViralHandler(ingestor *viral.Ingestor, showcaseSvc *showcase.Service) *ViralHandler {
	return &ViralHandler{ingestor: ingestor, showcaseSvc: showcaseSvc}
}

// RecordShareRequest carries one external-share report
type RecordShareRequest struct {
	Platform       string     `json:"platform" binding:"required"`
	IdempotencyKey string     `json:"idempotency_key" binding:"required"`
	OccurredAt     *time.Time `json:"occurred_at"`
}

// RecordShare records an external share. Replays with the same
// idempotency key return accepted=false and the unchanged count; clients
// retry failed calls with the same key.
func (h *ViralHandler) RecordShare(c *gin.Context) {
	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	var req RecordShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	result, err := h.ingestor.RecordShare(siteID, models.SharePlatform(req.Platform), req.IdempotencyKey, occurredAt)
	if err != nil {
		switch {
		case errors.Is(err, viral.ErrUnknownPlatform):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		case errors.Is(err, viral.ErrSiteRetired):
			c.JSON(http.StatusConflict, gin.H{"error": "site is retired"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
		default:
			// Transient after retries; the client resends with the same key.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to record share, retry with the same idempotency key"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordPageviewsRequest batches raw view counts
type RecordPageviewsRequest struct {
	Count int64 `json:"count" binding:"required"`
}

// RecordPageviews adds to a site's view counter
func (h *ViralHandler) RecordPageviews(c *gin.Context) {
	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	var req RecordPageviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ingestor.RecordPageview(siteID, req.Count); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// GetScore returns a site's current viral score
func (h *ViralHandler) GetScore(c *gin.Context) {
	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	score, err := h.showcaseSvc.GetScore(c.Request.Context(), siteID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute score"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"site_id": siteID, "score": score})
}
