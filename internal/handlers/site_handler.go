package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/models"
	"github.com/sitespark/backend/internal/services/viral"
	"gorm.io/gorm"
)

// SiteHandler handles site registration and lifecycle requests
type SiteHandler struct {
	db       *gorm.DB
	ingestor *viral.Ingestor
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(db *gorm.DB, ingestor *viral.Ingestor) *SiteHandler {
	return &SiteHandler{db: db, ingestor: ingestor}
}

// RegisterSiteRequest is the content pipeline's site hand-off
type RegisterSiteRequest struct {
	Name string `json:"name" binding:"required"`
	Tier string `json:"tier"`
}

// RegisterSite registers a newly generated site with the growth engine
func (h *SiteHandler) RegisterSite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req RegisterSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tier := models.Tier(req.Tier)
	if tier == "" {
		tier = models.TierFree
	}
	if tier != models.TierFree && tier != models.TierPro {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tier"})
		return
	}

	site, err := h.ingestor.RegisterSite(userID, req.Name, tier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register site"})
		return
	}

	c.JSON(http.StatusCreated, site)
}

// GetSite returns one tracked site
func (h *SiteHandler) GetSite(c *gin.Context) {
	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	var site models.Site
	if err := h.db.First(&site, "id = ?", siteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get site"})
		return
	}

	c.JSON(http.StatusOK, site)
}

// RetireSite soft-retires a site owned by the caller
func (h *SiteHandler) RetireSite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	var site models.Site
	if err := h.db.First(&site, "id = ?", siteID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
		return
	}
	if site.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	if err := h.ingestor.RetireSite(siteID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "site already retired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retire site"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "retired"})
}

// currentUserID pulls the authenticated user out of the gin context
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return uuid.Nil, false
	}

	return userID, true
}
