package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitespark/backend/internal/handlers"
	"github.com/sitespark/backend/internal/middleware"
)

// RegisterRoutes wires the engine's HTTP surface. Ingest endpoints are
// rate limited per IP and per site; reads are public, mutation requires
// auth, and operational hooks require admin.
func RegisterRoutes(
	router *gin.Engine,
	siteHandler *handlers.SiteHandler,
	viralHandler *handlers.ViralHandler,
	referralHandler *handlers.ReferralHandler,
	showcaseHandler *handlers.ShowcaseHandler,
	rateLimiter *middleware.RateLimiter,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	// Public reads
	router.GET("/api/showcase", showcaseHandler.GetShowcase)
	router.GET("/api/sites/:id/score", viralHandler.GetScore)

	// Event ingest: called by the UI/client layer, idempotent on retry
	ingestGroup := router.Group("/api/sites/:id")
	ingestGroup.Use(rateLimiter.IngestRateLimiterMiddleware())
	{
		ingestGroup.POST("/shares", viralHandler.RecordShare)
		ingestGroup.POST("/views", viralHandler.RecordPageviews)
	}

	// Site lifecycle: authenticated owners and the content pipeline
	siteGroup := router.Group("/api/sites")
	siteGroup.Use(middleware.AuthMiddleware())
	{
		siteGroup.POST("", siteHandler.RegisterSite)
		siteGroup.GET("/:id", siteHandler.GetSite)
		siteGroup.DELETE("/:id", siteHandler.RetireSite)
	}

	// Referrals and commissions
	referralGroup := router.Group("/api/referrals")
	referralGroup.Use(middleware.AuthMiddleware())
	{
		referralGroup.POST("/conversions", referralHandler.RecordConversion)
		referralGroup.GET("/commission-summary", referralHandler.GetCommissionSummary)
		referralGroup.GET("/milestones", referralHandler.GetMilestoneStatus)
	}

	// Operational hooks
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		adminGroup.POST("/showcase/rebuild", showcaseHandler.RebuildShowcase)
		adminGroup.POST("/referrals/revenue", referralHandler.RecordRevenue)
	}
}
