package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sitespark/backend/internal/cache"
	"github.com/sitespark/backend/internal/config"
	"github.com/sitespark/backend/internal/database"
	"github.com/sitespark/backend/internal/database/migrations"
	"github.com/sitespark/backend/internal/handlers"
	"github.com/sitespark/backend/internal/jobs"
	"github.com/sitespark/backend/internal/middleware"
	"github.com/sitespark/backend/internal/queue"
	"github.com/sitespark/backend/internal/routes"
	"github.com/sitespark/backend/internal/services/commission"
	"github.com/sitespark/backend/internal/services/scoring"
	"github.com/sitespark/backend/internal/services/showcase"
	"github.com/sitespark/backend/internal/services/viral"
)

func main() {
	// Initialize configuration and fail fast on bad engine parameters
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup database connection
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations (ledger uniqueness indexes and the jobs table)
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Score cache is optional; the engine runs fine without Redis
	scoreCache, err := cache.NewScoreCache(cfg.Redis, cfg.Viral.ScoreCacheTTL)
	if err != nil {
		log.Printf("Warning: score cache disabled: %v", err)
		scoreCache = nil
	}

	// Initialize job queue and engine services
	jobQueue := queue.NewQueue(db)

	calculator := scoring.NewCalculator(cfg.Viral)
	ingestor := viral.NewIngestor(db, cfg.Viral, jobQueue)
	dispatcher := viral.NewDispatcher(db, cfg.Viral)
	commissionSvc := commission.NewService(db, cfg.Commission)
	ranker := showcase.NewRanker(db, calculator)
	showcaseSvc := showcase.NewService(db, calculator, scoreCache)

	// Register job handlers and start the queue processor
	jobHandlers := jobs.RegisterAllJobHandlers(jobQueue, db, dispatcher, ranker, commissionSvc)
	jobQueue.StartProcessing()

	// Schedule the recurring engine jobs
	scheduler, err := jobs.ScheduleRecurringJobs(jobQueue, jobHandlers)
	if err != nil {
		log.Fatalf("Failed to schedule recurring jobs: %v", err)
	}
	defer scheduler.Stop()

	// Initialize router
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	rateLimiter := middleware.NewRateLimiter(20, 50, 40, 100)
	defer rateLimiter.Stop()

	siteHandler := handlers.NewSiteHandler(db, ingestor)
	viralHandler := handlers.NewViralHandler(ingestor, showcaseSvc)
	referralHandler := handlers.NewReferralHandler(ingestor, dispatcher, commissionSvc)
	showcaseHandler := handlers.NewShowcaseHandler(showcaseSvc, jobHandlers.ShowcaseRank)

	routes.RegisterRoutes(router, siteHandler, viralHandler, referralHandler, showcaseHandler, rateLimiter)

	// Start server
	fmt.Printf("SiteSpark growth engine running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
