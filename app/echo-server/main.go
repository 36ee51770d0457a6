package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"shopReco/app/echo-server/router"
	"shopReco/business/cooccur"
	"shopReco/business/ingest"
	"shopReco/business/jobs"
	"shopReco/business/popularity"
	"shopReco/business/profile"
	"shopReco/business/resolver"
	psqlRepo "shopReco/internal/repository/postgres"
	redisRepo "shopReco/internal/repository/redis"
	"shopReco/internal/rest"
	"shopReco/pkg/config"
	"shopReco/pkg/database"
	redisdb "shopReco/pkg/database/redis"
	"shopReco/pkg/logger"
	"shopReco/pkg/metrics"
	"shopReco/pkg/utils"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting recommendation engine", "version", cfg.App.Version)

	utils.InitJWT(cfg.JWT.SecretKey)
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Redis is the session-view fast path; without it the resolver's
	// session tier falls back to reading the event store.
	var sessionRepo *redisRepo.SessionRepository
	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, session tier disabled", "error", err)
	} else {
		sessionRepo = redisRepo.NewSessionRepository(redisClient)
		defer redisdb.CloseRedisClient(redisClient)
	}

	// Init repo
	eventRepo := psqlRepo.NewEventRepository(db)
	productRepo := psqlRepo.NewProductRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	recoRepo := psqlRepo.NewRecommendationRepository(db)
	profileRepo := psqlRepo.NewProfileRepository(db)

	// Init service
	popularityService := popularity.NewService(productRepo, eventRepo, ordersRepo)
	cooccurService := cooccur.NewService(ordersRepo, recoRepo)
	profileService := profile.NewService(eventRepo, ordersRepo, productRepo, profileRepo)
	resolverService := newResolverService(recoRepo, productRepo, profileRepo, sessionRepo, eventRepo)
	ingestService := newIngestService(eventRepo, ordersRepo, sessionRepo, profileService)

	// Init handler
	recommendationsHandler := rest.NewRecommendationsHandler(resolverService)
	eventsHandler := rest.NewEventsHandler(ingestService)
	jobsHandler := rest.NewJobsAdminHandler(popularityService, cooccurService, profileService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupRecommendationRoutes(api, recommendationsHandler)
	router.SetupEventRoutes(api, eventsHandler)
	router.SetupJobsAdminRoutes(api, jobsHandler)

	// Batch jobs
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	runner := jobs.NewRunner(cfg.Jobs, popularityService, cooccurService)
	runner.Start(jobsCtx)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	stopJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// newResolverService keeps the nil-interface wiring for the optional
// session store in one place.
func newResolverService(
	recoRepo *psqlRepo.RecommendationRepository,
	productRepo *psqlRepo.ProductRepository,
	profileRepo *psqlRepo.ProfileRepository,
	sessionRepo *redisRepo.SessionRepository,
	eventRepo *psqlRepo.EventRepository,
) *resolver.Service {
	var sessionViews resolver.SessionViews
	if sessionRepo != nil {
		sessionViews = sessionRepo
	}

	return resolver.NewService(recoRepo, productRepo, profileRepo, sessionViews, eventRepo)
}

func newIngestService(
	eventRepo *psqlRepo.EventRepository,
	ordersRepo *psqlRepo.OrdersRepository,
	sessionRepo *redisRepo.SessionRepository,
	profileService *profile.Service,
) *ingest.Service {
	var sessions ingest.SessionRepository
	if sessionRepo != nil {
		sessions = sessionRepo
	}

	return ingest.NewService(eventRepo, ordersRepo, sessions, profileService)
}
