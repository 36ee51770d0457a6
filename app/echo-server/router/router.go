package router

import (
	"shopReco/internal/middleware"
	"shopReco/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupRecommendationRoutes(api *echo.Group, handler *rest.RecommendationsHandler) {
	api.GET("/recommendations", handler.Get)
}

func SetupEventRoutes(api *echo.Group, handler *rest.EventsHandler) {
	api.POST("/events", handler.IngestEvent)
	api.POST("/orders", handler.IngestOrder)
}

func SetupJobsAdminRoutes(api *echo.Group, handler *rest.JobsAdminHandler) {
	admin := api.Group("/admin/jobs", middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.POST("/popularity", handler.TriggerPopularity)
	admin.POST("/cooccurrence", handler.TriggerCoOccurrence)
	admin.POST("/profiles/:user_id", handler.TriggerProfileRebuild)
}
