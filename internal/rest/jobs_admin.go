package rest

import (
	"context"
	"net/http"
	"shopReco/pkg/logger"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const adminJobTimeout = 5 * time.Minute

type (
	JobsAdminHandler struct {
		validate   *validator.Validate
		popularity PopularityJob
		cooccur    CoOccurrenceJob
		profiles   ProfileJob
	}

	PopularityJob interface {
		RecomputePopularity(ctx context.Context, shopID string, windowDays int) error
	}

	CoOccurrenceJob interface {
		RebuildCoOccurrence(ctx context.Context, shopID string, windowDays int) error
	}

	ProfileJob interface {
		RebuildUserProfile(ctx context.Context, shopID, userID string) error
	}

	JobQuery struct {
		Shop       string `query:"shop" validate:"required"`
		WindowDays int    `query:"window_days"`
	}
)

func NewJobsAdminHandler(popularity PopularityJob, cooccur CoOccurrenceJob, profiles ProfileJob) *JobsAdminHandler {
	return &JobsAdminHandler{
		validate:   validator.New(),
		popularity: popularity,
		cooccur:    cooccur,
		profiles:   profiles,
	}
}

// Rebuilds run detached from the request; the handler only reports that
// the job was accepted.
func (h *JobsAdminHandler) TriggerPopularity(c echo.Context) error {
	var q JobQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	go func(shop string, windowDays int) {
		ctx, cancel := context.WithTimeout(context.Background(), adminJobTimeout)
		defer cancel()

		if err := h.popularity.RecomputePopularity(ctx, shop, windowDays); err != nil {
			logger.Error("Manual popularity recompute failed", "shop_id", shop, "error", err)
		}
	}(q.Shop, q.WindowDays)

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "popularity recompute started",
		"shop":    q.Shop,
	})
}

func (h *JobsAdminHandler) TriggerCoOccurrence(c echo.Context) error {
	var q JobQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	go func(shop string, windowDays int) {
		ctx, cancel := context.WithTimeout(context.Background(), adminJobTimeout)
		defer cancel()

		if err := h.cooccur.RebuildCoOccurrence(ctx, shop, windowDays); err != nil {
			logger.Error("Manual cooccurrence rebuild failed", "shop_id", shop, "error", err)
		}
	}(q.Shop, q.WindowDays)

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "cooccurrence rebuild started",
		"shop":    q.Shop,
	})
}

func (h *JobsAdminHandler) TriggerProfileRebuild(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "user_id is required"})
	}

	var q JobQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	go func(shop, user string) {
		ctx, cancel := context.WithTimeout(context.Background(), adminJobTimeout)
		defer cancel()

		if err := h.profiles.RebuildUserProfile(ctx, shop, user); err != nil {
			logger.Error("Manual profile rebuild failed", "shop_id", shop, "user_id", user, "error", err)
		}
	}(q.Shop, userID)

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "profile rebuild started",
		"shop":    q.Shop,
		"user_id": userID,
	})
}
