package rest

import (
	"context"
	"errors"
	"net/http"
	"shopReco/business/resolver"
	"shopReco/domain"
	"shopReco/pkg/logger"
	"shopReco/pkg/metrics"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationsHandler struct {
		validate        *validator.Validate
		resolverService ResolverService
		timeout         time.Duration
	}

	ResolverService interface {
		Resolve(ctx context.Context, req resolver.Request) ([]domain.ProductSummary, error)
	}

	RecommendationsQuery struct {
		Shop      string `query:"shop" validate:"required"`
		ProductID string `query:"product_id"`
		UserID    string `query:"user_id"`
		SessionID string `query:"session_id"`
		Limit     int    `query:"limit"`
		Type      string `query:"type"`
	}
)

func NewRecommendationsHandler(svc ResolverService) *RecommendationsHandler {
	return &RecommendationsHandler{
		validate:        validator.New(),
		resolverService: svc,
		timeout:         5 * time.Second,
	}
}

func (h *RecommendationsHandler) Get(c echo.Context) error {
	started := time.Now()
	defer func() {
		metrics.ResolveLatency.Observe(time.Since(started).Seconds())
	}()

	var q RecommendationsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	recs, err := h.resolverService.Resolve(ctx, resolver.Request{
		ShopID:    q.Shop,
		ProductID: q.ProductID,
		UserID:    q.UserID,
		SessionID: q.SessionID,
		Limit:     q.Limit,
		Type:      q.Type,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to resolve recommendations", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}
