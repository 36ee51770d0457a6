package rest

import (
	"context"
	"errors"
	"net/http"
	"shopReco/domain"
	"shopReco/pkg/logger"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	EventsHandler struct {
		validate      *validator.Validate
		ingestService IngestService
		timeout       time.Duration
	}

	IngestService interface {
		IngestEvent(ctx context.Context, event domain.Event) (domain.Event, error)
		IngestOrder(ctx context.Context, order domain.Order) error
	}

	IngestEventRequest struct {
		EventName  string    `json:"event_name" validate:"required"`
		ShopDomain string    `json:"shop_domain" validate:"required"`
		ProductID  string    `json:"product_id"`
		VariantID  string    `json:"variant_id"`
		Quantity   float64   `json:"quantity"`
		Price      float64   `json:"price"`
		UserID     string    `json:"user_id"`
		SessionID  string    `json:"session_id"`
		OccurredAt time.Time `json:"occurred_at"`
	}

	IngestOrderItem struct {
		ProductID string  `json:"product_id" validate:"required"`
		Quantity  float64 `json:"quantity"`
		Price     float64 `json:"price"`
	}

	IngestOrderRequest struct {
		ShopDomain  string            `json:"shop_domain" validate:"required"`
		OrderID     string            `json:"order_id" validate:"required"`
		UserID      string            `json:"user_id"`
		CompletedAt time.Time         `json:"completed_at"`
		Items       []IngestOrderItem `json:"items" validate:"required,min=1,dive"`
	}
)

func NewEventsHandler(svc IngestService) *EventsHandler {
	return &EventsHandler{
		validate:      validator.New(),
		ingestService: svc,
		timeout:       10 * time.Second,
	}
}

func (h *EventsHandler) IngestEvent(c echo.Context) error {
	var req IngestEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	event, err := h.ingestService.IngestEvent(ctx, domain.Event{
		ShopID:     req.ShopDomain,
		Kind:       req.EventName,
		ProductID:  req.ProductID,
		VariantID:  req.VariantID,
		Quantity:   req.Quantity,
		Price:      req.Price,
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		OccurredAt: req.OccurredAt,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to ingest event", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(event))
}

func (h *EventsHandler) IngestOrder(c echo.Context) error {
	var req IngestOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	err := h.ingestService.IngestOrder(ctx, domain.Order{
		ShopID:      req.ShopDomain,
		OrderID:     req.OrderID,
		UserID:      req.UserID,
		CompletedAt: req.CompletedAt,
		Items:       items,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to ingest order", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("Order ingested successfully"))
}
