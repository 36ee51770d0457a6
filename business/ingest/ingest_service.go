package ingest

import (
	"context"
	"fmt"
	"shopReco/domain"
	"shopReco/pkg/logger"
	"shopReco/pkg/metrics"
	"time"

	"github.com/google/uuid"
)

const profileRebuildTimeout = 30 * time.Second

type EventRepository interface {
	Save(ctx context.Context, event *domain.Event) error
}

type OrdersRepository interface {
	Create(ctx context.Context, order *domain.Order) error
}

type SessionRepository interface {
	RecordView(ctx context.Context, shopID, sessionID, productID string) error
}

type ProfileRebuilder interface {
	RebuildUserProfile(ctx context.Context, shopID, userID string) error
}

// Service persists normalized behavioral events and completed orders.
// Payload parsing and webhook verification happen upstream; everything
// arriving here is already in the engine's shape.
type Service struct {
	eventRepo   EventRepository
	ordersRepo  OrdersRepository
	sessionRepo SessionRepository
	profiles    ProfileRebuilder
}

func NewService(
	eventRepo EventRepository,
	ordersRepo OrdersRepository,
	sessionRepo SessionRepository,
	profiles ProfileRebuilder,
) *Service {
	return &Service{
		eventRepo:   eventRepo,
		ordersRepo:  ordersRepo,
		sessionRepo: sessionRepo,
		profiles:    profiles,
	}
}

// IngestEvent appends one event. VIEW events carrying a session are also
// pushed to the session tracker so the resolver's session tier can read
// them without touching the event store.
func (s *Service) IngestEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, fmt.Errorf("context error: %w", err)
	}
	if event.ShopID == "" {
		return domain.Event{}, fmt.Errorf("%w: shop is required", domain.ErrInvalidRequest)
	}
	if !domain.ValidEventKind(event.Kind) {
		return domain.Event{}, fmt.Errorf("%w: unknown event kind %q", domain.ErrInvalidRequest, event.Kind)
	}

	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := s.eventRepo.Save(ctx, &event); err != nil {
		return domain.Event{}, err
	}

	metrics.EventsIngested.WithLabelValues(event.Kind).Inc()

	if event.Kind == domain.EventKindView && event.SessionID != "" && s.sessionRepo != nil {
		if err := s.sessionRepo.RecordView(ctx, event.ShopID, event.SessionID, event.ProductID); err != nil {
			// tracker is a fast path only; the event store has the truth
			logger.Warn("ingest: failed to record session view",
				"shop_id", event.ShopID,
				"session_id", event.SessionID,
				"error", err,
			)
		}
	}

	return event, nil
}

// IngestOrder stores a completed order with its line items and kicks off
// a profile rebuild for the ordering user in the background.
func (s *Service) IngestOrder(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if order.ShopID == "" || order.OrderID == "" {
		return fmt.Errorf("%w: shop and order id are required", domain.ErrInvalidRequest)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order has no items", domain.ErrInvalidRequest)
	}

	if order.CompletedAt.IsZero() {
		order.CompletedAt = time.Now()
	}

	if err := s.ordersRepo.Create(ctx, &order); err != nil {
		return err
	}

	metrics.EventsIngested.WithLabelValues(domain.EventKindOrderPlaced).Inc()

	if order.UserID != "" && s.profiles != nil {
		go func(shopID, userID string) {
			rebuildCtx, cancel := context.WithTimeout(context.Background(), profileRebuildTimeout)
			defer cancel()

			if err := s.profiles.RebuildUserProfile(rebuildCtx, shopID, userID); err != nil {
				logger.Warn("ingest: profile rebuild after order failed",
					"shop_id", shopID,
					"user_id", userID,
					"error", err,
				)
			}
		}(order.ShopID, order.UserID)
	}

	return nil
}
