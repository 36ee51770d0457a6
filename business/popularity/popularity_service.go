package popularity

import (
	"context"
	"fmt"
	"shopReco/domain"
	"shopReco/pkg/logger"
	"shopReco/pkg/metrics"
	"time"
)

const (
	DefaultWindowDays = 30

	viewWeight     = 1.0
	purchaseWeight = 10.0
)

type ProductRepository interface {
	ListByShop(ctx context.Context, shopID string) ([]domain.ProductMetadata, error)
	UpdatePopularity(ctx context.Context, shopID, productID string, popularity float64) error
}

type EventRepository interface {
	CountViews(ctx context.Context, shopID, productID string, since time.Time) (int64, error)
}

type OrdersRepository interface {
	CountPurchases(ctx context.Context, shopID, productID string, since time.Time) (int64, error)
}

type Service struct {
	productRepo ProductRepository
	eventRepo   EventRepository
	ordersRepo  OrdersRepository
}

func NewService(productRepo ProductRepository, eventRepo EventRepository, ordersRepo OrdersRepository) *Service {
	return &Service{
		productRepo: productRepo,
		eventRepo:   eventRepo,
		ordersRepo:  ordersRepo,
	}
}

// RecomputePopularity rescores every product in the shop from view and
// purchase counts inside the trailing window:
//
//	score = views*1 + purchases*10
//
// Products are scored independently; one product failing is logged and
// skipped, never aborting the batch. Rerunning over the same events
// yields the same scores.
func (s *Service) RecomputePopularity(ctx context.Context, shopID string, windowDays int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if shopID == "" {
		return fmt.Errorf("%w: shop is required", domain.ErrInvalidRequest)
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	started := time.Now()
	since := started.AddDate(0, 0, -windowDays)

	products, err := s.productRepo.ListByShop(ctx, shopID)
	if err != nil {
		return fmt.Errorf("load shop products: %w", err)
	}

	updated := 0
	skipped := 0

	for _, product := range products {
		// cancellation between products, not mid-item
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context error: %w", err)
		}

		views, err := s.eventRepo.CountViews(ctx, shopID, product.ProductID, since)
		if err != nil {
			logger.Warn("popularity: failed to count views",
				"shop_id", shopID,
				"product_id", product.ProductID,
				"error", err,
			)
			skipped++
			continue
		}

		purchases, err := s.ordersRepo.CountPurchases(ctx, shopID, product.ProductID, since)
		if err != nil {
			logger.Warn("popularity: failed to count purchases",
				"shop_id", shopID,
				"product_id", product.ProductID,
				"error", err,
			)
			skipped++
			continue
		}

		score := float64(views)*viewWeight + float64(purchases)*purchaseWeight

		if err := s.productRepo.UpdatePopularity(ctx, shopID, product.ProductID, score); err != nil {
			logger.Warn("popularity: failed to write score",
				"shop_id", shopID,
				"product_id", product.ProductID,
				"error", err,
			)
			skipped++
			continue
		}

		updated++
	}

	metrics.RebuildDuration.WithLabelValues("popularity").Observe(time.Since(started).Seconds())

	logger.Info("popularity recomputed",
		"shop_id", shopID,
		"window_days", windowDays,
		"updated", updated,
		"skipped", skipped,
	)

	return nil
}
