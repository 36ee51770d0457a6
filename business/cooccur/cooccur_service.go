package cooccur

import (
	"context"
	"fmt"
	"shopReco/domain"
	"shopReco/pkg/logger"
	"shopReco/pkg/metrics"
	"sort"
	"time"
)

const (
	DefaultWindowDays = 90

	// neighbors kept per source product
	maxNeighbors = 10
)

type OrdersRepository interface {
	FindCompletedSince(ctx context.Context, shopID string, since time.Time) ([]domain.Order, error)
}

type RecommendationRepository interface {
	Upsert(ctx context.Context, rec domain.ProductRecommendation) error
	DeleteStaleByType(ctx context.Context, shopID, recommendationType string, before time.Time) error
}

type Service struct {
	ordersRepo OrdersRepository
	recoRepo   RecommendationRepository
}

func NewService(ordersRepo OrdersRepository, recoRepo RecommendationRepository) *Service {
	return &Service{
		ordersRepo: ordersRepo,
		recoRepo:   recoRepo,
	}
}

// pairCounter accumulates symmetric neighbor counts per source product,
// remembering the order in which neighbors were first seen so ties sort
// deterministically.
type pairCounter struct {
	counts map[string]map[string]int
	order  map[string][]string
}

func newPairCounter() *pairCounter {
	return &pairCounter{
		counts: make(map[string]map[string]int),
		order:  make(map[string][]string),
	}
}

func (pc *pairCounter) bump(src, dst string) {
	byDst, ok := pc.counts[src]
	if !ok {
		byDst = make(map[string]int)
		pc.counts[src] = byDst
	}
	if _, seen := byDst[dst]; !seen {
		pc.order[src] = append(pc.order[src], dst)
	}
	byDst[dst]++
}

// topNeighbors returns up to n neighbors of src sorted by count
// descending, ties broken by first-seen order.
func (pc *pairCounter) topNeighbors(src string, n int) []string {
	neighbors := append([]string(nil), pc.order[src]...)
	counts := pc.counts[src]

	sort.SliceStable(neighbors, func(i, j int) bool {
		return counts[neighbors[i]] > counts[neighbors[j]]
	})

	if len(neighbors) > n {
		neighbors = neighbors[:n]
	}
	return neighbors
}

// RebuildCoOccurrence fully rebuilds the "frequently bought together"
// index for a shop from completed orders in the trailing window. Each
// unordered pair of distinct products in one order counts 1, regardless
// of quantity; orders with a single distinct item carry no signal. Per
// source product only the top-10 neighbors are kept. After a clean
// rebuild, rows the rebuild did not refresh are pruned.
func (s *Service) RebuildCoOccurrence(ctx context.Context, shopID string, windowDays int) error {
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

	orders, err := s.ordersRepo.FindCompletedSince(ctx, shopID, since)
	if err != nil {
		return fmt.Errorf("load completed orders: %w", err)
	}

	pc := newPairCounter()

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context error: %w", err)
		}

		ids := order.DistinctProductIDs()
		if len(ids) < 2 {
			continue
		}

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pc.bump(ids[i], ids[j])
				pc.bump(ids[j], ids[i])
			}
		}
	}

	now := time.Now()
	upserted := 0
	failed := 0

	for src := range pc.counts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context error: %w", err)
		}

		for _, dst := range pc.topNeighbors(src, maxNeighbors) {
			rec := domain.ProductRecommendation{
				ShopID:               shopID,
				SourceProductID:      src,
				RecommendedProductID: dst,
				Score:                float64(pc.counts[src][dst]),
				RecommendationType:   domain.RecommendationBoughtWith,
				LastCalculated:       now,
			}

			if err := s.recoRepo.Upsert(ctx, rec); err != nil {
				logger.Warn("cooccurrence: failed to upsert edge",
					"shop_id", shopID,
					"source", src,
					"recommended", dst,
					"error", err,
				)
				failed++
				continue
			}
			upserted++
		}
	}

	// Prune edges that fell out of every top-10. Skipped when any upsert
	// failed so a flaky write cannot turn into a mass delete.
	if failed == 0 {
		if err := s.recoRepo.DeleteStaleByType(ctx, shopID, domain.RecommendationBoughtWith, started); err != nil {
			logger.Warn("cooccurrence: failed to prune stale edges",
				"shop_id", shopID,
				"error", err,
			)
		}
	}

	metrics.RebuildDuration.WithLabelValues("cooccurrence").Observe(time.Since(started).Seconds())

	logger.Info("cooccurrence rebuilt",
		"shop_id", shopID,
		"window_days", windowDays,
		"orders", len(orders),
		"edges_upserted", upserted,
		"edges_failed", failed,
	)

	return nil
}
