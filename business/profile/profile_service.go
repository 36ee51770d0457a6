package profile

import (
	"context"
	"fmt"
	"shopReco/domain"
	"shopReco/pkg/logger"
	"shopReco/pkg/metrics"
	"sort"
	"time"

	"gorm.io/datatypes"
)

// view-history read bound; the profile is always rebuilt from at most
// this many recent VIEW events
const viewHistoryLimit = 100

type EventRepository interface {
	RecentViewsByUser(ctx context.Context, shopID, userID string, limit int) ([]domain.Event, error)
}

type OrdersRepository interface {
	FindByUser(ctx context.Context, shopID, userID string) ([]domain.Order, error)
}

type ProductRepository interface {
	FindByProductIDs(ctx context.Context, shopID string, productIDs []string) ([]domain.ProductMetadata, error)
}

type ProfileRepository interface {
	Upsert(ctx context.Context, profile domain.UserProfile) error
}

type Service struct {
	eventRepo   EventRepository
	ordersRepo  OrdersRepository
	productRepo ProductRepository
	profileRepo ProfileRepository
}

func NewService(
	eventRepo EventRepository,
	ordersRepo OrdersRepository,
	productRepo ProductRepository,
	profileRepo ProfileRepository,
) *Service {
	return &Service{
		eventRepo:   eventRepo,
		ordersRepo:  ordersRepo,
		productRepo: productRepo,
		profileRepo: profileRepo,
	}
}

// rankedCounter counts occurrences while remembering first-seen order,
// so Top breaks ties deterministically.
type rankedCounter struct {
	counts map[string]int
	order  []string
}

func newRankedCounter() *rankedCounter {
	return &rankedCounter{counts: make(map[string]int)}
}

func (rc *rankedCounter) Add(key string) {
	if key == "" {
		return
	}
	if _, seen := rc.counts[key]; !seen {
		rc.order = append(rc.order, key)
	}
	rc.counts[key]++
}

func (rc *rankedCounter) Top(n int) []string {
	keys := append([]string(nil), rc.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return rc.counts[keys[i]] > rc.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// RebuildUserProfile recomputes the user's preference summary wholesale
// from the most recent 100 VIEW events and all completed orders. There
// is no incremental merge path; every call replaces the stored profile.
func (s *Service) RebuildUserProfile(ctx context.Context, shopID, userID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if shopID == "" || userID == "" {
		return fmt.Errorf("%w: shop and user are required", domain.ErrInvalidRequest)
	}

	started := time.Now()

	views, err := s.eventRepo.RecentViewsByUser(ctx, shopID, userID, viewHistoryLimit)
	if err != nil {
		return fmt.Errorf("load user views: %w", err)
	}

	orders, err := s.ordersRepo.FindByUser(ctx, shopID, userID)
	if err != nil {
		return fmt.Errorf("load user orders: %w", err)
	}

	// viewed: recency-ordered, deduplicated, capped
	viewedSeen := make(map[string]struct{})
	viewed := make([]string, 0, domain.MaxViewedProducts)
	for _, e := range views {
		if e.ProductID == "" {
			continue
		}
		if _, ok := viewedSeen[e.ProductID]; ok {
			continue
		}
		viewedSeen[e.ProductID] = struct{}{}
		viewed = append(viewed, e.ProductID)
		if len(viewed) >= domain.MaxViewedProducts {
			break
		}
	}

	purchasedSeen := make(map[string]struct{})
	purchased := make([]string, 0)
	for _, order := range orders {
		for _, id := range order.DistinctProductIDs() {
			if _, ok := purchasedSeen[id]; ok {
				continue
			}
			purchasedSeen[id] = struct{}{}
			purchased = append(purchased, id)
		}
	}

	// union keeps viewed-first order so preference ties are stable
	unionSeen := make(map[string]struct{}, len(viewed)+len(purchased))
	union := make([]string, 0, len(viewed)+len(purchased))
	for _, id := range append(append([]string{}, viewed...), purchased...) {
		if _, ok := unionSeen[id]; ok {
			continue
		}
		unionSeen[id] = struct{}{}
		union = append(union, id)
	}

	var metaByID map[string]domain.ProductMetadata
	if len(union) > 0 {
		products, err := s.productRepo.FindByProductIDs(ctx, shopID, union)
		if err != nil {
			return fmt.Errorf("load product metadata: %w", err)
		}
		metaByID = make(map[string]domain.ProductMetadata, len(products))
		for _, p := range products {
			metaByID[p.ProductID] = p
		}
	}

	collections := newRankedCounter()
	vendors := newRankedCounter()
	var priceMin, priceMax *float64

	for _, id := range union {
		p, ok := metaByID[id]
		if !ok {
			continue
		}

		for _, c := range p.Collections {
			collections.Add(c)
		}
		vendors.Add(p.Vendor)

		price := p.Price
		if priceMin == nil || price < *priceMin {
			priceMin = &price
		}
		if priceMax == nil || price > *priceMax {
			priceMax = &price
		}
	}

	profile := domain.UserProfile{
		ShopID:              shopID,
		UserID:              userID,
		PreferredCategories: datatypes.NewJSONSlice(collections.Top(domain.MaxPreferredCategories)),
		PreferredBrands:     datatypes.NewJSONSlice(vendors.Top(domain.MaxPreferredBrands)),
		ViewedProducts:      datatypes.NewJSONSlice(viewed),
		PurchasedProducts:   datatypes.NewJSONSlice(purchased),
		LastActive:          time.Now(),
	}

	if priceMin != nil && priceMax != nil {
		lo := *priceMin * 0.8
		hi := *priceMax * 1.2
		profile.PriceMin = &lo
		profile.PriceMax = &hi
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}

	metrics.RebuildDuration.WithLabelValues("profile").Observe(time.Since(started).Seconds())

	logger.Debug("user profile rebuilt",
		"shop_id", shopID,
		"user_id", userID,
		"viewed", len(viewed),
		"purchased", len(purchased),
	)

	return nil
}
