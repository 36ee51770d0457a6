package resolver

import (
	"context"
	"errors"
	"fmt"
	"shopReco/domain"
	"shopReco/pkg/logger"
	"shopReco/pkg/metrics"
	"sort"
	"time"
)

const (
	DefaultLimit = 5

	// distinct session views considered by the session tier
	sessionViewLimit = 10

	// read bounds for the co-view expansion
	coViewSessionLimit = 50
	coViewProductLimit = 100
)

type RecommendationRepository interface {
	ListBySource(ctx context.Context, shopID, sourceProductID, recommendationType string, limit int) ([]domain.ProductRecommendation, error)
	Upsert(ctx context.Context, rec domain.ProductRecommendation) error
}

type ProductRepository interface {
	GetByProductID(ctx context.Context, shopID, productID string) (domain.ProductMetadata, error)
	Find(ctx context.Context, shopID string, filter domain.ProductFilter, limit int) ([]domain.ProductMetadata, error)
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, shopID, userID string) (domain.UserProfile, error)
}

// SessionViews is the fast-path store of a session's recent product
// views (Redis-backed in production). When absent the session tier
// reads the event store instead.
type SessionViews interface {
	RecentViews(ctx context.Context, shopID, sessionID string, limit int) ([]string, error)
}

// EventRepository covers the session tier's event-store reads.
type EventRepository interface {
	RecentSessionViews(ctx context.Context, shopID, sessionID string, limit int) ([]string, error)
	SessionsForProducts(ctx context.Context, shopID string, productIDs []string, limit int) ([]string, error)
	ViewedInSessions(ctx context.Context, shopID string, sessionIDs []string, limit int) ([]string, error)
}

// Request is the recommendation request consumed from the API layer.
// ShopID is the only required field.
type Request struct {
	ShopID    string
	ProductID string
	UserID    string
	SessionID string
	Limit     int
	Type      string
}

type Service struct {
	recoRepo     RecommendationRepository
	productRepo  ProductRepository
	profileRepo  ProfileRepository
	sessionViews SessionViews
	eventRepo    EventRepository
}

func NewService(
	recoRepo RecommendationRepository,
	productRepo ProductRepository,
	profileRepo ProfileRepository,
	sessionViews SessionViews,
	eventRepo EventRepository,
) *Service {
	return &Service{
		recoRepo:     recoRepo,
		productRepo:  productRepo,
		profileRepo:  profileRepo,
		sessionViews: sessionViews,
		eventRepo:    eventRepo,
	}
}

// Resolve walks the fallback chain and returns the first tier that
// yields results:
//
//	1. cached recommendation rows for (product, type)
//	2. personalized candidates from the user profile
//	3. session co-view candidates
//	4. attribute match on the source product, else shop top popularity
//
// A tier that errors demotes to the next one; only a storage failure at
// the final tier reaches the caller. An empty list is a valid outcome.
func (s *Service) Resolve(ctx context.Context, req Request) ([]domain.ProductSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if req.ShopID == "" {
		return nil, fmt.Errorf("%w: shop is required", domain.ErrInvalidRequest)
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if !domain.ValidRecommendationType(req.Type) {
		req.Type = domain.RecommendationSimilar
	}

	// tier 1: cached rows. Staleness of last_calculated is tolerated by
	// design; checking it here would invite recompute storms.
	if req.ProductID != "" {
		out, err := s.fromCache(ctx, req)
		if err != nil {
			logger.Warn("resolver: cache tier failed, demoting",
				"shop_id", req.ShopID,
				"product_id", req.ProductID,
				"error", err,
			)
		} else if len(out) > 0 {
			metrics.ResolveRequests.WithLabelValues("cache").Inc()
			return out, nil
		}
	}

	// tier 2: personalized. When a user is known the session tier is
	// never consulted; an empty personalized result goes straight to
	// the fallback tier.
	if req.UserID != "" {
		out, err := s.personalized(ctx, req)
		if err != nil {
			logger.Warn("resolver: personalized tier failed, demoting",
				"shop_id", req.ShopID,
				"user_id", req.UserID,
				"error", err,
			)
		} else if len(out) > 0 {
			metrics.ResolveRequests.WithLabelValues("personalized").Inc()
			return out, nil
		}

		return s.fallback(ctx, req)
	}

	// tier 3: session-based, transient, never persisted
	if req.SessionID != "" {
		out, err := s.sessionBased(ctx, req)
		if err != nil {
			logger.Warn("resolver: session tier failed, demoting",
				"shop_id", req.ShopID,
				"session_id", req.SessionID,
				"error", err,
			)
		} else if len(out) > 0 {
			metrics.ResolveRequests.WithLabelValues("session").Inc()
			return out, nil
		}
	}

	return s.fallback(ctx, req)
}

func (s *Service) fromCache(ctx context.Context, req Request) ([]domain.ProductSummary, error) {
	rows, err := s.recoRepo.ListBySource(ctx, req.ShopID, req.ProductID, req.Type, req.Limit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	type scored struct {
		meta  domain.ProductMetadata
		score float64
	}

	resolved := make([]scored, 0, len(rows))
	for _, row := range rows {
		meta, err := s.productRepo.GetByProductID(ctx, req.ShopID, row.RecommendedProductID)
		if err != nil {
			// one missing candidate never aborts the set
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("resolver: candidate metadata lookup failed",
					"shop_id", req.ShopID,
					"product_id", row.RecommendedProductID,
					"error", err,
				)
			}
			continue
		}
		resolved = append(resolved, scored{meta: meta, score: row.Score})
	}

	// metadata lookups must not destroy cached rank
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].score > resolved[j].score
	})

	products := make([]domain.ProductMetadata, 0, len(resolved))
	for _, r := range resolved {
		products = append(products, r.meta)
	}

	return toSummaries(products, req.Limit), nil
}

func (s *Service) personalized(ctx context.Context, req Request) ([]domain.ProductSummary, error) {
	if req.ProductID == "" {
		return nil, nil
	}

	source, err := s.productRepo.GetByProductID(ctx, req.ShopID, req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	prof, err := s.profileRepo.GetByUserID(ctx, req.ShopID, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	filter := domain.ProductFilter{
		CollectionsAny: mergeDistinct(source.Collections, prof.PreferredCategories),
		TagsAny:        source.Tags,
		ProductType:    source.ProductType,
		VendorIn:       prof.PreferredBrands,
		ExcludeIDs:     mergeDistinct([]string{req.ProductID}, prof.ViewedProducts),
	}

	candidates, err := s.productRepo.Find(ctx, req.ShopID, filter, 2*req.Limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	top := candidates
	if len(top) > req.Limit {
		top = top[:req.Limit]
	}

	now := time.Now()
	for _, c := range top {
		rec := domain.ProductRecommendation{
			ShopID:               req.ShopID,
			SourceProductID:      req.ProductID,
			RecommendedProductID: c.ProductID,
			Score:                c.Popularity,
			RecommendationType:   domain.RecommendationPersonalized,
			LastCalculated:       now,
		}
		if err := s.recoRepo.Upsert(ctx, rec); err != nil {
			// the cached copy is best effort; the response still serves
			logger.Warn("resolver: failed to persist personalized recommendation",
				"shop_id", req.ShopID,
				"source", req.ProductID,
				"recommended", c.ProductID,
				"error", err,
			)
		}
	}

	return toSummaries(top, req.Limit), nil
}

func (s *Service) sessionBased(ctx context.Context, req Request) ([]domain.ProductSummary, error) {
	if s.eventRepo == nil {
		return nil, nil
	}

	var recent []string
	var err error
	if s.sessionViews != nil {
		recent, err = s.sessionViews.RecentViews(ctx, req.ShopID, req.SessionID, sessionViewLimit)
	} else {
		recent, err = s.eventRepo.RecentSessionViews(ctx, req.ShopID, req.SessionID, sessionViewLimit)
	}
	if err != nil {
		return nil, err
	}

	viewed := make([]string, 0, len(recent))
	for _, id := range recent {
		if id != req.ProductID {
			viewed = append(viewed, id)
		}
	}
	if len(viewed) == 0 {
		return nil, nil
	}

	// products viewed in the same sessions as the session's recent views
	sessions, err := s.eventRepo.SessionsForProducts(ctx, req.ShopID, viewed, coViewSessionLimit)
	if err != nil {
		return nil, err
	}

	var coViewed []string
	if len(sessions) > 0 {
		coViewed, err = s.eventRepo.ViewedInSessions(ctx, req.ShopID, sessions, coViewProductLimit)
		if err != nil {
			return nil, err
		}
	}

	// collections shared with the session's viewed products
	viewedMeta, err := s.productRepo.Find(ctx, req.ShopID, domain.ProductFilter{IDsIn: viewed}, len(viewed))
	if err != nil {
		return nil, err
	}
	var viewedCollections []string
	for _, m := range viewedMeta {
		viewedCollections = mergeDistinct(viewedCollections, m.Collections)
	}

	filter := domain.ProductFilter{
		IDsIn:          coViewed,
		CollectionsAny: viewedCollections,
		ExcludeIDs:     mergeDistinct([]string{req.ProductID}, viewed),
	}
	if len(filter.IDsIn) == 0 && len(filter.CollectionsAny) == 0 {
		return nil, nil
	}

	candidates, err := s.productRepo.Find(ctx, req.ShopID, filter, req.Limit)
	if err != nil {
		return nil, err
	}

	return toSummaries(candidates, req.Limit), nil
}

// fallback is the last tier; storage failures here propagate.
func (s *Service) fallback(ctx context.Context, req Request) ([]domain.ProductSummary, error) {
	if req.ProductID != "" {
		source, err := s.productRepo.GetByProductID(ctx, req.ShopID, req.ProductID)
		if err == nil {
			filter := domain.ProductFilter{
				CollectionsAny: source.Collections,
				TagsAny:        source.Tags,
				ProductType:    source.ProductType,
				ExcludeIDs:     []string{req.ProductID},
			}
			candidates, err := s.productRepo.Find(ctx, req.ShopID, filter, req.Limit)
			if err != nil {
				return nil, err
			}
			metrics.ResolveRequests.WithLabelValues("fallback").Inc()
			return toSummaries(candidates, req.Limit), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	// no usable product context: shop's most popular products
	candidates, err := s.productRepo.Find(ctx, req.ShopID, domain.ProductFilter{ExcludeIDs: excludeSource(req.ProductID)}, req.Limit)
	if err != nil {
		return nil, err
	}

	metrics.ResolveRequests.WithLabelValues("fallback").Inc()
	return toSummaries(candidates, req.Limit), nil
}

// toSummaries maps metadata to the storefront shape, deduplicating and
// capping at limit. Callers rely on it never returning duplicates.
func toSummaries(products []domain.ProductMetadata, limit int) []domain.ProductSummary {
	seen := make(map[string]struct{}, limit)
	out := make([]domain.ProductSummary, 0, limit)
	for _, p := range products {
		if _, ok := seen[p.ProductID]; ok {
			continue
		}
		seen[p.ProductID] = struct{}{}
		out = append(out, domain.ProductSummary{
			ProductID: p.ProductID,
			Title:     p.Title,
			Price:     p.Price,
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}

func mergeDistinct(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func excludeSource(productID string) []string {
	if productID == "" {
		return nil
	}
	return []string{productID}
}
