package postgres

import (
	"context"
	"fmt"
	"shopReco/domain"
	"time"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{
		DB: db,
	}
}

// Save appends a normalized event. Events are never updated.
func (r *EventRepository) Save(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	return nil
}

func (r *EventRepository) CountViews(ctx context.Context, shopID, productID string, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.Event{}).
		Where("shop_id = ? AND kind = ? AND product_id = ? AND occurred_at >= ?",
			shopID, domain.EventKindView, productID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count views: %w", err)
	}

	return count, nil
}

// RecentViewsByUser returns the user's VIEW events, newest first.
func (r *EventRepository) RecentViewsByUser(ctx context.Context, shopID, userID string, limit int) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 100
	}

	var events []domain.Event
	err := r.DB.WithContext(ctx).
		Where("shop_id = ? AND kind = ? AND user_id = ?", shopID, domain.EventKindView, userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user views: %w", err)
	}

	return events, nil
}

// RecentSessionViews returns the distinct products viewed in a session,
// newest first, capped at limit. Deduplication happens here because
// DISTINCT ON plus recency ordering reads worse than it performs.
func (r *EventRepository) RecentSessionViews(ctx context.Context, shopID, sessionID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}

	var events []domain.Event
	err := r.DB.WithContext(ctx).
		Select("product_id", "occurred_at").
		Where("shop_id = ? AND kind = ? AND session_id = ?", shopID, domain.EventKindView, sessionID).
		Order("occurred_at DESC").
		Limit(limit * 5).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query session views: %w", err)
	}

	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, e := range events {
		if e.ProductID == "" {
			continue
		}
		if _, ok := seen[e.ProductID]; ok {
			continue
		}
		seen[e.ProductID] = struct{}{}
		out = append(out, e.ProductID)
		if len(out) >= limit {
			break
		}
	}

	return out, nil
}

// SessionsForProducts returns sessions in which any of the products was
// viewed, bounded by limit.
func (r *EventRepository) SessionsForProducts(ctx context.Context, shopID string, productIDs []string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if len(productIDs) == 0 {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var sessions []string
	err := r.DB.WithContext(ctx).
		Model(&domain.Event{}).
		Distinct("session_id").
		Where("shop_id = ? AND kind = ? AND product_id IN ? AND session_id <> ''",
			shopID, domain.EventKindView, productIDs).
		Limit(limit).
		Pluck("session_id", &sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions for products: %w", err)
	}

	return sessions, nil
}

// ViewedInSessions returns the distinct products viewed across the
// sessions, bounded by limit.
func (r *EventRepository) ViewedInSessions(ctx context.Context, shopID string, sessionIDs []string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if len(sessionIDs) == 0 {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	var products []string
	err := r.DB.WithContext(ctx).
		Model(&domain.Event{}).
		Distinct("product_id").
		Where("shop_id = ? AND kind = ? AND session_id IN ? AND product_id <> ''",
			shopID, domain.EventKindView, sessionIDs).
		Limit(limit).
		Pluck("product_id", &products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query session co-views: %w", err)
	}

	return products, nil
}
