package postgres

import (
	"context"
	"fmt"
	"shopReco/domain"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

// Create stores a completed order and its line items. Replays of the
// same (shop, order) are ignored so webhook retries stay idempotent.
func (r *OrdersRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_id"}, {Name: "order_id"}},
			DoNothing: true,
		},
	).Create(order).Error
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrdersRepository) FindCompletedSince(ctx context.Context, shopID string, since time.Time) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var orders []domain.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("shop_id = ? AND completed_at >= ?", shopID, since).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query completed orders: %w", err)
	}

	return orders, nil
}

func (r *OrdersRepository) FindByUser(ctx context.Context, shopID, userID string) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var orders []domain.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("shop_id = ? AND user_id = ?", shopID, userID).
		Order("completed_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user orders: %w", err)
	}

	return orders, nil
}

func (r *OrdersRepository) CountPurchases(ctx context.Context, shopID, productID string, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_ref").
		Where("orders.shop_id = ? AND orders.completed_at >= ? AND order_items.product_id = ?",
			shopID, since, productID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	return count, nil
}
