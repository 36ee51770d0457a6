package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"shopReco/domain"
	"time"

	"gorm.io/gorm"
)

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

func (r *ProductRepository) GetByProductID(ctx context.Context, shopID, productID string) (domain.ProductMetadata, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProductMetadata{}, fmt.Errorf("context error: %w", err)
	}

	var product domain.ProductMetadata

	err := r.DB.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProductMetadata{}, domain.ErrNotFound
		}
		return domain.ProductMetadata{}, fmt.Errorf("failed to find product metadata: %w", err)
	}

	return product, nil
}

// Find returns shop products matching the filter, ordered by popularity
// descending. The filter's match fields combine with OR (ANY semantics);
// ExcludeIDs always applies. An empty filter returns the shop's most
// popular products.
func (r *ProductRepository) Find(ctx context.Context, shopID string, filter domain.ProductFilter, limit int) ([]domain.ProductMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}

	query := r.DB.WithContext(ctx).Where("shop_id = ?", shopID)

	base := r.DB.Session(&gorm.Session{NewDB: true})
	var match *gorm.DB
	or := func(cond *gorm.DB) {
		if match == nil {
			match = cond
		} else {
			match = match.Or(cond)
		}
	}

	if len(filter.IDsIn) > 0 {
		or(base.Where("product_id IN ?", filter.IDsIn))
	}
	for _, c := range filter.CollectionsAny {
		or(base.Where("collections @> ?::jsonb", jsonString(c)))
	}
	for _, t := range filter.TagsAny {
		or(base.Where("tags @> ?::jsonb", jsonString(t)))
	}
	if filter.ProductType != "" {
		or(base.Where("product_type = ?", filter.ProductType))
	}
	if len(filter.VendorIn) > 0 {
		or(base.Where("vendor IN ?", filter.VendorIn))
	}

	if match != nil {
		query = query.Where(match)
	}
	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("product_id NOT IN ?", filter.ExcludeIDs)
	}

	var products []domain.ProductMetadata
	err := query.Order("popularity DESC").Limit(limit).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find product metadata: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) FindByProductIDs(ctx context.Context, shopID string, productIDs []string) ([]domain.ProductMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if len(productIDs) == 0 {
		return []domain.ProductMetadata{}, nil
	}

	var products []domain.ProductMetadata
	err := r.DB.WithContext(ctx).
		Where("shop_id = ? AND product_id IN ?", shopID, productIDs).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find product metadata by ids: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) ListByShop(ctx context.Context, shopID string) ([]domain.ProductMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var products []domain.ProductMetadata
	err := r.DB.WithContext(ctx).Where("shop_id = ?", shopID).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product metadata: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) UpdatePopularity(ctx context.Context, shopID, productID string, popularity float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.ProductMetadata{}).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		Updates(map[string]interface{}{
			"popularity": popularity,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update popularity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// jsonString renders a scalar as a JSON literal for jsonb containment.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
