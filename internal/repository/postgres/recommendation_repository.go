package postgres

import (
	"context"
	"fmt"
	"shopReco/domain"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationRepository struct {
	DB *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{
		DB: db,
	}
}

// Upsert writes a recommendation keyed by (shop, source, recommended,
// type). Concurrent writers resolve to last write wins on score and
// last_calculated; the database is the sole arbiter.
func (r *RecommendationRepository) Upsert(ctx context.Context, rec domain.ProductRecommendation) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "shop_id"},
				{Name: "source_product_id"},
				{Name: "recommended_product_id"},
				{Name: "recommendation_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"score", "last_calculated"}),
		},
	).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert recommendation: %w", err)
	}

	return nil
}

// ListBySource returns cached recommendations for a source product and
// type, highest score first.
func (r *RecommendationRepository) ListBySource(ctx context.Context, shopID, sourceProductID, recommendationType string, limit int) ([]domain.ProductRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 5
	}

	var recs []domain.ProductRecommendation
	err := r.DB.WithContext(ctx).
		Where("shop_id = ? AND source_product_id = ? AND recommendation_type = ?",
			shopID, sourceProductID, recommendationType).
		Order("score DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	return recs, nil
}

// DeleteStaleByType prunes rows of one type not refreshed since the
// cutoff. The co-occurrence rebuild uses it to drop edges that fell out
// of the top neighbors.
func (r *RecommendationRepository) DeleteStaleByType(ctx context.Context, shopID, recommendationType string, before time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Where("shop_id = ? AND recommendation_type = ? AND last_calculated < ?",
			shopID, recommendationType, before).
		Delete(&domain.ProductRecommendation{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete stale recommendations: %w", err)
	}

	return nil
}
