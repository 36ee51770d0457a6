package postgres

import (
	"context"
	"errors"
	"fmt"
	"shopReco/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{
		DB: db,
	}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, shopID, userID string) (domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserProfile{}, fmt.Errorf("context error: %w", err)
	}

	var profile domain.UserProfile
	err := r.DB.WithContext(ctx).
		Where("shop_id = ? AND user_id = ?", shopID, userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, domain.ErrNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("failed to find user profile: %w", err)
	}

	return profile, nil
}

// Upsert replaces the whole profile row keyed by (shop, user). The
// profile builder always recomputes wholesale, so every column is fair
// game to overwrite.
func (r *ProfileRepository) Upsert(ctx context.Context, profile domain.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_id"}, {Name: "user_id"}},
			UpdateAll: true,
		},
	).Create(&profile).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}

	return nil
}
