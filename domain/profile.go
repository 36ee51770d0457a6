package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.user_profiles (
//     id                   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     shop_id              TEXT NOT NULL,
//     user_id              TEXT NOT NULL,
//     preferred_categories JSONB,
//     preferred_brands     JSONB,
//     price_min            NUMERIC,
//     price_max            NUMERIC,
//     viewed_products      JSONB,
//     purchased_products   JSONB,
//     last_active          TIMESTAMPTZ,
//     UNIQUE (shop_id, user_id)
// );

const (
	MaxPreferredCategories = 5
	MaxPreferredBrands     = 3
	MaxViewedProducts      = 20
)

// UserProfile is rebuilt wholesale on every update; there is no
// incremental merge path.
type UserProfile struct {
	ID                  uint64                      `gorm:"primaryKey;autoIncrement" json:"-"`
	ShopID              string                      `gorm:"column:shop_id;uniqueIndex:idx_profile_shop_user" json:"shop_id"`
	UserID              string                      `gorm:"column:user_id;uniqueIndex:idx_profile_shop_user" json:"user_id"`
	PreferredCategories datatypes.JSONSlice[string] `gorm:"column:preferred_categories" json:"preferred_categories"`
	PreferredBrands     datatypes.JSONSlice[string] `gorm:"column:preferred_brands" json:"preferred_brands"`
	PriceMin            *float64                    `gorm:"column:price_min;type:numeric" json:"price_min,omitempty"`
	PriceMax            *float64                    `gorm:"column:price_max;type:numeric" json:"price_max,omitempty"`
	ViewedProducts      datatypes.JSONSlice[string] `gorm:"column:viewed_products" json:"viewed_products"`
	PurchasedProducts   datatypes.JSONSlice[string] `gorm:"column:purchased_products" json:"purchased_products"`
	LastActive          time.Time                   `gorm:"column:last_active" json:"last_active"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// HasViewed reports whether productID is in the profile's recent views.
func (p UserProfile) HasViewed(productID string) bool {
	for _, id := range p.ViewedProducts {
		if id == productID {
			return true
		}
	}
	return false
}
