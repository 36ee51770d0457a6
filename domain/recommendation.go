package domain

import "time"

// CREATE TABLE public.product_recommendations (
//     id                     BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     shop_id                TEXT NOT NULL,
//     source_product_id      TEXT NOT NULL,
//     recommended_product_id TEXT NOT NULL,
//     score                  NUMERIC NOT NULL,
//     recommendation_type    TEXT NOT NULL,
//     last_calculated        TIMESTAMPTZ NOT NULL,
//     UNIQUE (shop_id, source_product_id, recommended_product_id, recommendation_type)
// );

const (
	RecommendationSimilar      = "SIMILAR_PRODUCTS"
	RecommendationPersonalized = "PERSONALIZED"
	RecommendationBoughtWith   = "FREQUENTLY_BOUGHT_TOGETHER"
)

// ProductRecommendation is the cache entry the resolver reads and the
// batch jobs refresh. The composite unique key makes the write an upsert.
type ProductRecommendation struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ShopID               string    `gorm:"column:shop_id;uniqueIndex:idx_reco_key" json:"shop_id"`
	SourceProductID      string    `gorm:"column:source_product_id;uniqueIndex:idx_reco_key" json:"source_product_id"`
	RecommendedProductID string    `gorm:"column:recommended_product_id;uniqueIndex:idx_reco_key" json:"recommended_product_id"`
	Score                float64   `gorm:"column:score;type:numeric;not null" json:"score"`
	RecommendationType   string    `gorm:"column:recommendation_type;uniqueIndex:idx_reco_key" json:"recommendation_type"`
	LastCalculated       time.Time `gorm:"column:last_calculated" json:"last_calculated"`
}

func (ProductRecommendation) TableName() string {
	return "product_recommendations"
}

// ValidRecommendationType reports whether t is a known recommendation type.
func ValidRecommendationType(t string) bool {
	switch t {
	case RecommendationSimilar, RecommendationPersonalized, RecommendationBoughtWith:
		return true
	}
	return false
}
