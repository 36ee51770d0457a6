package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.product_metadata (
//     id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     shop_id      TEXT NOT NULL,
//     product_id   TEXT NOT NULL,
//     title        TEXT,
//     tags         JSONB,
//     product_type TEXT,
//     vendor       TEXT,
//     collections  JSONB,
//     price        NUMERIC,
//     popularity   NUMERIC DEFAULT 0,
//     updated_at   TIMESTAMPTZ,
//     UNIQUE (shop_id, product_id)
// );

// ProductMetadata is owned by the catalog sync; the engine only reads it
// and writes back Popularity.
type ProductMetadata struct {
	ID          uint64                      `gorm:"primaryKey;autoIncrement" json:"-"`
	ShopID      string                      `gorm:"column:shop_id;uniqueIndex:idx_product_shop" json:"shop_id"`
	ProductID   string                      `gorm:"column:product_id;uniqueIndex:idx_product_shop" json:"product_id"`
	Title       string                      `gorm:"column:title;type:text" json:"title"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	ProductType string                      `gorm:"column:product_type;type:text" json:"product_type,omitempty"`
	Vendor      string                      `gorm:"column:vendor;type:text" json:"vendor,omitempty"`
	Collections datatypes.JSONSlice[string] `gorm:"column:collections" json:"collections"`
	Price       float64                     `gorm:"column:price;type:numeric" json:"price"`
	Popularity  float64                     `gorm:"column:popularity;type:numeric;default:0" json:"popularity"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at" json:"updated_at"`
}

func (ProductMetadata) TableName() string {
	return "product_metadata"
}

// HasCollection reports whether the product belongs to the collection.
func (p ProductMetadata) HasCollection(name string) bool {
	for _, c := range p.Collections {
		if c == name {
			return true
		}
	}
	return false
}

// HasTag reports whether the product carries the tag.
func (p ProductMetadata) HasTag(name string) bool {
	for _, t := range p.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// ProductFilter narrows a metadata lookup. Zero-value fields are ignored;
// the list fields match with ANY semantics.
type ProductFilter struct {
	IDsIn          []string
	CollectionsAny []string
	TagsAny        []string
	ProductType    string
	VendorIn       []string
	ExcludeIDs     []string
}

// ProductSummary is the shape returned to the storefront.
type ProductSummary struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
}
