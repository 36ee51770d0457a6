package domain

import (
	"time"
)

// CREATE TABLE public.events (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     event_id    TEXT UNIQUE,
//     shop_id     TEXT NOT NULL,
//     kind        TEXT NOT NULL,
//     product_id  TEXT,
//     variant_id  TEXT,
//     quantity    NUMERIC,
//     price       NUMERIC,
//     user_id     TEXT,
//     session_id  TEXT,
//     occurred_at TIMESTAMPTZ NOT NULL,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

const (
	EventKindView        = "VIEW"
	EventKindCartAdd     = "CART_ADD"
	EventKindCartRemove  = "CART_REMOVE"
	EventKindCartUpdate  = "CART_UPDATE"
	EventKindOrderPlaced = "ORDER_COMPLETED"
)

// Event is an append-only behavioral signal. Rows are never mutated;
// all derived state (popularity, co-occurrence, profiles) is recomputed
// from them.
type Event struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	EventID    string    `gorm:"column:event_id;uniqueIndex" json:"event_id"`
	ShopID     string    `gorm:"column:shop_id;index:idx_events_shop_kind_time" json:"shop_id"`
	Kind       string    `gorm:"column:kind;index:idx_events_shop_kind_time" json:"kind"`
	ProductID  string    `gorm:"column:product_id;index" json:"product_id"`
	VariantID  string    `gorm:"column:variant_id" json:"variant_id,omitempty"`
	Quantity   float64   `gorm:"column:quantity;type:numeric" json:"quantity,omitempty"`
	Price      float64   `gorm:"column:price;type:numeric" json:"price,omitempty"`
	UserID     string    `gorm:"column:user_id;index" json:"user_id,omitempty"`
	SessionID  string    `gorm:"column:session_id;index" json:"session_id,omitempty"`
	OccurredAt time.Time `gorm:"column:occurred_at;index:idx_events_shop_kind_time" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"-"`
}

func (Event) TableName() string {
	return "events"
}

// ValidEventKind reports whether kind is one of the normalized event kinds.
func ValidEventKind(kind string) bool {
	switch kind {
	case EventKindView, EventKindCartAdd, EventKindCartRemove, EventKindCartUpdate, EventKindOrderPlaced:
		return true
	}
	return false
}
