package domain

import "time"

// CREATE TABLE public.orders (
//     id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     shop_id      TEXT NOT NULL,
//     order_id     TEXT NOT NULL,
//     user_id      TEXT,
//     completed_at TIMESTAMPTZ NOT NULL,
//     UNIQUE (shop_id, order_id)
// );
// CREATE TABLE public.order_items (
//     id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     order_ref  BIGINT NOT NULL REFERENCES orders(id),
//     product_id TEXT NOT NULL,
//     quantity   NUMERIC,
//     price      NUMERIC
// );

type Order struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement" json:"-"`
	ShopID      string      `gorm:"column:shop_id;uniqueIndex:idx_orders_shop_order" json:"shop_id"`
	OrderID     string      `gorm:"column:order_id;uniqueIndex:idx_orders_shop_order" json:"order_id"`
	UserID      string      `gorm:"column:user_id;index" json:"user_id,omitempty"`
	CompletedAt time.Time   `gorm:"column:completed_at;index" json:"completed_at"`
	Items       []OrderItem `gorm:"foreignKey:OrderRef" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderRef  uint64  `gorm:"column:order_ref;index" json:"-"`
	ProductID string  `gorm:"column:product_id" json:"product_id"`
	Quantity  float64 `gorm:"column:quantity;type:numeric" json:"quantity"`
	Price     float64 `gorm:"column:price;type:numeric" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// DistinctProductIDs returns the order's product IDs deduplicated,
// in line-item order.
func (o Order) DistinctProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	out := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if item.ProductID == "" {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		out = append(out, item.ProductID)
	}
	return out
}
