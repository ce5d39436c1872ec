package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product/quantity line inside a Cart. Quantity is always
// positive: lines that drop to zero are deleted, never stored.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	Quantity  int       `gorm:"column:quantity;not null"`
	// Position preserves first-insertion order across replace writes.
	Position  int       `gorm:"column:position;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
