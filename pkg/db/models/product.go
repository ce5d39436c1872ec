package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry owned by a seller. UnitPrice is the current
// price; carts reference it at totals-computation time and never snapshot it.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Title       string          `gorm:"column:title;not null"`
	Description *string         `gorm:"column:description"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Currency    string          `gorm:"column:currency;not null;default:'USD'"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
