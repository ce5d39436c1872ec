package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the per-owner persisted cart shell. Totals are never stored here:
// unit prices are owned by the catalog and resolved at read time.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_carts_owner"`
	Version   int64      `gorm:"column:version;not null;default:0"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
