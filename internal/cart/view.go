package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineView is one cart line as served to clients. UnitPrice and LineTotal are
// resolved from the catalog at read time; a line whose price cannot be
// resolved carries PriceUnavailable and contributes nothing to the totals.
type LineView struct {
	ProductID        uuid.UUID        `json:"product_id"`
	Qty              int              `json:"qty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal        *decimal.Decimal `json:"line_total,omitempty"`
	PriceUnavailable bool             `json:"price_unavailable,omitempty"`
}

// CartView is the full read model for an owner's cart. Totals are never
// persisted: they are recomputed on every read.
type CartView struct {
	OwnerID    uuid.UUID       `json:"owner_id"`
	Items      []LineView      `json:"items"`
	SubTotal   decimal.Decimal `json:"sub_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func emptyCartView(ownerID uuid.UUID) *CartView {
	return &CartView{
		OwnerID:    ownerID,
		Items:      []LineView{},
		SubTotal:   decimal.Zero,
		GrandTotal: decimal.Zero,
	}
}
