package cart

import (
	"context"

	"github.com/cartside/cartside-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	SaveVersioned(ctx context.Context, cart *models.Cart) error
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// priceResolver is the catalog surface the cart depends on: existence checks
// before accepting a line and unit prices at totals computation time.
type priceResolver interface {
	EnsurePurchasable(ctx context.Context, productID uuid.UUID) error
	GetUnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}
