package cart

import (
	"context"
	"errors"

	"github.com/cartside/cartside-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVersionConflict reports that a versioned cart write lost an optimistic
// concurrency race. The service retries these.
var ErrVersionConflict = errors.New("cart version conflict")

// Repository exposes persistence operations for per-owner carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByOwner loads the owner's cart with items in insertion order.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("owner_id = ?", ownerID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart shell, generating the ID when absent.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// SaveVersioned bumps the cart version guarded by the expected current value.
// A row that moved on underneath reports ErrVersionConflict.
func (r *Repository) SaveVersioned(ctx context.Context, cart *models.Cart) error {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Update("version", cart.Version+1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	cart.Version++
	return nil
}

// ReplaceItems atomically replaces the line items for the provided cart.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].CartID = cartID
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return tx.Create(&items).Error
}
