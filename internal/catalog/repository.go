package catalog

import (
	"context"

	"github.com/cartside/cartside-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListFilters narrows a product listing query.
type ListFilters struct {
	SellerID   *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	OnlyActive bool
}

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row, generating the ID when absent.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update persists all columns of an existing product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// List returns a filtered page of products plus the unpaged total.
func (r *Repository) List(ctx context.Context, filters ListFilters, skip, limit int) ([]models.Product, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Product{})

	if filters.SellerID != nil {
		qb = qb.Where("seller_id = ?", *filters.SellerID)
	}
	if filters.MinPrice != nil {
		qb = qb.Where("unit_price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		qb = qb.Where("unit_price <= ?", *filters.MaxPrice)
	}
	if filters.OnlyActive {
		qb = qb.Where("is_active = ?", true)
	}

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := qb.
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
