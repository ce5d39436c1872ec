package catalog

import (
	"time"

	"github.com/cartside/cartside-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the API-facing product shape.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Currency    string          `json:"currency"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResult carries one page of products plus paging info.
type ProductListResult struct {
	Products []ProductDTO `json:"products"`
	Total    int64        `json:"total"`
	Skip     int          `json:"skip"`
	Limit    int          `json:"limit"`
}

// NewProductDTO maps the persistence model onto the API shape.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:          product.ID,
		SellerID:    product.SellerID,
		Title:       product.Title,
		Description: product.Description,
		UnitPrice:   product.UnitPrice,
		Currency:    product.Currency,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
