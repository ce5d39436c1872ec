package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cartside/cartside-backend/pkg/db/models"
	pkgerrors "github.com/cartside/cartside-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrPriceUnavailable reports that no usable unit price exists for a product.
// Callers computing totals degrade the affected line instead of failing.
var ErrPriceUnavailable = errors.New("unit price unavailable")

const (
	defaultCurrency = "USD"
	maxListLimit    = 20
)

// Service exposes seller product management plus the price lookups used by
// cart reads.
type Service interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	EnsurePurchasable(ctx context.Context, productID uuid.UUID) error
	GetUnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Title       string
	Description *string
	UnitPrice   decimal.Decimal
	Currency    string
	IsActive    bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Title       *string
	Description *string
	UnitPrice   *decimal.Decimal
	Currency    *string
	IsActive    *bool
}

// ListProductsInput narrows and pages a product listing.
type ListProductsInput struct {
	SellerID   *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	OnlyActive bool
	Skip       int
	Limit      int
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// CreateProduct inserts a product owned by the seller.
func (s *service) CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must be non-negative")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	product := &models.Product{
		SellerID:    sellerID,
		Title:       title,
		Description: input.Description,
		UnitPrice:   input.UnitPrice,
		Currency:    currency,
		IsActive:    input.IsActive,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

// UpdateProduct applies partial updates to a product owned by the seller.
func (s *service) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if input.UnitPrice != nil && input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must be non-negative")
	}

	product, err := s.loadOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	applyUpdateToProduct(product, input)
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(updated), nil
}

// DeleteProduct removes a product owned by the seller. Cart lines referencing
// it stay in place and surface as price-unavailable on the next read.
func (s *service) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	if _, err := s.loadOwnedProduct(ctx, sellerID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

// GetProduct returns a product by ID.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns a filtered page of products. The page size is capped.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.MinPrice != nil && input.MinPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price must be non-negative")
	}
	if input.MaxPrice != nil && input.MaxPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_price must be non-negative")
	}
	if input.MinPrice != nil && input.MaxPrice != nil && input.MinPrice.GreaterThan(*input.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}

	skip := input.Skip
	if skip < 0 {
		skip = 0
	}
	limit := input.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, total, err := s.repo.List(ctx, ListFilters{
		SellerID:   input.SellerID,
		MinPrice:   input.MinPrice,
		MaxPrice:   input.MaxPrice,
		OnlyActive: input.OnlyActive,
	}, skip, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	products := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		products = append(products, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{
		Products: products,
		Total:    total,
		Skip:     skip,
		Limit:    limit,
	}, nil
}

// EnsurePurchasable verifies the product exists and is active. Used before
// accepting a new cart line.
func (s *service) EnsurePurchasable(ctx context.Context, productID uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown product")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not active")
	}
	return nil
}

// GetUnitPrice resolves the current unit price for totals computation.
// Missing or inactive products report ErrPriceUnavailable.
func (s *service) GetUnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrPriceUnavailable
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product price")
	}
	if !product.IsActive {
		return decimal.Zero, ErrPriceUnavailable
	}
	return product.UnitPrice, nil
}

func (s *service) loadOwnedProduct(ctx context.Context, sellerID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to seller")
	}
	return product, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.UnitPrice != nil {
		product.UnitPrice = *input.UnitPrice
	}
	if input.Currency != nil {
		product.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}
