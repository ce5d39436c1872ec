package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	catalogsvc "github.com/cartside/cartside-backend/internal/catalog"
	pkgerrors "github.com/cartside/cartside-backend/pkg/errors"
)

type createProductRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	UnitPrice   string  `json:"unit_price" validate:"required"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type updateProductRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	UnitPrice   *string `json:"unit_price,omitempty"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r createProductRequest) toCreateInput() (catalogsvc.CreateProductInput, error) {
	price, err := parsePrice(r.UnitPrice)
	if err != nil {
		return catalogsvc.CreateProductInput{}, err
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}

	return catalogsvc.CreateProductInput{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		UnitPrice:   price,
		Currency:    r.Currency,
		IsActive:    isActive,
	}, nil
}

func (r updateProductRequest) toUpdateInput() (catalogsvc.UpdateProductInput, error) {
	input := catalogsvc.UpdateProductInput{
		Title:       r.Title,
		Description: r.Description,
		Currency:    r.Currency,
		IsActive:    r.IsActive,
	}
	if r.UnitPrice != nil {
		price, err := parsePrice(*r.UnitPrice)
		if err != nil {
			return catalogsvc.UpdateProductInput{}, err
		}
		input.UnitPrice = &price
	}
	return input, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_price")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must be non-negative")
	}
	return price, nil
}
