package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cartside/cartside-backend/pkg/config"
	"github.com/cartside/cartside-backend/pkg/db"
	"github.com/cartside/cartside-backend/pkg/db/models"
	pkgerrors "github.com/cartside/cartside-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const ownerCartConstraint = "idx_carts_owner"

// Service exposes the owner-scoped cart operations.
type Service interface {
	GetCart(ctx context.Context, ownerID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, ownerID, productID uuid.UUID, qty int) (*CartView, error)
	SetItemQuantity(ctx context.Context, ownerID, productID uuid.UUID, qty int) (*CartView, error)
	RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*CartView, error)
	ClearCart(ctx context.Context, ownerID uuid.UUID) (*CartView, error)
}

type service struct {
	repo         CartRepository
	tx           txRunner
	catalog      priceResolver
	maxAttempts  int
	priceTimeout time.Duration
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, catalog priceResolver, cfg config.CartConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	maxAttempts := cfg.UpdateMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	priceTimeout := cfg.PriceLookupTimeout
	if priceTimeout <= 0 {
		priceTimeout = 2 * time.Second
	}
	return &service{
		repo:         repo,
		tx:           tx,
		catalog:      catalog,
		maxAttempts:  maxAttempts,
		priceTimeout: priceTimeout,
	}, nil
}

// GetCart returns the owner's cart with totals recomputed from current
// catalog prices. A missing cart reads as an empty cart.
func (s *service) GetCart(ctx context.Context, ownerID uuid.UUID) (*CartView, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	cart, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCartView(ownerID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.buildView(ctx, ownerID, cart.Items), nil
}

// AddItem merges qty into an existing line or appends a new one, creating the
// cart on first use.
func (s *service) AddItem(ctx context.Context, ownerID, productID uuid.UUID, qty int) (*CartView, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be a positive integer")
	}

	if err := s.catalog.EnsurePurchasable(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, ownerID, true, func(items []models.CartItem) ([]models.CartItem, error) {
		return mergeLine(items, productID, qty), nil
	}); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, ownerID)
}

// SetItemQuantity overwrites the quantity of a line. A non-positive qty
// removes the line; a positive qty on an absent line creates it.
func (s *service) SetItemQuantity(ctx context.Context, ownerID, productID uuid.UUID, qty int) (*CartView, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if qty <= 0 {
		return s.RemoveItem(ctx, ownerID, productID)
	}

	// The catalog check only gates new lines: lowering the quantity of a
	// line whose product has since gone inactive must still work.
	if err := s.mutate(ctx, ownerID, true, func(items []models.CartItem) ([]models.CartItem, error) {
		if !hasLine(items, productID) {
			if err := s.catalog.EnsurePurchasable(ctx, productID); err != nil {
				return nil, err
			}
		}
		return setLine(items, productID, qty), nil
	}); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, ownerID)
}

// RemoveItem drops the line when present. Removing an absent line succeeds.
func (s *service) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*CartView, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if err := s.mutate(ctx, ownerID, false, func(items []models.CartItem) ([]models.CartItem, error) {
		return dropLine(items, productID), nil
	}); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, ownerID)
}

// ClearCart removes every line. The cart shell stays in place.
func (s *service) ClearCart(ctx context.Context, ownerID uuid.UUID) (*CartView, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	if err := s.mutate(ctx, ownerID, false, func(items []models.CartItem) ([]models.CartItem, error) {
		return nil, nil
	}); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, ownerID)
}

// mutate runs one read-modify-write of the owner's lines inside a
// transaction, retrying optimistic version conflicts and create races a
// bounded number of times.
func (s *service) mutate(ctx context.Context, ownerID uuid.UUID, createIfMissing bool, op func([]models.CartItem) ([]models.CartItem, error)) error {
	var lastErr error

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)

			cart, err := txRepo.FindByOwner(ctx, ownerID)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				if !createIfMissing {
					return nil
				}
				cart, err = txRepo.Create(ctx, &models.Cart{OwnerID: ownerID})
				if err != nil {
					return err
				}
			}

			items, err := op(cart.Items)
			if err != nil {
				return err
			}

			if err := txRepo.SaveVersioned(ctx, cart); err != nil {
				return err
			}
			return txRepo.ReplaceItems(ctx, cart.ID, items)
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrVersionConflict) || db.IsUniqueViolation(err, ownerCartConstraint) {
			lastErr = err
			continue
		}
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	return pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "cart update contention not resolved")
}

// buildView resolves unit prices for every line and computes the totals over
// the priceable ones. Any lookup failure, including a timeout, degrades the
// line to price-unavailable instead of failing the read.
func (s *service) buildView(ctx context.Context, ownerID uuid.UUID, items []models.CartItem) *CartView {
	view := emptyCartView(ownerID)

	for _, item := range items {
		line := LineView{
			ProductID: item.ProductID,
			Qty:       item.Quantity,
		}

		lineCtx, cancel := context.WithTimeout(ctx, s.priceTimeout)
		price, err := s.catalog.GetUnitPrice(lineCtx, item.ProductID)
		cancel()

		if err != nil {
			line.PriceUnavailable = true
		} else {
			lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.UnitPrice = &price
			line.LineTotal = &lineTotal
			view.SubTotal = view.SubTotal.Add(lineTotal)
		}

		view.Items = append(view.Items, line)
	}

	view.GrandTotal = view.SubTotal
	return view
}

func mergeLine(items []models.CartItem, productID uuid.UUID, qty int) []models.CartItem {
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			return items
		}
	}
	return append(items, models.CartItem{
		ProductID: productID,
		Quantity:  qty,
		Position:  nextPosition(items),
	})
}

func setLine(items []models.CartItem, productID uuid.UUID, qty int) []models.CartItem {
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			return items
		}
	}
	return append(items, models.CartItem{
		ProductID: productID,
		Quantity:  qty,
		Position:  nextPosition(items),
	})
}

func hasLine(items []models.CartItem, productID uuid.UUID) bool {
	for i := range items {
		if items[i].ProductID == productID {
			return true
		}
	}
	return false
}

func dropLine(items []models.CartItem, productID uuid.UUID) []models.CartItem {
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	return kept
}

// nextPosition continues past the highest existing position so first-insertion
// order survives removals.
func nextPosition(items []models.CartItem) int {
	next := 0
	for _, item := range items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}
