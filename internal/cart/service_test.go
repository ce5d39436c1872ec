package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cartside/cartside-backend/pkg/config"
	"github.com/cartside/cartside-backend/pkg/db/models"
	pkgerrors "github.com/cartside/cartside-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCatalog struct {
	prices      map[uuid.UUID]decimal.Decimal
	unavailable map[uuid.UUID]bool
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		prices:      map[uuid.UUID]decimal.Decimal{},
		unavailable: map[uuid.UUID]bool{},
	}
}

func (c *stubCatalog) addProduct(price string) uuid.UUID {
	id := uuid.New()
	c.prices[id] = decimal.RequireFromString(price)
	return id
}

func (c *stubCatalog) EnsurePurchasable(ctx context.Context, productID uuid.UUID) error {
	if _, ok := c.prices[productID]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown product")
	}
	return nil
}

func (c *stubCatalog) GetUnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	if c.unavailable[productID] {
		return decimal.Zero, errors.New("unit price unavailable")
	}
	price, ok := c.prices[productID]
	if !ok {
		return decimal.Zero, errors.New("unit price unavailable")
	}
	return price, nil
}

func newCartTestService(t *testing.T) (Service, *Repository, *stubCatalog) {
	t.Helper()
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	catalog := newStubCatalog()
	svc, err := NewService(repo, gormTxRunner{db: db}, catalog, config.CartConfig{UpdateMaxAttempts: 3})
	require.NoError(t, err)
	return svc, repo, catalog
}

func TestAddItemValidation(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	productID := catalog.addProduct("10.00")

	_, err := svc.AddItem(ctx, uuid.Nil, productID, 1)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, ownerID, uuid.Nil, 1)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, ownerID, productID, 0)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, ownerID, productID, -2)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, ownerID, uuid.New(), 1)
	requireCode(t, err, pkgerrors.CodeValidation)

	// failed validation must not create the cart
	view, err := svc.GetCart(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestAddItemMergesAndPreservesOrder(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	apples := catalog.addProduct("2.50")
	pears := catalog.addProduct("3.00")

	_, err := svc.AddItem(ctx, ownerID, apples, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, ownerID, pears, 1)
	require.NoError(t, err)

	view, err := svc.AddItem(ctx, ownerID, apples, 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, apples, view.Items[0].ProductID)
	assert.Equal(t, 5, view.Items[0].Qty)
	assert.Equal(t, pears, view.Items[1].ProductID)
	assert.Equal(t, 1, view.Items[1].Qty)

	assert.True(t, view.SubTotal.Equal(decimal.RequireFromString("15.50")),
		"expected 15.50, got %s", view.SubTotal)
	assert.True(t, view.GrandTotal.Equal(view.SubTotal))
}

func TestSetItemQuantityOverwrites(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	productID := catalog.addProduct("4.00")

	_, err := svc.AddItem(ctx, ownerID, productID, 2)
	require.NoError(t, err)

	view, err := svc.SetItemQuantity(ctx, ownerID, productID, 7)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 7, view.Items[0].Qty)
	assert.True(t, view.SubTotal.Equal(decimal.RequireFromString("28.00")))
}

func TestSetItemQuantityCreatesAbsentLine(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	productID := catalog.addProduct("4.00")

	view, err := svc.SetItemQuantity(ctx, ownerID, productID, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Qty)

	_, err = svc.SetItemQuantity(ctx, ownerID, uuid.New(), 3)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestSetItemQuantityExistingLineSurvivesRetiredProduct(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	productID := catalog.addProduct("3.00")

	_, err := svc.AddItem(ctx, ownerID, productID, 5)
	require.NoError(t, err)

	// product retired after the line was created
	delete(catalog.prices, productID)

	view, err := svc.SetItemQuantity(ctx, ownerID, productID, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Qty)
	assert.True(t, view.Items[0].PriceUnavailable)

	// a new line still requires a purchasable product
	_, err = svc.SetItemQuantity(ctx, ownerID, uuid.New(), 2)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestSetItemQuantityNonPositiveRemoves(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	keep := catalog.addProduct("1.00")
	gone := catalog.addProduct("2.00")

	_, err := svc.AddItem(ctx, ownerID, keep, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, ownerID, gone, 4)
	require.NoError(t, err)

	view, err := svc.SetItemQuantity(ctx, ownerID, gone, 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, keep, view.Items[0].ProductID)

	// negative qty on an absent line is still a success
	view, err = svc.SetItemQuantity(ctx, ownerID, gone, -5)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	productID := catalog.addProduct("9.99")

	// removing from a cart that does not exist yet succeeds
	view, err := svc.RemoveItem(ctx, ownerID, productID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = svc.AddItem(ctx, ownerID, productID, 2)
	require.NoError(t, err)

	view, err = svc.RemoveItem(ctx, ownerID, productID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	view, err = svc.RemoveItem(ctx, ownerID, productID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestClearCartKeepsShell(t *testing.T) {
	svc, repo, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	productID := catalog.addProduct("5.00")

	_, err := svc.AddItem(ctx, ownerID, productID, 3)
	require.NoError(t, err)

	view, err := svc.ClearCart(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.SubTotal.IsZero())
	assert.True(t, view.GrandTotal.IsZero())

	cart, err := repo.FindByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestGetCartMissingReadsEmpty(t *testing.T) {
	svc, _, _ := newCartTestService(t)

	view, err := svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.SubTotal.IsZero())
	assert.True(t, view.GrandTotal.IsZero())
}

func TestGetCartDegradesUnpriceableLines(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	priced := catalog.addProduct("10.00")
	broken := catalog.addProduct("99.00")

	_, err := svc.AddItem(ctx, ownerID, priced, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, ownerID, broken, 1)
	require.NoError(t, err)

	catalog.unavailable[broken] = true

	view, err := svc.GetCart(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	assert.False(t, view.Items[0].PriceUnavailable)
	require.NotNil(t, view.Items[0].UnitPrice)
	assert.True(t, view.Items[1].PriceUnavailable)
	assert.Nil(t, view.Items[1].UnitPrice)
	assert.Nil(t, view.Items[1].LineTotal)

	// only the priceable line contributes
	assert.True(t, view.SubTotal.Equal(decimal.RequireFromString("20.00")),
		"expected 20.00, got %s", view.SubTotal)
}

// conflictRepo injects version conflicts ahead of a real repository.
type conflictRepo struct {
	CartRepository
	remaining *int
}

func (r conflictRepo) WithTx(tx *gorm.DB) CartRepository {
	return conflictRepo{CartRepository: r.CartRepository.WithTx(tx), remaining: r.remaining}
}

func (r conflictRepo) SaveVersioned(ctx context.Context, cart *models.Cart) error {
	if *r.remaining > 0 {
		*r.remaining--
		return ErrVersionConflict
	}
	return r.CartRepository.SaveVersioned(ctx, cart)
}

func TestMutationRetriesVersionConflict(t *testing.T) {
	db := setupCartTestDB(t)
	catalog := newStubCatalog()
	productID := catalog.addProduct("1.00")

	remaining := 1
	repo := conflictRepo{CartRepository: NewRepository(db), remaining: &remaining}
	svc, err := NewService(repo, gormTxRunner{db: db}, catalog, config.CartConfig{UpdateMaxAttempts: 3})
	require.NoError(t, err)

	view, err := svc.AddItem(context.Background(), uuid.New(), productID, 1)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, 0, remaining)
}

func TestConcurrentAddItemsConverge(t *testing.T) {
	svc, _, catalog := newCartTestService(t)
	ownerID := uuid.New()
	productID := catalog.addProduct("1.00")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), ownerID, productID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// both adds land on a single line regardless of interleaving
	view, err := svc.GetCart(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Qty)
}

func TestMutationSurfacesRetryableErrorOnExhaustion(t *testing.T) {
	db := setupCartTestDB(t)
	catalog := newStubCatalog()
	productID := catalog.addProduct("1.00")

	remaining := 100
	repo := conflictRepo{CartRepository: NewRepository(db), remaining: &remaining}
	svc, err := NewService(repo, gormTxRunner{db: db}, catalog, config.CartConfig{UpdateMaxAttempts: 2})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), uuid.New(), productID, 1)
	requireCode(t, err, pkgerrors.CodeInternal)
	assert.True(t, pkgerrors.MetadataFor(pkgerrors.As(err).Code()).Retryable)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}
