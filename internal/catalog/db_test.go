package catalog

import (
	"testing"

	"github.com/cartside/cartside-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  unit_price NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(products).Error)
	return db
}

func mustCreateTestProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID, price string, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Title:     "Test Product",
		UnitPrice: decimal.RequireFromString(price),
		Currency:  "USD",
		IsActive:  active,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
