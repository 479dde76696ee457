package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  session_key TEXT NOT NULL UNIQUE,
  customer_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartLines := `
CREATE TABLE cart_lines (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartLines).Error)
	return db
}

func seedCart(t *testing.T, db *gorm.DB, sessionKey string, updatedAt time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(
		"INSERT INTO carts (id, session_key, created_at, updated_at) VALUES (?, ?, ?, ?)",
		id, sessionKey, updatedAt, updatedAt,
	).Error
	require.NoError(t, err)
	return id
}

func cartUpdatedAt(t *testing.T, db *gorm.DB, cartID uuid.UUID) time.Time {
	t.Helper()
	var row models.Cart
	require.NoError(t, db.Where("id = ?", cartID).First(&row).Error)
	return row.UpdatedAt
}

func TestLineWritesTouchTheCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	dormant := time.Now().UTC().AddDate(0, 0, -45)
	cartID := seedCart(t, db, "sess-touch", dormant)
	productID := uuid.New()

	require.NoError(t, repo.UpsertLine(ctx, cartID, productID, 2))
	afterUpsert := cartUpdatedAt(t, db, cartID)
	require.True(t, afterUpsert.After(dormant), "upsert must bump the cart row, got %v", afterUpsert)

	require.NoError(t, repo.DeleteLine(ctx, cartID, productID))
	afterDelete := cartUpdatedAt(t, db, cartID)
	require.False(t, afterDelete.Before(afterUpsert), "delete must bump the cart row, got %v", afterDelete)
}

func TestStaleSweepSparesActivelyEditedCarts(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -45)
	_ = seedCart(t, db, "sess-abandoned", old)
	edited := seedCart(t, db, "sess-edited", old)

	// A line write yesterday counts as activity even though the cart row
	// itself was created long ago.
	require.NoError(t, repo.UpsertLine(ctx, edited, uuid.New(), 1))

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	deleted, err := repo.DeleteInactiveBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)

	_, err = repo.FindBySessionKey(ctx, "sess-abandoned")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	survivor, err := repo.FindBySessionKey(ctx, "sess-edited")
	require.NoError(t, err)
	require.Equal(t, edited, survivor.ID)
}
