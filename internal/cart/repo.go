package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// Repository exposes persistence operations for session carts.
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

// FindBySessionKey loads the cart owned by the session key.
func (r *Repository) FindBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error) {
	var row models.Cart
	err := r.db.WithContext(ctx).
		Where("session_key = ?", sessionKey).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new Cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// UpsertLine sets the exact quantity for a cart line, inserting the row on
// first write. The (cart_id, product_id) unique index makes this idempotent.
func (r *Repository) UpsertLine(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	line := models.CartLine{
		CartID:    cartID,
		ProductID: productID,
		Qty:       qty,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"qty": qty}),
		}).
		Create(&line).Error; err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// DeleteLine removes a cart line. Deleting an absent line is a no-op.
func (r *Repository) DeleteLine(ctx context.Context, cartID, productID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartLine{}).Error; err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// touch bumps the cart's updated_at. Line writes land on cart_lines only, but
// the stale-cart sweep judges activity by the cart row, so every line write
// must mark the cart as recently used or an active cart gets reaped.
func (r *Repository) touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

// ListLines returns lines belonging to a cart in insertion order.
func (r *Repository) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteInactiveBefore drops carts untouched since the cutoff. Lines go with
// them through the foreign key cascade.
func (r *Repository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
