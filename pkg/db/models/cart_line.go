package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine holds a product-level quantity tied to a Cart. Quantity zero is
// never stored: setting a line to zero removes the row. Prices are resolved
// from the catalog at composition time, never snapshotted here.
type CartLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_lines_cart_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_lines_cart_product"`
	Qty       int       `gorm:"column:qty;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
