package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the session-scoped working order. One cart per session key;
// clearing a cart removes its lines but keeps the row.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionKey string     `gorm:"column:session_key;type:text;not null;uniqueIndex"`
	CustomerID *uuid.UUID `gorm:"column:customer_id;type:uuid"`
	Lines      []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
