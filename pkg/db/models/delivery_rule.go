package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryRule maps a postal code and area name to a delivery fee and the
// order value at which delivery becomes free for that zone. Seeded by
// migration; the resolver matches postal code first, area name second.
type DeliveryRule struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PostalCode    string          `gorm:"column:postal_code;type:text;not null;index"`
	AreaName      string          `gorm:"column:area_name;type:text;not null"`
	FreeThreshold decimal.Decimal `gorm:"column:free_threshold;type:numeric(12,2);not null"`
	Fee           decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
