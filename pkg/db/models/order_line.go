package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine snapshots a product at order time so later catalog edits never
// change a placed order. Immutable once written except PackedQty.
type OrderLine struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	NameSnapshot        string          `gorm:"column:name_snapshot;type:text;not null"`
	SizeSnapshot        string          `gorm:"column:size_snapshot;type:text;not null;default:''"`
	TemperatureSnapshot string          `gorm:"column:temperature_snapshot;type:text;not null;default:''"`
	UnitPriceSnapshot   decimal.Decimal `gorm:"column:unit_price_snapshot;type:numeric(12,2);not null"`
	Qty                 int             `gorm:"column:qty;not null"`
	PackedQty           *int            `gorm:"column:packed_qty"`
	LineTotal           decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	AddedByAdmin        bool            `gorm:"column:added_by_admin;not null;default:false"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
