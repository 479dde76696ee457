package models

import (
	"time"

	"github.com/google/uuid"
)

// ProofUpload records a payment-proof object the moment it lands in storage,
// before order creation claims it. Uploads with a nil OrderID past the
// retention window are orphans and get removed by the cleanup job.
type ProofUpload struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ObjectPath string     `gorm:"column:object_path;type:text;not null;uniqueIndex"`
	SessionKey string     `gorm:"column:session_key;type:text;not null"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
