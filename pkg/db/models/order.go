package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmdelrosario/merkado-backend/pkg/enums"
)

// Order is the persisted result of a submission. It stays mutable to staff
// after creation; totalSellingPrice is always subtotal + delivery fee +
// thermal bag fee except under an explicit paired admin override.
type Order struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string               `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	CustomerID       *uuid.UUID           `gorm:"column:customer_id;type:uuid"`
	SessionKey       string               `gorm:"column:session_key;type:text;not null;default:''"`
	CustomerName     string               `gorm:"column:customer_name;type:text;not null"`
	CustomerEmail    string               `gorm:"column:customer_email;type:text;not null"`
	CustomerPhone    string               `gorm:"column:customer_phone;type:text;not null"`
	AddressLine      string               `gorm:"column:address_line;type:text;not null"`
	Barangay         string               `gorm:"column:barangay;type:text;not null;default:''"`
	City             string               `gorm:"column:city;type:text;not null;default:''"`
	PostalCode       string               `gorm:"column:postal_code;type:text;not null"`
	Notes            *string              `gorm:"column:notes"`
	DeliveryDate     time.Time            `gorm:"column:delivery_date;type:date;not null"`
	DeliverySlot     string               `gorm:"column:delivery_slot;type:text;not null"`
	ExpressDelivery  bool                 `gorm:"column:express_delivery;not null;default:false"`
	AddThermalBag    bool                 `gorm:"column:add_thermal_bag;not null;default:false"`
	Subtotal         decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee      decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	ThermalBagFee    decimal.Decimal      `gorm:"column:thermal_bag_fee;type:numeric(12,2);not null"`
	TotalSelling     decimal.Decimal      `gorm:"column:total_selling_price;type:numeric(12,2);not null"`
	AmountPaid       *decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2)"`
	PaymentProofPath *string              `gorm:"column:payment_proof_path;type:text"`
	Status           enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'draft'"`
	PaidStatus       enums.PaidStatus     `gorm:"column:paid_status;type:text;not null;default:'unpaid'"`
	DeliveryStatus   enums.DeliveryStatus `gorm:"column:delivery_status;type:text;not null;default:'unpacked'"`
	Lines            []OrderLine          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
