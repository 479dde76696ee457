package checkout

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Draft carries everything the customer has filled in so far. Compose never
// mutates it; the same draft is replayed on submission.
type Draft struct {
	Name            string
	Email           string
	Phone           string
	AddressLine     string
	Barangay        string
	City            string
	PostalCode      string
	Notes           string
	DeliveryDate    string // 2006-01-02
	DeliverySlot    string // slot start, e.g. "14:30"
	ExpressDelivery bool
	AddThermalBag   bool
	SaveProfile     bool
	HasProof        bool
}

// FieldIssue reports a single readiness failure inline, keyed by field.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Quote is the composed checkout: the four monetary figures plus readiness.
// total is always subtotal + deliveryFee + thermalBagFee.
type Quote struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	ThermalBagFee    decimal.Decimal `json:"thermal_bag_fee"`
	Total            decimal.Decimal `json:"total"`
	DeliveryResolved bool            `json:"delivery_resolved"`
	DeliveryArea     string          `json:"delivery_area,omitempty"`
	Ready            bool            `json:"ready"`
	Issues           []FieldIssue    `json:"issues"`
}

// ProofFile is the uploaded payment proof as received from the client.
type ProofFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// SubmitResult is returned once the order row exists; warnings from the
// advisory saga steps never appear here.
type SubmitResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SlotSuggestion is the default slot offered to the customer.
type SlotSuggestion struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

// DaySlots lists the selectable slot starts for one date.
type DaySlots struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}
