package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
)

// PackingTone is the tri-state packing signal shown to warehouse staff.
// A nil packedQty means "not yet packed" and demands attention just like a
// short pack; it is still reported distinctly through the PackedQty field.
type PackingTone string

const (
	PackingToneIncomplete PackingTone = "incomplete"
	PackingToneSatisfied  PackingTone = "satisfied"
	PackingToneOvershoot  PackingTone = "overshoot"
)

// ToneForLine reproduces the packed-vs-ordered comparison exactly: short or
// absent packs are incomplete, exact packs are satisfied, over-packs flag an
// overshoot.
func ToneForLine(qty int, packedQty *int) PackingTone {
	switch {
	case packedQty == nil, *packedQty < qty:
		return PackingToneIncomplete
	case *packedQty == qty:
		return PackingToneSatisfied
	default:
		return PackingToneOvershoot
	}
}

// PaymentVerdict classifies the amount-paid delta.
type PaymentVerdict string

const (
	PaymentVerdictCorrect   PaymentVerdict = "correct"
	PaymentVerdictAmountDue PaymentVerdict = "amount due"
	PaymentVerdictRefundDue PaymentVerdict = "refund due"
)

// PaymentDelta is amountPaid minus totalSellingPrice, with the verdict and
// the absolute amount staff act on.
type PaymentDelta struct {
	Delta   decimal.Decimal `json:"delta"`
	Abs     decimal.Decimal `json:"abs"`
	Verdict PaymentVerdict  `json:"verdict"`
	Known   bool            `json:"known"` // false while amountPaid is null
}

// DeltaFor computes the payment reconciliation for an order.
func DeltaFor(amountPaid *decimal.Decimal, total decimal.Decimal) PaymentDelta {
	if amountPaid == nil {
		return PaymentDelta{Delta: decimal.Zero, Abs: decimal.Zero, Verdict: PaymentVerdictAmountDue, Known: false}
	}
	delta := amountPaid.Sub(total)
	verdict := PaymentVerdictCorrect
	switch {
	case delta.IsNegative():
		verdict = PaymentVerdictAmountDue
	case delta.IsPositive():
		verdict = PaymentVerdictRefundDue
	}
	return PaymentDelta{Delta: delta, Abs: delta.Abs(), Verdict: verdict, Known: true}
}

// LineDetail is an order line with its packing tone.
type LineDetail struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Size         string          `json:"size"`
	Temperature  string          `json:"temperature"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Qty          int             `json:"qty"`
	PackedQty    *int            `json:"packed_qty"`
	LineTotal    decimal.Decimal `json:"line_total"`
	AddedByAdmin bool            `json:"added_by_admin"`
	Tone         PackingTone     `json:"tone"`
}

// Detail is the staff view of one order.
type Detail struct {
	ID              uuid.UUID            `json:"id"`
	OrderNumber     string               `json:"order_number"`
	CustomerName    string               `json:"customer_name"`
	CustomerEmail   string               `json:"customer_email"`
	CustomerPhone   string               `json:"customer_phone"`
	AddressLine     string               `json:"address_line"`
	Barangay        string               `json:"barangay"`
	City            string               `json:"city"`
	PostalCode      string               `json:"postal_code"`
	Notes           *string              `json:"notes"`
	DeliveryDate    string               `json:"delivery_date"`
	DeliverySlot    string               `json:"delivery_slot"`
	ExpressDelivery bool                 `json:"express_delivery"`
	AddThermalBag   bool                 `json:"add_thermal_bag"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	DeliveryFee     decimal.Decimal      `json:"delivery_fee"`
	ThermalBagFee   decimal.Decimal      `json:"thermal_bag_fee"`
	Total           decimal.Decimal      `json:"total_selling_price"`
	AmountPaid      *decimal.Decimal     `json:"amount_paid"`
	ProofPath       *string              `json:"payment_proof_path"`
	ProofURL        string               `json:"payment_proof_url,omitempty"`
	Status          enums.OrderStatus    `json:"status"`
	PaidStatus      enums.PaidStatus     `json:"paid_status"`
	DeliveryStatus  enums.DeliveryStatus `json:"delivery_status"`
	Payment         PaymentDelta         `json:"payment"`
	Lines           []LineDetail         `json:"lines"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Summary is one row in the staff order list.
type Summary struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    string               `json:"order_number"`
	CustomerName   string               `json:"customer_name"`
	DeliveryDate   string               `json:"delivery_date"`
	DeliverySlot   string               `json:"delivery_slot"`
	Total          decimal.Decimal      `json:"total_selling_price"`
	Status         enums.OrderStatus    `json:"status"`
	PaidStatus     enums.PaidStatus     `json:"paid_status"`
	DeliveryStatus enums.DeliveryStatus `json:"delivery_status"`
	CreatedAt      time.Time            `json:"created_at"`
}

func detailFrom(order *models.Order, resolveURL func(string) string) *Detail {
	detail := &Detail{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		AddressLine:     order.AddressLine,
		Barangay:        order.Barangay,
		City:            order.City,
		PostalCode:      order.PostalCode,
		Notes:           order.Notes,
		DeliveryDate:    order.DeliveryDate.Format("2006-01-02"),
		DeliverySlot:    order.DeliverySlot,
		ExpressDelivery: order.ExpressDelivery,
		AddThermalBag:   order.AddThermalBag,
		Subtotal:        order.Subtotal,
		DeliveryFee:     order.DeliveryFee,
		ThermalBagFee:   order.ThermalBagFee,
		Total:           order.TotalSelling,
		AmountPaid:      order.AmountPaid,
		ProofPath:       order.PaymentProofPath,
		Status:          order.Status,
		PaidStatus:      order.PaidStatus,
		DeliveryStatus:  order.DeliveryStatus,
		Payment:         DeltaFor(order.AmountPaid, order.TotalSelling),
		Lines:           make([]LineDetail, 0, len(order.Lines)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.PaymentProofPath != nil && resolveURL != nil {
		detail.ProofURL = resolveURL(*order.PaymentProofPath)
	}
	for _, line := range order.Lines {
		detail.Lines = append(detail.Lines, LineDetail{
			ID:           line.ID,
			ProductID:    line.ProductID,
			Name:         line.NameSnapshot,
			Size:         line.SizeSnapshot,
			Temperature:  line.TemperatureSnapshot,
			UnitPrice:    line.UnitPriceSnapshot,
			Qty:          line.Qty,
			PackedQty:    line.PackedQty,
			LineTotal:    line.LineTotal,
			AddedByAdmin: line.AddedByAdmin,
			Tone:         ToneForLine(line.Qty, line.PackedQty),
		})
	}
	return detail
}

func summaryFrom(order models.Order) Summary {
	return Summary{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.CustomerName,
		DeliveryDate:   order.DeliveryDate.Format("2006-01-02"),
		DeliverySlot:   order.DeliverySlot,
		Total:          order.TotalSelling,
		Status:         order.Status,
		PaidStatus:     order.PaidStatus,
		DeliveryStatus: order.DeliveryStatus,
		CreatedAt:      order.CreatedAt,
	}
}
