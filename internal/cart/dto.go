package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineView is a cart line joined with live catalog display fields. Stock
// sufficiency is advisory only; nothing clamps the stored quantity.
type LineView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Size        string          `json:"size"`
	Temperature string          `json:"temperature"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Qty         int             `json:"qty"`
	LineTotal   decimal.Decimal `json:"line_total"`
	InStock     bool            `json:"in_stock"`
}

// View is the rendered cart: current lines plus their running subtotal.
type View struct {
	SessionKey string          `json:"session_key"`
	Lines      []LineView      `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}
