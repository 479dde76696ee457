package checkout

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/pmdelrosario/merkado-backend/internal/cart"
	"github.com/pmdelrosario/merkado-backend/internal/delivery"
	"github.com/pmdelrosario/merkado-backend/pkg/config"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
)

// Composer is the single producer of the four checkout totals and of the
// readiness verdict. Nothing else in the codebase derives a total.
type Composer struct {
	cfg      config.CheckoutConfig
	slots    SlotPolicy
	carts    cartReader
	resolver deliveryResolver
	now      func() time.Time
}

// NewComposer builds the checkout composer.
func NewComposer(cfg config.CheckoutConfig, carts cartReader, resolver deliveryResolver) (*Composer, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("delivery resolver required")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading checkout timezone %q: %w", cfg.Timezone, err)
	}
	return &Composer{
		cfg: cfg,
		slots: SlotPolicy{
			Location:      loc,
			StartHour:     cfg.SlotWindowStartHour,
			EndHour:       cfg.SlotWindowEndHour,
			MinLeadTime:   cfg.MinLeadTime,
			SuggestedLead: cfg.SuggestedLeadTime,
		},
		carts:    carts,
		resolver: resolver,
		now:      time.Now,
	}, nil
}

// Slots exposes the slot policy for the slot listing endpoint.
func (c *Composer) Slots() SlotPolicy {
	return c.slots
}

// Compose derives the four totals from the live cart and the resolved
// delivery rule, then runs the readiness checks over the draft.
//
// The free-delivery thresholds (per-rule and the flat ceiling) are compared
// against the fee-exclusive figure subtotal+thermalBagFee so the fee never
// feeds back into its own waiver check.
func (c *Composer) Compose(ctx context.Context, sessionKey string, draft Draft) (*Quote, error) {
	view, err := c.carts.GetCart(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return c.composeView(ctx, view, draft)
}

// composeView prices one cart view. Quote and line snapshot must come from
// the same read or a concurrent cart edit desynchronizes subtotal and lines.
func (c *Composer) composeView(ctx context.Context, view *cart.View, draft Draft) (*Quote, error) {
	quote := &Quote{
		Subtotal:      view.Subtotal,
		ThermalBagFee: decimal.Zero,
		Issues:        []FieldIssue{},
	}
	if draft.AddThermalBag {
		quote.ThermalBagFee = decimal.NewFromInt(int64(c.cfg.ThermalBagFee))
	}

	resolution, err := c.resolveDelivery(ctx, draft)
	if err != nil {
		return nil, err
	}
	if resolution != nil {
		quote.DeliveryResolved = true
		quote.DeliveryArea = resolution.AreaName
		quote.DeliveryFee = c.deliveryFee(quote.Subtotal.Add(quote.ThermalBagFee), resolution)
	}

	quote.Total = quote.Subtotal.Add(quote.DeliveryFee).Add(quote.ThermalBagFee)
	quote.Issues = c.readiness(len(view.Lines) > 0, draft, resolution)
	quote.Ready = len(quote.Issues) == 0
	return quote, nil
}

func (c *Composer) resolveDelivery(ctx context.Context, draft Draft) (*delivery.Resolution, error) {
	if delivery.NormalizePostalCode(draft.PostalCode) == "" {
		return nil, nil
	}
	area := strings.TrimSpace(draft.Barangay + " " + draft.City)
	return c.resolver.ResolveForAddress(ctx, draft.PostalCode, area)
}

// deliveryFee waives the fee when the fee-exclusive total reaches either the
// flat ceiling or the rule's own threshold; otherwise the rule fee applies.
func (c *Composer) deliveryFee(feeBasis decimal.Decimal, resolution *delivery.Resolution) decimal.Decimal {
	ceiling := decimal.NewFromInt(int64(c.cfg.FreeDeliveryCeiling))
	if feeBasis.GreaterThanOrEqual(ceiling) {
		return decimal.Zero
	}
	if feeBasis.GreaterThanOrEqual(resolution.FreeThreshold) {
		return decimal.Zero
	}
	return resolution.Fee
}

func (c *Composer) readiness(hasLines bool, draft Draft, resolution *delivery.Resolution) []FieldIssue {
	issues := []FieldIssue{}
	add := func(field, reason string) {
		issues = append(issues, FieldIssue{Field: field, Reason: reason})
	}

	if !hasLines {
		add("cart", "cart is empty")
	}
	if strings.TrimSpace(draft.Name) == "" {
		add("name", "name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(draft.Email)); err != nil {
		add("email", "a valid email is required")
	}
	if digitCount(draft.Phone) < c.cfg.MinPhoneDigits {
		add("phone", fmt.Sprintf("phone must have at least %d digits", c.cfg.MinPhoneDigits))
	}
	if len(strings.TrimSpace(draft.AddressLine)) < c.cfg.MinAddressLineLength {
		add("address_line", fmt.Sprintf("address must be at least %d characters", c.cfg.MinAddressLineLength))
	}

	// Absent and unresolved postal codes both block submission but are
	// reported as distinct states.
	if delivery.NormalizePostalCode(draft.PostalCode) == "" {
		add("postal_code", "postal code is required")
	} else if resolution == nil {
		add("postal_code", "delivery area not yet covered")
	}

	if draft.DeliveryDate == "" {
		add("delivery_date", "delivery date is required")
	}
	if draft.DeliverySlot == "" {
		add("delivery_slot", "delivery slot is required")
	}
	if draft.DeliveryDate != "" && draft.DeliverySlot != "" {
		ts, err := c.slots.SlotTimestamp(draft.DeliveryDate, draft.DeliverySlot)
		if err != nil {
			add("delivery_slot", "delivery slot is invalid")
		} else if ts.Sub(c.now()) < c.cfg.MinLeadTime && !draft.ExpressDelivery {
			add("delivery_slot", "slot is inside the minimum lead time; pick a later slot or confirm express delivery")
		}
	}

	if !draft.HasProof {
		add("payment_proof", "payment proof is required")
	}

	return issues
}

// RequireReady reads the cart once, composes, and rejects with a validation
// error carrying the per-field issues when the draft is not submittable. The
// priced view is returned so the caller snapshots the lines the quote was
// computed over, never a later read.
func (c *Composer) RequireReady(ctx context.Context, sessionKey string, draft Draft) (*Quote, *cart.View, error) {
	view, err := c.carts.GetCart(ctx, sessionKey)
	if err != nil {
		return nil, nil, err
	}
	quote, err := c.composeView(ctx, view, draft)
	if err != nil {
		return nil, nil, err
	}
	if !quote.Ready {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout is not ready to submit").
			WithDetails(quote.Issues)
	}
	return quote, view, nil
}

func digitCount(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}
