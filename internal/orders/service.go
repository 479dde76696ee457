package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
	"github.com/pmdelrosario/merkado-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type proofStore interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error
	Remove(ctx context.Context, objectPath string) error
	ResolveURL(objectPath string) string
}

// ProofFile is a replacement payment proof uploaded by staff.
type ProofFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// AddLineInput names a product and quantity to append to an order.
type AddLineInput struct {
	ProductID uuid.UUID
	Qty       int
}

// FieldPatch carries the optional admin field edits. Every set pointer is an
// independent patch; DeliveryFee additionally recomputes the total in the
// same write to preserve the subtotal+fees invariant.
type FieldPatch struct {
	Name            *string
	Email           *string
	Phone           *string
	AddressLine     *string
	Barangay        *string
	City            *string
	PostalCode      *string
	Notes           *string
	DeliveryDate    *string
	DeliverySlot    *string
	ExpressDelivery *bool
	AddThermalBag   *bool
	DeliveryFee     *decimal.Decimal
	CreatedAt       *time.Time
}

// ListResult is a page of order summaries.
type ListResult struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// Service is the staff reconciliation surface. Every mutation is a single
// independent write; one failing field never rolls back sibling edits.
type Service interface {
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status enums.DeliveryStatus) error
	UpdatePaidStatus(ctx context.Context, id uuid.UUID, status enums.PaidStatus) error
	UpdatePackedQty(ctx context.Context, orderID, lineID uuid.UUID, packedQty *int) error
	UpdateAmountPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	PatchFields(ctx context.Context, id uuid.UUID, patch FieldPatch) error
	AddLines(ctx context.Context, id uuid.UUID, inputs []AddLineInput) (*Detail, error)
	ReplaceProof(ctx context.Context, id uuid.UUID, proof ProofFile) (*Detail, error)
	RemoveProof(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLoader
	store    proofStore
	logg     *logger.Logger
}

// NewService builds the order reconciliation service.
func NewService(repo Repository, tx txRunner, products productLoader, store proofStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if store == nil {
		return nil, fmt.Errorf("proof store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, products: products, store: store, logg: logg}, nil
}

// List returns a page of summaries, newest first.
func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	result := &ListResult{Orders: make([]Summary, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		result.Orders = append(result.Orders, summaryFrom(row))
	}
	return result, nil
}

// GetDetail returns the staff view with packing tones and the payment delta.
func (s *service) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return detailFrom(order, s.store.ResolveURL), nil
}

// UpdateStatus patches the order status alone.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	return s.patch(ctx, id, map[string]any{"status": status})
}

// UpdateDeliveryStatus patches the delivery status. Reaching delivered
// forces status=completed in the same write; no other coupling exists.
func (s *service) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status enums.DeliveryStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery status %q", status))
	}
	fields := map[string]any{"delivery_status": status}
	if status == enums.DeliveryStatusDelivered {
		fields["status"] = enums.OrderStatusCompleted
	}
	return s.patch(ctx, id, fields)
}

// UpdatePaidStatus patches the paid status alone.
func (s *service) UpdatePaidStatus(ctx context.Context, id uuid.UUID, status enums.PaidStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid paid status %q", status))
	}
	return s.patch(ctx, id, map[string]any{"paid_status": status})
}

// UpdatePackedQty patches one line's packed quantity. nil resets the line to
// "not yet packed", which is distinct from zero.
func (s *service) UpdatePackedQty(ctx context.Context, orderID, lineID uuid.UUID, packedQty *int) error {
	if packedQty != nil && *packedQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "packed quantity cannot be negative")
	}
	rows, err := s.repo.UpdateLinePackedQty(ctx, orderID, lineID, packedQty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating packed quantity")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
	}
	return nil
}

// UpdateAmountPaid patches the recorded payment amount.
func (s *service) UpdateAmountPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount paid cannot be negative")
	}
	return s.patch(ctx, id, map[string]any{"amount_paid": amount})
}

// PatchFields applies the provided field edits. A delivery fee edit is
// always paired with a fresh total in the same write.
func (s *service) PatchFields(ctx context.Context, id uuid.UUID, patch FieldPatch) error {
	fields := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			fields[column] = strings.TrimSpace(*value)
		}
	}
	setString("customer_name", patch.Name)
	setString("customer_email", patch.Email)
	setString("customer_phone", patch.Phone)
	setString("address_line", patch.AddressLine)
	setString("barangay", patch.Barangay)
	setString("city", patch.City)
	setString("postal_code", patch.PostalCode)
	setString("notes", patch.Notes)
	setString("delivery_slot", patch.DeliverySlot)

	if patch.DeliveryDate != nil {
		date, err := time.Parse("2006-01-02", *patch.DeliveryDate)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery date %q", *patch.DeliveryDate))
		}
		fields["delivery_date"] = date
	}
	if patch.ExpressDelivery != nil {
		fields["express_delivery"] = *patch.ExpressDelivery
	}
	if patch.AddThermalBag != nil {
		fields["add_thermal_bag"] = *patch.AddThermalBag
	}
	if patch.CreatedAt != nil {
		fields["created_at"] = *patch.CreatedAt
	}

	if patch.DeliveryFee != nil {
		if patch.DeliveryFee.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
		}
		order, err := s.loadOrder(ctx, id)
		if err != nil {
			return err
		}
		fields["delivery_fee"] = *patch.DeliveryFee
		fields["total_selling_price"] = order.Subtotal.Add(*patch.DeliveryFee).Add(order.ThermalBagFee)
	}

	if len(fields) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	return s.patch(ctx, id, fields)
}

// AddLines appends admin lines priced at this moment, then recomputes the
// aggregates from the full line set. The recompute must re-derive, never
// increment, so concurrent edits cannot leave a stale sum behind.
func (s *service) AddLines(ctx context.Context, id uuid.UUID, inputs []AddLineInput) (*Detail, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no lines to add")
	}
	for _, input := range inputs {
		if input.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}

	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderLine, 0, len(inputs))
	for _, input := range inputs {
		product, err := s.products.GetByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", input.ProductID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product for admin line")
		}
		lines = append(lines, models.OrderLine{
			OrderID:             order.ID,
			ProductID:           product.ID,
			NameSnapshot:        product.Name,
			SizeSnapshot:        product.Size,
			TemperatureSnapshot: product.Temperature,
			UnitPriceSnapshot:   product.Price,
			Qty:                 input.Qty,
			LineTotal:           product.Price.Mul(decimal.NewFromInt(int64(input.Qty))),
			AddedByAdmin:        true,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateLines(ctx, lines); err != nil {
			return fmt.Errorf("inserting admin lines: %w", err)
		}

		all, err := repo.ListLines(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("reloading lines for recompute: %w", err)
		}
		subtotal := decimal.Zero
		for _, line := range all {
			subtotal = subtotal.Add(line.LineTotal)
		}
		total := subtotal.Add(order.DeliveryFee).Add(order.ThermalBagFee)

		rows, err := repo.UpdateFields(ctx, order.ID, map[string]any{
			"subtotal":            subtotal,
			"total_selling_price": total,
		})
		if err != nil {
			return fmt.Errorf("persisting recomputed totals: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("recompute write affected no rows")
		}
		return nil
	})
	if err != nil {
		// The recompute left the order inconsistent if ignored; reject loudly.
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding order lines")
	}

	return s.GetDetail(ctx, id)
}

// ReplaceProof removes the old proof object best-effort, uploads the new
// one, and stores its path on the order.
func (s *service) ReplaceProof(ctx context.Context, id uuid.UUID, proof ProofFile) (*Detail, error) {
	if proof.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof file is required")
	}

	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.PaymentProofPath != nil {
		if err := s.store.Remove(ctx, *order.PaymentProofPath); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, id.String()), "removing old proof object failed")
		}
	}

	objectPath := fmt.Sprintf("proofs/admin/%s/%s%s", id, uuid.NewString(), strings.ToLower(path.Ext(proof.Filename)))
	if err := s.store.Upload(ctx, objectPath, proof.ContentType, proof.Content); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading replacement proof")
	}

	if err := s.patch(ctx, id, map[string]any{"payment_proof_path": objectPath}); err != nil {
		return nil, err
	}
	return s.GetDetail(ctx, id)
}

// RemoveProof clears the proof reference and deletes the object best-effort.
func (s *service) RemoveProof(ctx context.Context, id uuid.UUID) error {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.PaymentProofPath == nil {
		return nil
	}

	if err := s.patch(ctx, id, map[string]any{"payment_proof_path": nil}); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, *order.PaymentProofPath); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, id.String()), "removing proof object failed")
	}
	return nil
}

// Delete cascades: lines first, then the order row, then the proof object
// best-effort. A rejected order-row delete fails loudly because the line
// deletion already happened and is not reversible.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteLines(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting order lines")
	}

	rows, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting order")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeForbidden,
			"order delete was rejected after its lines were already removed")
	}

	if order.PaymentProofPath != nil {
		if err := s.store.Remove(ctx, *order.PaymentProofPath); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, id.String()), "removing proof object after delete failed")
		}
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// patch applies a field map and converts a zero-rows result into either a
// not-found or a rejected-write error. The two must never be conflated: a
// rejection is a permissions signal, not a missing row.
func (s *service) patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	rows, err := s.repo.UpdateFields(ctx, id, fields)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order")
	}
	if rows > 0 {
		return nil
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking order existence")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order update was rejected")
}
