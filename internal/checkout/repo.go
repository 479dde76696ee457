package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/pmdelrosario/merkado-backend/pkg/db"
	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// GormRepository persists submissions.
type GormRepository struct {
	db          *gorm.DB
	orderPrefix string
}

// NewRepository constructs a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB, orderPrefix string) *GormRepository {
	return &GormRepository{db: db, orderPrefix: orderPrefix}
}

// WithTx binds the repository to a transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx, orderPrefix: r.orderPrefix}
}

// DetectCreateVersion probes the orders schema once at boot and decides
// which creation payload the database can accept. Version 2 carries the
// express-delivery and thermal-bag columns; older schemas take version 1.
func (r *GormRepository) DetectCreateVersion(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM information_schema.columns
		 WHERE table_name = 'orders' AND column_name IN ('express_delivery', 'add_thermal_bag')`,
	).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("probing orders schema: %w", err)
	}
	if count == 2 {
		return 2, nil
	}
	return 1, nil
}

// CreateOrderV2 inserts the order with the full current payload.
func (r *GormRepository) CreateOrderV2(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	order, err := r.buildOrder(input)
	if err != nil {
		return nil, err
	}
	order.ExpressDelivery = input.Draft.ExpressDelivery
	order.AddThermalBag = input.Draft.AddThermalBag
	return r.insertOrder(ctx, order, input.Lines)
}

// CreateOrderV1 inserts the order with the prior payload shape, omitting the
// express-delivery and thermal-bag fields for older schemas.
func (r *GormRepository) CreateOrderV1(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	order, err := r.buildOrder(input)
	if err != nil {
		return nil, err
	}
	return r.insertOrder(ctx, order, input.Lines)
}

func (r *GormRepository) buildOrder(input CreateOrderInput) (*models.Order, error) {
	deliveryDate, err := time.Parse(dateLayout, input.Draft.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery date %q: %w", input.Draft.DeliveryDate, err)
	}

	order := &models.Order{
		OrderNumber:   r.nextOrderNumber(),
		SessionKey:    input.SessionKey,
		CustomerName:  strings.TrimSpace(input.Draft.Name),
		CustomerEmail: strings.TrimSpace(input.Draft.Email),
		CustomerPhone: strings.TrimSpace(input.Draft.Phone),
		AddressLine:   strings.TrimSpace(input.Draft.AddressLine),
		Barangay:      strings.TrimSpace(input.Draft.Barangay),
		City:          strings.TrimSpace(input.Draft.City),
		PostalCode:    input.Draft.PostalCode,
		DeliveryDate:  deliveryDate,
		DeliverySlot:  input.Draft.DeliverySlot,
		Subtotal:      input.Quote.Subtotal,
		DeliveryFee:   input.Quote.DeliveryFee,
		ThermalBagFee: input.Quote.ThermalBagFee,
		TotalSelling:  input.Quote.Total,
	}
	if notes := strings.TrimSpace(input.Draft.Notes); notes != "" {
		order.Notes = &notes
	}
	if input.PaymentProofPath != "" {
		path := input.PaymentProofPath
		order.PaymentProofPath = &path
	}
	return order, nil
}

func (r *GormRepository) insertOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) (*models.Order, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Create(order).Error; err != nil {
		// Random suffixes can collide on a busy day; one fresh number is
		// enough before giving up.
		if !pkgdb.IsUniqueViolation(err, "orders_order_number_key") {
			return nil, err
		}
		order.OrderNumber = r.nextOrderNumber()
		if err := tx.Create(order).Error; err != nil {
			return nil, err
		}
	}
	for i := range lines {
		lines[i].OrderID = order.ID
	}
	if len(lines) > 0 {
		if err := tx.Create(&lines).Error; err != nil {
			return nil, err
		}
	}
	order.Lines = lines
	return order, nil
}

// ForceInitialState overwrites the status trio and amount paid on a freshly
// created order, regardless of the defaults the creation path applied.
func (r *GormRepository) ForceInitialState(ctx context.Context, orderID uuid.UUID, input InitialState) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status":          input.Status,
			"paid_status":     input.PaidStatus,
			"delivery_status": input.DeliveryStatus,
			"amount_paid":     input.AmountPaid,
		}).Error
}

// RecordProofUpload stores the proof object row before order creation claims it.
func (r *GormRepository) RecordProofUpload(ctx context.Context, upload *models.ProofUpload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

// ClaimProofUpload ties a stored proof object to the order that now owns it.
func (r *GormRepository) ClaimProofUpload(ctx context.Context, objectPath string, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ProofUpload{}).
		Where("object_path = ?", objectPath).
		Update("order_id", orderID).Error
}

// ListOrphanProofsBefore returns proof objects no order ever claimed, older
// than the cutoff. These are uploads whose submission died between the
// upload and the order insert.
func (r *GormRepository) ListOrphanProofsBefore(ctx context.Context, cutoff time.Time) ([]models.ProofUpload, error) {
	var rows []models.ProofUpload
	err := r.db.WithContext(ctx).
		Where("order_id IS NULL AND created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteProofUpload removes one proof bookkeeping row.
func (r *GormRepository) DeleteProofUpload(ctx context.Context, objectPath string) error {
	return r.db.WithContext(ctx).
		Where("object_path = ?", objectPath).
		Delete(&models.ProofUpload{}).Error
}

func (r *GormRepository) nextOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", r.orderPrefix, time.Now().UTC().Format("20060102"), suffix)
}
