package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/pagination"
)

// GormRepository persists orders for the admin surface.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx}
}

// FindByID loads the order with its lines.
func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Exists reports whether the order row is present at all. Used to separate a
// rejected write from a true not-found.
func (r *GormRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns orders newest-first, cursor paginated.
func (r *GormRepository) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaidStatus != nil {
		query = query.Where("paid_status = ?", *filter.PaidStatus)
	}
	if filter.DeliveryStatus != nil {
		query = query.Where("delivery_status = ?", *filter.DeliveryStatus)
	}
	if filter.DeliveryDate != nil {
		query = query.Where("delivery_date = ?", filter.DeliveryDate.Format("2006-01-02"))
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var rows []models.Order
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLines returns all lines for the order.
func (r *GormRepository) ListLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	var rows []models.OrderLine
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateFields applies a column map to one order and reports rows affected.
func (r *GormRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// UpdateLinePackedQty patches a single line's packed quantity.
func (r *GormRepository) UpdateLinePackedQty(ctx context.Context, orderID, lineID uuid.UUID, packedQty *int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("id = ? AND order_id = ?", lineID, orderID).
		Update("packed_qty", packedQty)
	return result.RowsAffected, result.Error
}

// CreateLines appends lines to an order.
func (r *GormRepository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// DeleteLines removes every line belonging to the order.
func (r *GormRepository) DeleteLines(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderLine{}).Error
}

// DeleteOrder removes the order row and reports rows affected.
func (r *GormRepository) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{})
	return result.RowsAffected, result.Error
}
