package delivery

import (
	"context"

	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// RuleRepository loads delivery pricing reference data.
type RuleRepository interface {
	WithTx(tx *gorm.DB) RuleRepository
	ListByPostalCode(ctx context.Context, postalCode string) ([]models.DeliveryRule, error)
	ListAll(ctx context.Context) ([]models.DeliveryRule, error)
}

// Repository implements RuleRepository over GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a delivery rule repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) RuleRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByPostalCode returns rules sharing an exact postal code.
func (r *Repository) ListByPostalCode(ctx context.Context, postalCode string) ([]models.DeliveryRule, error) {
	var rows []models.DeliveryRule
	if err := r.db.WithContext(ctx).
		Where("postal_code = ?", postalCode).
		Order("free_threshold ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns the full rule table.
func (r *Repository) ListAll(ctx context.Context) ([]models.DeliveryRule, error) {
	var rows []models.DeliveryRule
	if err := r.db.WithContext(ctx).
		Order("postal_code ASC, free_threshold ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
