package customers

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// Repository exposes persistence operations for customer profiles.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customer repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CustomerRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByEmail loads a profile by its email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var row models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert writes the profile, replacing the stored address when the email
// already exists.
func (r *Repository) Upsert(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "phone", "address_line", "barangay", "city", "postal_code", "updated_at",
			}),
		}).
		Create(customer).Error
}
