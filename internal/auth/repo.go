package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// Repository exposes persistence operations for staff accounts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a staff repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) StaffRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByEmail loads one staff account by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	var row models.StaffUser
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// TouchLastLogin records the latest successful login time.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.StaffUser{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}
