package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// StaffRepository persists staff accounts.
type StaffRepository interface {
	WithTx(tx *gorm.DB) StaffRepository
	FindByEmail(ctx context.Context, email string) (*models.StaffUser, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
