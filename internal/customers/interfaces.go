package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// CustomerRepository persists customer profiles keyed by email.
type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Upsert(ctx context.Context, customer *models.Customer) error
}
