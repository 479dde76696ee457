package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	UpsertLine(ctx context.Context, cartID, productID uuid.UUID, qty int) error
	DeleteLine(ctx context.Context, cartID, productID uuid.UUID) error
	ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
}
