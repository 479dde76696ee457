package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	"github.com/pmdelrosario/merkado-backend/pkg/pagination"
)

// ListFilter narrows the staff order list.
type ListFilter struct {
	Status         *enums.OrderStatus
	PaidStatus     *enums.PaidStatus
	DeliveryStatus *enums.DeliveryStatus
	DeliveryDate   *time.Time
	Limit          int
	Cursor         *pagination.Cursor
}

// Repository is the persistence surface for order reconciliation. Mutations
// report rows affected so the service can tell a rejected write apart from a
// missing row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	ListLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error)
	UpdateLinePackedQty(ctx context.Context, orderID, lineID uuid.UUID, packedQty *int) (int64, error)
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	DeleteLines(ctx context.Context, orderID uuid.UUID) error
	DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error)
}
