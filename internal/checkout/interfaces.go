package checkout

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/internal/cart"
	"github.com/pmdelrosario/merkado-backend/internal/delivery"
	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
)

// cartReader is the slice of the cart service the composer needs.
type cartReader interface {
	GetCart(ctx context.Context, sessionKey string) (*cart.View, error)
}

// cartClearer empties the session cart after a successful submission.
type cartClearer interface {
	ClearBestEffort(ctx context.Context, sessionKey string) error
}

// deliveryResolver yields a pricing rule for an address, or nil when the
// address is not covered.
type deliveryResolver interface {
	ResolveForAddress(ctx context.Context, postalCode, area string) (*delivery.Resolution, error)
}

// proofStore is the durable object storage slice used by submission.
type proofStore interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error
}

// profileSaver persists the address back onto the customer profile.
type profileSaver interface {
	SaveAddress(ctx context.Context, input ProfileAddress) error
}

// ProfileAddress is the save-profile payload.
type ProfileAddress struct {
	Email       string
	Name        string
	Phone       string
	AddressLine string
	Barangay    string
	City        string
	PostalCode  string
}

// CreateOrderInput is the full payload handed to the versioned creation
// procedure.
type CreateOrderInput struct {
	SessionKey       string
	Draft            Draft
	Quote            Quote
	Lines            []models.OrderLine
	PaymentProofPath string
}

// InitialState is forced onto a freshly created order, overwriting whatever
// defaults the creation procedure applied.
type InitialState struct {
	Status         enums.OrderStatus
	PaidStatus     enums.PaidStatus
	DeliveryStatus enums.DeliveryStatus
	AmountPaid     decimal.Decimal
}

// Repository is the persistence surface for submission.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	DetectCreateVersion(ctx context.Context) (int, error)
	CreateOrderV2(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	CreateOrderV1(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	ForceInitialState(ctx context.Context, orderID uuid.UUID, input InitialState) error
	RecordProofUpload(ctx context.Context, upload *models.ProofUpload) error
	ClaimProofUpload(ctx context.Context, objectPath string, orderID uuid.UUID) error
}
