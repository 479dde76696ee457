package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Service exposes cart operations. Writing through SetLineQty is the only
// way cart state changes; callers recover from write failures by re-reading
// the returned view, not by replaying inverse operations.
type Service interface {
	SetLineQty(ctx context.Context, sessionKey string, productID uuid.UUID, qty int) (*View, error)
	GetCart(ctx context.Context, sessionKey string) (*View, error)
	ClearBestEffort(ctx context.Context, sessionKey string) error
}

type service struct {
	repo     CartRepository
	products productLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

// SetLineQty idempotently sets a line to an exact non-negative quantity.
// qty <= 0 deletes the line. Stock is never checked here; sufficiency is
// advisory and surfaces only on reads.
func (s *service) SetLineQty(ctx context.Context, sessionKey string, productID uuid.UUID, qty int) (*View, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session key is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if qty > 0 {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available")
		}
	}

	record, err := s.findOrCreate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		if err := s.repo.DeleteLine(ctx, record.ID, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart line")
		}
	} else {
		if err := s.repo.UpsertLine(ctx, record.ID, productID, qty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing cart line")
		}
	}

	return s.buildView(ctx, sessionKey, record.ID)
}

// GetCart returns current lines with product display fields joined in.
// A session without a cart gets an empty view, not an error.
func (s *service) GetCart(ctx context.Context, sessionKey string) (*View, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session key is required")
	}

	record, err := s.repo.FindBySessionKey(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyView(sessionKey), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	return s.buildView(ctx, sessionKey, record.ID)
}

// ClearBestEffort deletes every line for the session one at a time. Per-line
// failures are collected and returned for logging, never retried; the caller
// treats a non-nil result as a warning, not a failure.
func (s *service) ClearBestEffort(ctx context.Context, sessionKey string) error {
	record, err := s.repo.FindBySessionKey(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("loading cart for clear: %w", err)
	}

	lines, err := s.repo.ListLines(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("listing cart lines for clear: %w", err)
	}

	var errs error
	for _, line := range lines {
		if err := s.repo.DeleteLine(ctx, record.ID, line.ProductID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clearing line %s: %w", line.ProductID, err))
		}
	}
	return errs
}

func (s *service) findOrCreate(ctx context.Context, sessionKey string) (*models.Cart, error) {
	record, err := s.repo.FindBySessionKey(ctx, sessionKey)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{SessionKey: sessionKey})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return created, nil
}

func (s *service) buildView(ctx context.Context, sessionKey string, cartID uuid.UUID) (*View, error) {
	lines, err := s.repo.ListLines(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing cart lines")
	}
	if len(lines) == 0 {
		return emptyView(sessionKey), nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	catalog, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(catalog))
	for _, product := range catalog {
		byID[product.ID] = product
	}

	view := emptyView(sessionKey)
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			// Catalog row vanished underneath the cart; skip rather than fail
			// the whole read.
			s.logg.Warn(s.logg.WithField(ctx, "product_id", line.ProductID.String()), "cart line references missing product")
			continue
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Qty)))
		view.Lines = append(view.Lines, LineView{
			ProductID:   line.ProductID,
			Name:        product.Name,
			Size:        product.Size,
			Temperature: product.Temperature,
			UnitPrice:   product.Price,
			Qty:         line.Qty,
			LineTotal:   lineTotal,
			InStock:     product.StockQty >= line.Qty,
		})
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}
	return view, nil
}

func emptyView(sessionKey string) *View {
	return &View{
		SessionKey: sessionKey,
		Lines:      []LineView{},
		Subtotal:   decimal.Zero,
	}
}
