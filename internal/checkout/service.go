package checkout

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/internal/cart"
	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the checkout surface: quoting, slot listing, and the
// submission saga.
type Service interface {
	Quote(ctx context.Context, sessionKey string, draft Draft) (*Quote, error)
	SlotsForDate(ctx context.Context, date string) (*DaySlots, error)
	SuggestSlot(ctx context.Context) SlotSuggestion
	Submit(ctx context.Context, sessionKey string, draft Draft, proof *ProofFile) (*SubmitResult, error)
}

type service struct {
	composer      *Composer
	repo          Repository
	tx            txRunner
	store         proofStore
	clearer       cartClearer
	profiles      profileSaver
	logg          *logger.Logger
	createVersion int
}

// NewService builds the checkout service. The order-creation payload version
// is discovered once here by probing the schema; it is a capability decision
// made at boot, never inferred from error text at submit time.
func NewService(
	ctx context.Context,
	composer *Composer,
	repo Repository,
	tx txRunner,
	store proofStore,
	clearer cartClearer,
	profiles profileSaver,
	logg *logger.Logger,
) (Service, error) {
	if composer == nil {
		return nil, fmt.Errorf("composer required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if store == nil {
		return nil, fmt.Errorf("proof store required")
	}
	if clearer == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile saver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	version, err := repo.DetectCreateVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("detecting order creation version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "create_version", version), "order creation version selected")

	return &service{
		composer:      composer,
		repo:          repo,
		tx:            tx,
		store:         store,
		clearer:       clearer,
		profiles:      profiles,
		logg:          logg,
		createVersion: version,
	}, nil
}

// Quote composes totals and readiness without side effects.
func (s *service) Quote(ctx context.Context, sessionKey string, draft Draft) (*Quote, error) {
	return s.composer.Compose(ctx, sessionKey, draft)
}

// SlotsForDate lists selectable slots for a date alongside the suggestion.
func (s *service) SlotsForDate(ctx context.Context, date string) (*DaySlots, error) {
	slots, err := s.composer.Slots().SlotsForDate(date, s.composer.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid slot date")
	}
	if slots == nil {
		slots = []string{}
	}
	return &DaySlots{Date: date, Slots: slots}, nil
}

// SuggestSlot returns the default slot for "deliver as soon as practical".
func (s *service) SuggestSlot(ctx context.Context) SlotSuggestion {
	return s.composer.Slots().Suggest(s.composer.now())
}

// Submit runs the submission saga. Readiness, proof upload, and order
// creation are fatal in that order; everything after the order row exists is
// advisory and only ever logged.
func (s *service) Submit(ctx context.Context, sessionKey string, draft Draft, proof *ProofFile) (*SubmitResult, error) {
	if proof == nil || proof.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment proof file is required")
	}
	draft.HasProof = true

	// Readiness fails before any network call. The returned view is the one
	// the quote was priced from; snapshotting any other read could disagree
	// with the stored subtotal.
	quote, view, err := s.composer.RequireReady(ctx, sessionKey, draft)
	if err != nil {
		return nil, err
	}
	lines := snapshotLines(view.Lines)

	objectPath := proofObjectPath(sessionKey, proof.Filename)
	if err := s.store.Upload(ctx, objectPath, proof.ContentType, proof.Content); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading payment proof")
	}
	// The object survives any later failure; record it so the cleanup job
	// can reap it if no order ever claims it.
	if err := s.repo.RecordProofUpload(ctx, &models.ProofUpload{
		ObjectPath: objectPath,
		SessionKey: sessionKey,
	}); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "object_path", objectPath), "recording proof upload failed")
	}

	input := CreateOrderInput{
		SessionKey:       sessionKey,
		Draft:            draft,
		Quote:            *quote,
		Lines:            lines,
		PaymentProofPath: objectPath,
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var createErr error
		if s.createVersion >= 2 {
			order, createErr = repo.CreateOrderV2(ctx, input)
		} else {
			order, createErr = repo.CreateOrderV1(ctx, input)
		}
		return createErr
	})
	if err != nil {
		// Proof and cart are left untouched so the user can retry.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.finalize(ctx, sessionKey, order, quote.Total, objectPath, draft)

	return &SubmitResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       quote.Total,
		CreatedAt:   order.CreatedAt,
	}, nil
}

// finalize runs the advisory tail of the saga. Failures here never block the
// user from seeing the created order.
func (s *service) finalize(ctx context.Context, sessionKey string, order *models.Order, total decimal.Decimal, objectPath string, draft Draft) {
	var warnings error

	if err := s.repo.ForceInitialState(ctx, order.ID, InitialState{
		Status:         enums.OrderStatusSubmitted,
		PaidStatus:     enums.PaidStatusProcessed,
		DeliveryStatus: enums.DeliveryStatusUnpacked,
		AmountPaid:     total,
	}); err != nil {
		warnings = multierr.Append(warnings, fmt.Errorf("forcing initial state: %w", err))
	}

	if err := s.repo.ClaimProofUpload(ctx, objectPath, order.ID); err != nil {
		warnings = multierr.Append(warnings, fmt.Errorf("claiming proof upload: %w", err))
	}

	if err := s.clearer.ClearBestEffort(ctx, sessionKey); err != nil {
		warnings = multierr.Append(warnings, fmt.Errorf("clearing cart: %w", err))
	}

	if draft.SaveProfile {
		if err := s.profiles.SaveAddress(ctx, ProfileAddress{
			Email:       draft.Email,
			Name:        draft.Name,
			Phone:       draft.Phone,
			AddressLine: draft.AddressLine,
			Barangay:    draft.Barangay,
			City:        draft.City,
			PostalCode:  draft.PostalCode,
		}); err != nil {
			warnings = multierr.Append(warnings, fmt.Errorf("saving profile address: %w", err))
		}
	}

	if warnings != nil {
		s.logg.Error(ctx, "post-submission steps partially failed", warnings)
	}
}

// snapshotLines freezes the live cart lines into order lines so later
// catalog edits never change the placed order.
func snapshotLines(lines []cart.LineView) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, models.OrderLine{
			ProductID:           line.ProductID,
			NameSnapshot:        line.Name,
			SizeSnapshot:        line.Size,
			TemperatureSnapshot: line.Temperature,
			UnitPriceSnapshot:   line.UnitPrice,
			Qty:                 line.Qty,
			LineTotal:           line.LineTotal,
		})
	}
	return out
}

func proofObjectPath(sessionKey, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("proofs/%s/%s%s", sessionKey, uuid.NewString(), ext)
}
