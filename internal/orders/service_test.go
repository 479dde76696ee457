package orders

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type stubOrderRepo struct {
	order *models.Order
	lines []models.OrderLine

	updates    []map[string]any
	updateRows int64
	exists     bool

	packedRows int64
	packedQty  *int

	linesDeleted    bool
	deleteOrderRows int64
	deleteLinesErr  error
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	copied.Lines = append([]models.OrderLine(nil), s.lines...)
	return &copied, nil
}

func (s *stubOrderRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.exists, nil
}

func (s *stubOrderRepo) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	if s.order == nil {
		return nil, nil
	}
	return []models.Order{*s.order}, nil
}

func (s *stubOrderRepo) ListLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	return append([]models.OrderLine(nil), s.lines...), nil
}

func (s *stubOrderRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	s.updates = append(s.updates, fields)
	return s.updateRows, nil
}

func (s *stubOrderRepo) UpdateLinePackedQty(ctx context.Context, orderID, lineID uuid.UUID, packedQty *int) (int64, error) {
	s.packedQty = packedQty
	return s.packedRows, nil
}

func (s *stubOrderRepo) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	s.lines = append(s.lines, lines...)
	return nil
}

func (s *stubOrderRepo) DeleteLines(ctx context.Context, orderID uuid.UUID) error {
	if s.deleteLinesErr != nil {
		return s.deleteLinesErr
	}
	s.linesDeleted = true
	s.lines = nil
	return nil
}

func (s *stubOrderRepo) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.deleteOrderRows, nil
}

type stubAdminProducts struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubAdminProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

type stubObjectStore struct {
	uploads   map[string]string
	removed   []string
	removeErr error
}

func (s *stubObjectStore) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error {
	if s.uploads == nil {
		s.uploads = map[string]string{}
	}
	s.uploads[objectPath] = contentType
	return nil
}

func (s *stubObjectStore) Remove(ctx context.Context, objectPath string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, objectPath)
	return nil
}

func (s *stubObjectStore) ResolveURL(objectPath string) string {
	return "https://cdn.test/" + objectPath
}

type nopTx struct{}

func (nopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func testOrder() *models.Order {
	proofPath := "proofs/sess-1/abc.png"
	return &models.Order{
		ID:               uuid.New(),
		OrderNumber:      "MK-20250601-ABC123",
		CustomerName:     "Maria Santos",
		Subtotal:         decimal.NewFromInt(550),
		DeliveryFee:      decimal.NewFromInt(100),
		ThermalBagFee:    decimal.NewFromInt(50),
		TotalSelling:     decimal.NewFromInt(700),
		DeliveryDate:     time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		DeliverySlot:     "14:30",
		Status:           enums.OrderStatusSubmitted,
		PaidStatus:       enums.PaidStatusProcessed,
		DeliveryStatus:   enums.DeliveryStatusUnpacked,
		PaymentProofPath: &proofPath,
	}
}

func newTestOrderService(t *testing.T, repo *stubOrderRepo, products *stubAdminProducts, store *stubObjectStore) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	if products == nil {
		products = &stubAdminProducts{products: map[uuid.UUID]*models.Product{}}
	}
	if store == nil {
		store = &stubObjectStore{}
	}
	svc, err := NewService(repo, nopTx{}, products, store, logg)
	require.NoError(t, err)
	return svc
}

func TestUpdateDeliveryStatusDeliveredForcesCompleted(t *testing.T) {
	order := testOrder()
	order.Status = enums.OrderStatusSubmitted
	repo := &stubOrderRepo{order: order, updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.UpdateDeliveryStatus(context.Background(), order.ID, enums.DeliveryStatusDelivered)

	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, enums.DeliveryStatusDelivered, repo.updates[0]["delivery_status"])
	assert.Equal(t, enums.OrderStatusCompleted, repo.updates[0]["status"])
}

func TestUpdateDeliveryStatusBelowDeliveredLeavesStatusAlone(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.UpdateDeliveryStatus(context.Background(), order.ID, enums.DeliveryStatusPacked)

	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	assert.NotContains(t, repo.updates[0], "status")
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo := &stubOrderRepo{order: testOrder(), updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.UpdateStatus(context.Background(), repo.order.ID, enums.OrderStatus("shipped"))

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, repo.updates)
}

func TestRejectedWriteOnExistingOrderIsForbidden(t *testing.T) {
	repo := &stubOrderRepo{order: testOrder(), updateRows: 0, exists: true}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.UpdateStatus(context.Background(), repo.order.ID, enums.OrderStatusConfirmed)

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestRejectedWriteOnMissingOrderIsNotFound(t *testing.T) {
	repo := &stubOrderRepo{order: testOrder(), updateRows: 0, exists: false}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.UpdateStatus(context.Background(), repo.order.ID, enums.OrderStatusConfirmed)

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdatePackedQtyNotFoundWhenNoRowMatches(t *testing.T) {
	repo := &stubOrderRepo{order: testOrder(), packedRows: 0}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.UpdatePackedQty(context.Background(), repo.order.ID, uuid.New(), intPtr(3))

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdatePackedQtyAllowsReset(t *testing.T) {
	repo := &stubOrderRepo{order: testOrder(), packedRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	require.NoError(t, svc.UpdatePackedQty(context.Background(), repo.order.ID, uuid.New(), nil))
	assert.Nil(t, repo.packedQty)
}

func TestPatchDeliveryFeeRecomputesTotalInSameWrite(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	fee := decimal.NewFromInt(150)
	err := svc.PatchFields(context.Background(), order.ID, FieldPatch{DeliveryFee: &fee})

	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	assert.True(t, repo.updates[0]["delivery_fee"].(decimal.Decimal).Equal(fee))
	// 550 subtotal + 150 fee + 50 bag
	assert.True(t, repo.updates[0]["total_selling_price"].(decimal.Decimal).Equal(decimal.NewFromInt(750)))
}

func TestPatchFieldsAreIndependent(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	name := "  Juan Cruz "
	slot := "15:00"
	err := svc.PatchFields(context.Background(), order.ID, FieldPatch{Name: &name, DeliverySlot: &slot})

	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, "Juan Cruz", repo.updates[0]["customer_name"])
	assert.Equal(t, "15:00", repo.updates[0]["delivery_slot"])
	assert.NotContains(t, repo.updates[0], "total_selling_price")
}

func TestPatchCreatedAtOverride(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	at := time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC)
	err := svc.PatchFields(context.Background(), order.ID, FieldPatch{CreatedAt: &at})

	require.NoError(t, err)
	assert.Equal(t, at, repo.updates[0]["created_at"])
}

func TestPatchEmptyIsRejected(t *testing.T) {
	repo := &stubOrderRepo{order: testOrder(), updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.PatchFields(context.Background(), repo.order.ID, FieldPatch{})

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAddLinesSnapshotsCurrentPriceAndRecomputes(t *testing.T) {
	order := testOrder()
	existing := models.OrderLine{
		OrderID:   order.ID,
		ProductID: uuid.New(),
		Qty:       2,
		LineTotal: decimal.NewFromInt(550),
	}
	productID := uuid.New()
	repo := &stubOrderRepo{order: order, lines: []models.OrderLine{existing}, updateRows: 1, exists: true}
	products := &stubAdminProducts{products: map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Bangus Belly", Size: "500g", Price: decimal.NewFromInt(120)},
	}}
	svc := newTestOrderService(t, repo, products, nil)

	_, err := svc.AddLines(context.Background(), order.ID, []AddLineInput{{ProductID: productID, Qty: 3}})

	require.NoError(t, err)
	require.Len(t, repo.lines, 2)
	added := repo.lines[1]
	assert.True(t, added.AddedByAdmin)
	assert.Equal(t, "Bangus Belly", added.NameSnapshot)
	assert.True(t, added.UnitPriceSnapshot.Equal(decimal.NewFromInt(120)))
	assert.True(t, added.LineTotal.Equal(decimal.NewFromInt(360)))

	// Aggregates re-derived from all lines, not incremented.
	require.Len(t, repo.updates, 1)
	assert.True(t, repo.updates[0]["subtotal"].(decimal.Decimal).Equal(decimal.NewFromInt(910)))
	// 910 subtotal + 100 fee + 50 bag
	assert.True(t, repo.updates[0]["total_selling_price"].(decimal.Decimal).Equal(decimal.NewFromInt(1060)))
}

func TestAddLinesUnknownProduct(t *testing.T) {
	repo := &stubOrderRepo{order: testOrder(), updateRows: 1}
	svc := newTestOrderService(t, repo, nil, nil)

	_, err := svc.AddLines(context.Background(), repo.order.ID, []AddLineInput{{ProductID: uuid.New(), Qty: 1}})

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Empty(t, repo.updates)
}

func TestDeleteCascadesAndRemovesProof(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, deleteOrderRows: 1}
	store := &stubObjectStore{}
	svc := newTestOrderService(t, repo, nil, store)

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	assert.True(t, repo.linesDeleted)
	assert.Equal(t, []string{"proofs/sess-1/abc.png"}, store.removed)
}

func TestDeleteRejectedOrderRowFailsLoudly(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, deleteOrderRows: 0}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.Delete(context.Background(), order.ID)

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.True(t, repo.linesDeleted)
}

func TestDeleteMissingOrder(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := newTestOrderService(t, repo, nil, nil)

	err := svc.Delete(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestReplaceProofRemovesOldAndStoresNewPath(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, updateRows: 1, exists: true}
	store := &stubObjectStore{}
	svc := newTestOrderService(t, repo, nil, store)

	_, err := svc.ReplaceProof(context.Background(), order.ID, ProofFile{
		Filename:    "gcash.JPG",
		ContentType: "image/jpeg",
		Content:     bytes.NewBufferString("img"),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"proofs/sess-1/abc.png"}, store.removed)
	require.Len(t, store.uploads, 1)
	for objectPath := range store.uploads {
		assert.Contains(t, objectPath, "proofs/admin/"+order.ID.String()+"/")
		assert.Contains(t, objectPath, ".jpg")
		require.Len(t, repo.updates, 1)
		assert.Equal(t, objectPath, repo.updates[0]["payment_proof_path"])
	}
}

func TestReplaceProofSurvivesOldObjectRemovalFailure(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, updateRows: 1, exists: true}
	store := &stubObjectStore{removeErr: context.DeadlineExceeded}
	svc := newTestOrderService(t, repo, nil, store)

	_, err := svc.ReplaceProof(context.Background(), order.ID, ProofFile{
		Filename:    "proof.png",
		ContentType: "image/png",
		Content:     bytes.NewBufferString("img"),
	})

	require.NoError(t, err)
	assert.Len(t, store.uploads, 1)
}

func TestRemoveProofClearsPathBeforeObjectDelete(t *testing.T) {
	order := testOrder()
	repo := &stubOrderRepo{order: order, updateRows: 1}
	store := &stubObjectStore{}
	svc := newTestOrderService(t, repo, nil, store)

	require.NoError(t, svc.RemoveProof(context.Background(), order.ID))
	require.Len(t, repo.updates, 1)
	assert.Nil(t, repo.updates[0]["payment_proof_path"])
	assert.Equal(t, []string{"proofs/sess-1/abc.png"}, store.removed)
}

func TestRemoveProofNoopWithoutProof(t *testing.T) {
	order := testOrder()
	order.PaymentProofPath = nil
	repo := &stubOrderRepo{order: order}
	store := &stubObjectStore{}
	svc := newTestOrderService(t, repo, nil, store)

	require.NoError(t, svc.RemoveProof(context.Background(), order.ID))
	assert.Empty(t, repo.updates)
	assert.Empty(t, store.removed)
}

func TestGetDetailTonesAndPayment(t *testing.T) {
	order := testOrder()
	order.AmountPaid = decimalPtr(decimal.NewFromInt(650))
	repo := &stubOrderRepo{order: order, lines: []models.OrderLine{
		{ID: uuid.New(), OrderID: order.ID, Qty: 5, PackedQty: nil, LineTotal: decimal.NewFromInt(300)},
		{ID: uuid.New(), OrderID: order.ID, Qty: 5, PackedQty: intPtr(5), LineTotal: decimal.NewFromInt(150)},
		{ID: uuid.New(), OrderID: order.ID, Qty: 5, PackedQty: intPtr(6), LineTotal: decimal.NewFromInt(100)},
	}}
	svc := newTestOrderService(t, repo, nil, &stubObjectStore{})

	detail, err := svc.GetDetail(context.Background(), order.ID)

	require.NoError(t, err)
	require.Len(t, detail.Lines, 3)
	assert.Equal(t, PackingToneIncomplete, detail.Lines[0].Tone)
	assert.Equal(t, PackingToneSatisfied, detail.Lines[1].Tone)
	assert.Equal(t, PackingToneOvershoot, detail.Lines[2].Tone)
	assert.Equal(t, PaymentVerdictAmountDue, detail.Payment.Verdict)
	assert.True(t, detail.Payment.Abs.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "https://cdn.test/proofs/sess-1/abc.png", detail.ProofURL)
}
