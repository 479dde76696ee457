package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type stubCartRepo struct {
	cart       *models.Cart
	lines      map[uuid.UUID]int
	lineOrder  []uuid.UUID
	upsertErr  error
	deleteErr  error
	deleteErrs map[uuid.UUID]error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{lines: map[uuid.UUID]int{}}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) FindBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error) {
	if s.cart == nil || s.cart.SessionKey != sessionKey {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartRepo) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.ID = uuid.New()
	s.cart = cart
	return cart, nil
}

func (s *stubCartRepo) UpsertLine(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if _, ok := s.lines[productID]; !ok {
		s.lineOrder = append(s.lineOrder, productID)
	}
	s.lines[productID] = qty
	return nil
}

func (s *stubCartRepo) DeleteLine(ctx context.Context, cartID, productID uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if err, ok := s.deleteErrs[productID]; ok {
		return err
	}
	delete(s.lines, productID)
	return nil
}

func (s *stubCartRepo) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	rows := make([]models.CartLine, 0, len(s.lines))
	for _, productID := range s.lineOrder {
		qty, ok := s.lines[productID]
		if !ok {
			continue
		}
		rows = append(rows, models.CartLine{CartID: cartID, ProductID: productID, Qty: qty})
	}
	return rows, nil
}

type stubProducts struct {
	byID map[uuid.UUID]models.Product
}

func (s *stubProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &product, nil
}

func (s *stubProducts) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.byID[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

func testProduct(id uuid.UUID, name string, price int64, stock int) models.Product {
	return models.Product{
		ID:       id,
		Name:     name,
		Size:     "500g",
		Price:    decimal.NewFromInt(price),
		StockQty: stock,
		IsActive: true,
	}
}

func newTestService(t *testing.T, repo CartRepository, products productLoader) Service {
	t.Helper()
	svc, err := NewService(repo, products, logger.New(logger.Options{ServiceName: "cart-test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSetLineQtyCreatesCartLazily(t *testing.T) {
	repo := newStubCartRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{
		productID: testProduct(productID, "Bangus", 250, 10),
	}})

	view, err := svc.SetLineQty(context.Background(), "sess-1", productID, 2)
	if err != nil {
		t.Fatalf("set line qty: %v", err)
	}
	if repo.cart == nil || repo.cart.SessionKey != "sess-1" {
		t.Fatal("expected cart created for session")
	}
	if len(view.Lines) != 1 || view.Lines[0].Qty != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	if !view.Subtotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected subtotal %s", view.Subtotal)
	}
}

func TestSetLineQtyIsIdempotent(t *testing.T) {
	repo := newStubCartRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{
		productID: testProduct(productID, "Bangus", 250, 10),
	}})

	for i := 0; i < 3; i++ {
		if _, err := svc.SetLineQty(context.Background(), "sess-1", productID, 4); err != nil {
			t.Fatalf("set line qty attempt %d: %v", i, err)
		}
	}
	if got := repo.lines[productID]; got != 4 {
		t.Fatalf("expected exact qty 4 after repeats, got %d", got)
	}
}

func TestSetLineQtyZeroDeletesLine(t *testing.T) {
	repo := newStubCartRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{
		productID: testProduct(productID, "Bangus", 250, 10),
	}})

	if _, err := svc.SetLineQty(context.Background(), "sess-1", productID, 3); err != nil {
		t.Fatalf("seed line: %v", err)
	}
	view, err := svc.SetLineQty(context.Background(), "sess-1", productID, 0)
	if err != nil {
		t.Fatalf("delete via zero qty: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Lines)
	}

	// Negative quantities behave like zero.
	if _, err := svc.SetLineQty(context.Background(), "sess-1", productID, -5); err != nil {
		t.Fatalf("negative qty should delete, got error: %v", err)
	}
}

func TestSetLineQtyUnknownProduct(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{}})

	_, err := svc.SetLineQty(context.Background(), "sess-1", uuid.New(), 1)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if tagged := pkgerrors.As(err); tagged == nil || tagged.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestSetLineQtyInactiveProduct(t *testing.T) {
	repo := newStubCartRepo()
	productID := uuid.New()
	inactive := testProduct(productID, "Bangus", 250, 10)
	inactive.IsActive = false
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{productID: inactive}})

	_, err := svc.SetLineQty(context.Background(), "sess-1", productID, 1)
	if tagged := pkgerrors.As(err); tagged == nil || tagged.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestSetLineQtyNeverClampsAgainstStock(t *testing.T) {
	repo := newStubCartRepo()
	productID := uuid.New()
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{
		productID: testProduct(productID, "Bangus", 250, 2),
	}})

	view, err := svc.SetLineQty(context.Background(), "sess-1", productID, 50)
	if err != nil {
		t.Fatalf("set over stock: %v", err)
	}
	if view.Lines[0].Qty != 50 {
		t.Fatalf("expected stored qty 50, got %d", view.Lines[0].Qty)
	}
	if view.Lines[0].InStock {
		t.Fatal("expected advisory out-of-stock flag")
	}
}

func TestGetCartEmptySession(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{}})

	view, err := svc.GetCart(context.Background(), "sess-none")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Lines) != 0 || !view.Subtotal.IsZero() {
		t.Fatalf("expected empty view, got %+v", view)
	}
}

func TestClearBestEffortSwallowsPerLineFailures(t *testing.T) {
	repo := newStubCartRepo()
	goodID := uuid.New()
	badID := uuid.New()
	svc := newTestService(t, repo, &stubProducts{byID: map[uuid.UUID]models.Product{
		goodID: testProduct(goodID, "Bangus", 250, 10),
		badID:  testProduct(badID, "Tilapia", 180, 10),
	}})

	if _, err := svc.SetLineQty(context.Background(), "sess-1", goodID, 1); err != nil {
		t.Fatalf("seed good line: %v", err)
	}
	if _, err := svc.SetLineQty(context.Background(), "sess-1", badID, 1); err != nil {
		t.Fatalf("seed bad line: %v", err)
	}

	repo.deleteErrs = map[uuid.UUID]error{badID: errors.New("boom")}

	err := svc.ClearBestEffort(context.Background(), "sess-1")
	if err == nil {
		t.Fatal("expected aggregated warning for failed line")
	}
	if _, stillThere := repo.lines[goodID]; stillThere {
		t.Fatal("expected good line cleared despite sibling failure")
	}
	if _, kept := repo.lines[badID]; !kept {
		t.Fatal("failed line should remain for later inspection")
	}
}
