package routes

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	authsvc "github.com/pmdelrosario/merkado-backend/internal/auth"
	cartsvc "github.com/pmdelrosario/merkado-backend/internal/cart"
	checkoutsvc "github.com/pmdelrosario/merkado-backend/internal/checkout"
	orderssvc "github.com/pmdelrosario/merkado-backend/internal/orders"
	"github.com/pmdelrosario/merkado-backend/internal/products"
	pkgauth "github.com/pmdelrosario/merkado-backend/pkg/auth"
	"github.com/pmdelrosario/merkado-backend/pkg/config"
	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubIdemStore struct {
	gets int
	sets int
}

func (s *stubIdemStore) Get(context.Context, string) (string, error) {
	s.gets++
	return "", nil
}

func (s *stubIdemStore) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	s.sets++
	return true, nil
}

func (*stubIdemStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (*stubIdemStore) Del(context.Context, ...string) error {
	return nil
}

type stubCatalog struct{}

func (s stubCatalog) WithTx(*gorm.DB) products.ProductRepository {
	return s
}

func (stubCatalog) GetByID(context.Context, uuid.UUID) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (stubCatalog) GetByIDs(context.Context, []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (stubCatalog) ListActive(context.Context) ([]models.Product, error) {
	return nil, nil
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, string, string) (*authsvc.LoginResult, error) {
	return &authsvc.LoginResult{Token: "tok"}, nil
}

type stubCart struct{}

func (stubCart) SetLineQty(context.Context, string, uuid.UUID, int) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCart) GetCart(context.Context, string) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCart) ClearBestEffort(context.Context, string) error {
	return nil
}

type stubCheckout struct{}

func (stubCheckout) Quote(context.Context, string, checkoutsvc.Draft) (*checkoutsvc.Quote, error) {
	return &checkoutsvc.Quote{}, nil
}

func (stubCheckout) SlotsForDate(context.Context, string) (*checkoutsvc.DaySlots, error) {
	return &checkoutsvc.DaySlots{}, nil
}

func (stubCheckout) SuggestSlot(context.Context) checkoutsvc.SlotSuggestion {
	return checkoutsvc.SlotSuggestion{}
}

func (stubCheckout) Submit(context.Context, string, checkoutsvc.Draft, *checkoutsvc.ProofFile) (*checkoutsvc.SubmitResult, error) {
	return &checkoutsvc.SubmitResult{}, nil
}

type stubOrders struct{}

func (stubOrders) List(context.Context, orderssvc.ListFilter) (*orderssvc.ListResult, error) {
	return &orderssvc.ListResult{}, nil
}

func (stubOrders) GetDetail(context.Context, uuid.UUID) (*orderssvc.Detail, error) {
	return &orderssvc.Detail{}, nil
}

func (stubOrders) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus) error {
	return nil
}

func (stubOrders) UpdateDeliveryStatus(context.Context, uuid.UUID, enums.DeliveryStatus) error {
	return nil
}

func (stubOrders) UpdatePaidStatus(context.Context, uuid.UUID, enums.PaidStatus) error {
	return nil
}

func (stubOrders) UpdatePackedQty(context.Context, uuid.UUID, uuid.UUID, *int) error {
	return nil
}

func (stubOrders) UpdateAmountPaid(context.Context, uuid.UUID, decimal.Decimal) error {
	return nil
}

func (stubOrders) PatchFields(context.Context, uuid.UUID, orderssvc.FieldPatch) error {
	return nil
}

func (stubOrders) AddLines(context.Context, uuid.UUID, []orderssvc.AddLineInput) (*orderssvc.Detail, error) {
	return &orderssvc.Detail{}, nil
}

func (stubOrders) ReplaceProof(context.Context, uuid.UUID, orderssvc.ProofFile) (*orderssvc.Detail, error) {
	return &orderssvc.Detail{}, nil
}

func (stubOrders) RemoveProof(context.Context, uuid.UUID) error {
	return nil
}

func (stubOrders) Delete(context.Context, uuid.UUID) error {
	return nil
}

func testRouter(t *testing.T) (http.Handler, *config.Config, *stubIdemStore) {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "merkado-test", ExpirationMinutes: 60},
	}
	idemStore := &stubIdemStore{}
	handler := NewRouter(Deps{
		Config:           cfg,
		Logger:           logger.New(logger.Options{ServiceName: "router-test"}),
		DBPinger:         stubPinger{},
		RedisPinger:      stubPinger{},
		StoragePinger:    stubPinger{},
		IdempotencyStore: idemStore,
		AuthService:      stubAuth{},
		CartService:      stubCart{},
		CheckoutService:  stubCheckout{},
		OrdersService:    stubOrders{},
		ProductsRepo:     stubCatalog{},
	})
	return handler, cfg, idemStore
}

func TestHealthEndpoints(t *testing.T) {
	handler, _, _ := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestStorefrontRequiresSessionKey(t *testing.T) {
	handler, _, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session key, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Key", "sess-1")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with session key, got %d", resp.Code)
	}
}

func TestCheckoutSubmitGuardedByIdempotency(t *testing.T) {
	handler, _, idemStore := testRouter(t)

	submit := func(idempotencyKey string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		if err := form.WriteField("payload", `{"name":"Ana"}`); err != nil {
			t.Fatalf("write payload: %v", err)
		}
		part, err := form.CreateFormFile("proof", "gcash.png")
		if err != nil {
			t.Fatalf("create proof part: %v", err)
		}
		if _, err := part.Write([]byte("png-bytes")); err != nil {
			t.Fatalf("write proof: %v", err)
		}
		if err := form.Close(); err != nil {
			t.Fatalf("close form: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", &buf)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req.Header.Set("X-Session-Key", "sess-1")
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	resp := submit("")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("submit without idempotency key must be rejected, got %d", resp.Code)
	}
	if idemStore.gets != 0 || idemStore.sets != 0 {
		t.Fatalf("rejected submit must not touch the store, gets=%d sets=%d", idemStore.gets, idemStore.sets)
	}

	resp = submit("key-1")
	if resp.Code != http.StatusCreated {
		t.Fatalf("submit with idempotency key: expected 201, got %d", resp.Code)
	}
	if idemStore.gets != 1 || idemStore.sets != 1 {
		t.Fatalf("keyed submit must read and persist, gets=%d sets=%d", idemStore.gets, idemStore.sets)
	}
}

func TestAdminOrdersRequireAuth(t *testing.T) {
	handler, cfg, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		StaffID: uuid.New(),
		Email:   "staff@merkado.ph",
		Role:    enums.StaffRoleStaff,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with staff token, got %d", resp.Code)
	}
}

func TestStaffLoginRouteIsPublic(t *testing.T) {
	handler, _, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login", nil)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	// Empty body fails validation, never auth.
	if resp.Code == http.StatusUnauthorized || resp.Code == http.StatusForbidden {
		t.Fatalf("login must not sit behind auth middleware, got %d", resp.Code)
	}
}
