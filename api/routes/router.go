package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmdelrosario/merkado-backend/api/controllers"
	"github.com/pmdelrosario/merkado-backend/api/middleware"
	"github.com/pmdelrosario/merkado-backend/internal/auth"
	"github.com/pmdelrosario/merkado-backend/internal/cart"
	checkoutsvc "github.com/pmdelrosario/merkado-backend/internal/checkout"
	"github.com/pmdelrosario/merkado-backend/internal/orders"
	"github.com/pmdelrosario/merkado-backend/internal/products"
	"github.com/pmdelrosario/merkado-backend/pkg/config"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
	pkgredis "github.com/pmdelrosario/merkado-backend/pkg/redis"
)

// Deps carries everything the router needs. Health pingers may be nil; the
// readiness probe reports those components as skipped.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger      controllers.Pinger
	RedisPinger   controllers.Pinger
	StoragePinger controllers.Pinger

	IdempotencyStore pkgredis.IdempotencyStore

	AuthService     auth.Service
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service
	ProductsRepo    products.ProductRepository
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(d.DBPinger, d.RedisPinger, d.StoragePinger)))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.StaffLogin(d.AuthService, logg))
	})

	// Storefront surface. Every route is scoped to a shopper session key and
	// checkout submissions replay through the idempotency layer.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.Idempotency(d.IdempotencyStore, logg))

		r.Get("/products", controllers.ProductsList(d.ProductsRepo, logg))

		r.Get("/cart", controllers.GetCart(d.CartService, logg))
		r.Put("/cart/items", controllers.SetCartLine(d.CartService, logg))

		r.Post("/checkout/quote", controllers.CheckoutQuote(d.CheckoutService, logg))
		r.Get("/checkout/slots", controllers.CheckoutSlots(d.CheckoutService, logg))
		r.Post("/checkout", controllers.CheckoutSubmit(d.CheckoutService, logg))
	})

	// Staff surface. Any active staff account may work orders.
	r.Route("/api/admin/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAnyRole(logg, string(enums.StaffRoleStaff), string(enums.StaffRoleAdmin)))

		r.Get("/", controllers.AdminOrdersList(d.OrdersService, logg))
		r.Get("/{id}", controllers.AdminOrderDetail(d.OrdersService, logg))
		r.Patch("/{id}/status", controllers.AdminOrderStatusPatch(d.OrdersService, logg))
		r.Patch("/{id}/delivery-status", controllers.AdminOrderDeliveryStatusPatch(d.OrdersService, logg))
		r.Patch("/{id}/paid-status", controllers.AdminOrderPaidStatusPatch(d.OrdersService, logg))
		r.Patch("/{id}/lines/{lineId}/packed-qty", controllers.AdminOrderPackedQtyPatch(d.OrdersService, logg))
		r.Patch("/{id}/amount-paid", controllers.AdminOrderAmountPaidPatch(d.OrdersService, logg))
		r.Patch("/{id}/fields", controllers.AdminOrderFieldsPatch(d.OrdersService, logg))
		r.Post("/{id}/lines", controllers.AdminOrderAddLines(d.OrdersService, logg))
		r.Put("/{id}/payment-proof", controllers.AdminOrderProofReplace(d.OrdersService, logg))
		r.Delete("/{id}/payment-proof", controllers.AdminOrderProofRemove(d.OrdersService, logg))
		r.Delete("/{id}", controllers.AdminOrderDelete(d.OrdersService, logg))
	})

	return r
}
