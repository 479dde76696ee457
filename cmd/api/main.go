package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/pmdelrosario/merkado-backend/api/routes"
	"github.com/pmdelrosario/merkado-backend/internal/auth"
	"github.com/pmdelrosario/merkado-backend/internal/cart"
	"github.com/pmdelrosario/merkado-backend/internal/checkout"
	"github.com/pmdelrosario/merkado-backend/internal/customers"
	"github.com/pmdelrosario/merkado-backend/internal/delivery"
	"github.com/pmdelrosario/merkado-backend/internal/orders"
	"github.com/pmdelrosario/merkado-backend/internal/products"
	"github.com/pmdelrosario/merkado-backend/pkg/config"
	"github.com/pmdelrosario/merkado-backend/pkg/db"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
	"github.com/pmdelrosario/merkado-backend/pkg/migrate"
	"github.com/pmdelrosario/merkado-backend/pkg/redis"
	"github.com/pmdelrosario/merkado-backend/pkg/storage/gcs"
)

// profileAddressSaver adapts the customer profile service to the save shape
// checkout expects.
type profileAddressSaver struct {
	customers customers.Service
}

func (p profileAddressSaver) SaveAddress(ctx context.Context, input checkout.ProfileAddress) error {
	return p.customers.SaveAddress(ctx, customers.AddressInput{
		Email:       input.Email,
		Name:        input.Name,
		Phone:       input.Phone,
		AddressLine: input.AddressLine,
		Barangay:    input.Barangay,
		City:        input.City,
		PostalCode:  input.PostalCode,
	})
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing object storage", err)
		}
	}()

	productsRepo := products.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), productsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	deliveryService, err := delivery.NewService(delivery.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery pricing service", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(customers.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	composer, err := checkout.NewComposer(cfg.Checkout, cartService, deliveryService)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout composer", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		context.Background(),
		composer,
		checkout.NewRepository(dbClient.DB(), cfg.Checkout.OrderNumberPrefix),
		dbClient,
		gcsClient,
		cartService,
		profileAddressSaver{customers: customersService},
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, productsRepo, gcsClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.NewRepository(dbClient.DB()), cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:           cfg,
			Logger:           logg,
			DBPinger:         dbClient,
			RedisPinger:      redisClient,
			StoragePinger:    gcsClient,
			IdempotencyStore: redisClient,
			AuthService:      authService,
			CartService:      cartService,
			CheckoutService:  checkoutService,
			OrdersService:    ordersService,
			ProductsRepo:     productsRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
