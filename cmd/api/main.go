package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quansahdev/datamart-backend/api/routes"
	"github.com/quansahdev/datamart-backend/internal/commission"
	"github.com/quansahdev/datamart-backend/internal/fulfillment"
	"github.com/quansahdev/datamart-backend/internal/identity"
	"github.com/quansahdev/datamart-backend/internal/orders"
	"github.com/quansahdev/datamart-backend/internal/payments"
	"github.com/quansahdev/datamart-backend/internal/pricing"
	"github.com/quansahdev/datamart-backend/internal/wallet"
	"github.com/quansahdev/datamart-backend/internal/withdrawals"
	"github.com/quansahdev/datamart-backend/pkg/config"
	"github.com/quansahdev/datamart-backend/pkg/db"
	"github.com/quansahdev/datamart-backend/pkg/idempotency"
	"github.com/quansahdev/datamart-backend/pkg/instance"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/metrics"
	"github.com/quansahdev/datamart-backend/pkg/migrate"
	"github.com/quansahdev/datamart-backend/pkg/money"
	"github.com/quansahdev/datamart-backend/pkg/paystack"
	"github.com/quansahdev/datamart-backend/pkg/redis"
	"github.com/quansahdev/datamart-backend/pkg/reference"
	"github.com/quansahdev/datamart-backend/pkg/telco"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	webhookGuard, err := idempotency.NewManager(redisClient, cfg.Payments.WebhookTTL)
	if err != nil {
		logg.Error(ctx, "failed to create webhook guard", err)
		os.Exit(1)
	}

	gateway, err := paystack.NewClient(ctx, cfg.Paystack, logg)
	if err != nil {
		logg.Error(ctx, "failed to create gateway client", err)
		os.Exit(1)
	}
	telcoClient, err := telco.NewClient(cfg.Telco, logg)
	if err != nil {
		logg.Error(ctx, "failed to create telco client", err)
		os.Exit(1)
	}

	refs, err := reference.NewGenerator("DM-")
	if err != nil {
		logg.Error(ctx, "failed to create reference generator", err)
		os.Exit(1)
	}

	activationFee, err := money.Parse(cfg.Payments.AgentActivationFee)
	if err != nil {
		logg.Error(ctx, "invalid agent activation fee", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gormDB := dbClient.DB()
	identityRepo := identity.NewRepository(gormDB)
	pricingRepo := pricing.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	fulfillmentRepo := fulfillment.NewRepository(gormDB)
	withdrawalsRepo := withdrawals.NewRepository(gormDB)

	identitySvc, err := identity.NewService(identityRepo)
	if err != nil {
		logg.Error(ctx, "failed to create identity service", err)
		os.Exit(1)
	}
	pricingSvc, err := pricing.NewService(pricingRepo)
	if err != nil {
		logg.Error(ctx, "failed to create pricing service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(ordersRepo, pricingSvc, dbClient, refs)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}
	walletSvc, err := wallet.NewService(walletRepo)
	if err != nil {
		logg.Error(ctx, "failed to create wallet service", err)
		os.Exit(1)
	}
	commissionSvc, err := commission.NewService(walletRepo, commission.NewRecorder(gormDB), refs, logg)
	if err != nil {
		logg.Error(ctx, "failed to create commission service", err)
		os.Exit(1)
	}
	dispatcher, err := fulfillment.NewDispatcher(fulfillmentRepo, telcoClient, logg, paymentMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create fulfillment dispatcher", err)
		os.Exit(1)
	}
	paymentsSvc, err := payments.NewService(
		paymentsRepo, walletRepo, commissionSvc, dispatcher, identitySvc,
		gateway, webhookGuard, dbClient, cfg.Payments, logg, paymentMetrics,
	)
	if err != nil {
		logg.Error(ctx, "failed to create payments service", err)
		os.Exit(1)
	}
	withdrawalsSvc, err := withdrawals.NewService(withdrawalsRepo, walletRepo, dbClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to create withdrawals service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:             cfg,
			Logger:             logg,
			DB:                 dbClient,
			Redis:              redisClient,
			Registry:           registry,
			Identity:           identitySvc,
			Pricing:            pricingSvc,
			Orders:             ordersSvc,
			Payments:           paymentsSvc,
			Wallet:             walletSvc,
			Withdrawals:        withdrawalsSvc,
			Gateway:            gateway,
			AgentActivationFee: activationFee,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
