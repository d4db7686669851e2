package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harborops/seaprocure-backend/api/routes"
	"github.com/harborops/seaprocure-backend/internal/approvals"
	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/internal/invoices"
	"github.com/harborops/seaprocure-backend/internal/notify"
	"github.com/harborops/seaprocure-backend/internal/purchaseorders"
	"github.com/harborops/seaprocure-backend/internal/requisitions"
	"github.com/harborops/seaprocure-backend/internal/rfq"
	"github.com/harborops/seaprocure-backend/internal/vendors"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db"
	"github.com/harborops/seaprocure-backend/pkg/logger"
	"github.com/harborops/seaprocure-backend/pkg/metrics"
	"github.com/harborops/seaprocure-backend/pkg/migrate"
	"github.com/harborops/seaprocure-backend/pkg/pubsub"
	"github.com/harborops/seaprocure-backend/pkg/redis"
)

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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	workflowMetrics := metrics.NewWorkflowMetrics(registry)

	notifier, err := notify.NewPubSubNotifier(pubsubClient, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor notifier", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	auditSvc, err := audit.NewService(audit.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}
	vendorsSvc, err := vendors.NewService(vendors.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create vendors service", err)
		os.Exit(1)
	}
	approvalsSvc, err := approvals.NewService(approvals.NewRepository(gormDB), dbClient, auditSvc, cfg.Procurement)
	if err != nil {
		logg.Error(context.Background(), "failed to create approvals service", err)
		os.Exit(1)
	}
	rfqSvc, err := rfq.NewService(rfq.NewRepository(gormDB), dbClient, vendorsSvc, auditSvc, workflowMetrics, cfg.Procurement)
	if err != nil {
		logg.Error(context.Background(), "failed to create rfq service", err)
		os.Exit(1)
	}
	requisitionsSvc, err := requisitions.NewService(
		requisitions.NewRepository(gormDB),
		dbClient,
		approvalsSvc,
		rfqSvc,
		notifier,
		auditSvc,
		workflowMetrics,
		cfg.Procurement,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create requisitions service", err)
		os.Exit(1)
	}
	purchaseOrdersSvc, err := purchaseorders.NewService(
		purchaseorders.NewRepository(gormDB),
		dbClient,
		notifier,
		auditSvc,
		workflowMetrics,
		cfg.Procurement,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase orders service", err)
		os.Exit(1)
	}
	invoicesSvc, err := invoices.NewService(
		invoices.NewRepository(gormDB),
		dbClient,
		auditSvc,
		workflowMetrics,
		cfg.Procurement,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			requisitionsSvc,
			rfqSvc,
			purchaseOrdersSvc,
			invoicesSvc,
			vendorsSvc,
			approvalsSvc,
			auditSvc,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
