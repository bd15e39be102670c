package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/tableside/pos-backend/api/routes"
	"github.com/tableside/pos-backend/internal/analytics"
	"github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/internal/orders"
	"github.com/tableside/pos-backend/pkg/config"
	"github.com/tableside/pos-backend/pkg/db"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/metrics"
	"github.com/tableside/pos-backend/pkg/migrate"
	"github.com/tableside/pos-backend/pkg/outbox"
	"github.com/tableside/pos-backend/pkg/redis"
)

const serviceName = "api"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	posMetrics := metrics.NewPOSMetrics(reg)

	dbClient, err := db.New(bootCtx, cfg.DB, logg,
		db.WithTxTimeout(cfg.DB.TxTimeout),
		db.WithRetries(cfg.DB.TxMaxRetries, cfg.DB.TxRetryDelay),
		db.WithObserver(posMetrics),
		db.WithLogger(logg),
	)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err = migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(bootCtx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
	} else {
		logg.Warn(bootCtx, "redis not configured, idempotency keys and analytics cache are disabled")
	}

	services, err := buildServices(cfg, logg, dbClient, redisClient, posMetrics)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(bootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), services),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, m *metrics.POSMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), dbClient, emitter, logg)
	if err != nil {
		return routes.Services{}, err
	}

	inventoryRepo := inventory.NewRepository(conn)
	deductor, err := inventory.NewDeductor(inventoryRepo, catalogSvc,
		inventory.WithGlobalCheck(cfg.Inventory.GlobalCheck()),
		inventory.WithDeductorMetrics(m),
		inventory.WithDeductorLogger(logg),
	)
	if err != nil {
		return routes.Services{}, err
	}

	threshold, err := cfg.Inventory.Threshold()
	if err != nil {
		return routes.Services{}, err
	}
	inventorySvc, err := inventory.NewService(inventoryRepo, dbClient, emitter, threshold, m, logg)
	if err != nil {
		return routes.Services{}, err
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(conn), dbClient, catalogSvc, deductor, emitter,
		orders.WithMetrics(m),
		orders.WithLogger(logg),
	)
	if err != nil {
		return routes.Services{}, err
	}

	loc, err := cfg.Analytics.Location()
	if err != nil {
		return routes.Services{}, err
	}
	analyticsOpts := []analytics.Option{analytics.WithLogger(logg)}
	if redisClient != nil {
		analyticsOpts = append(analyticsOpts, analytics.WithCache(redisClient, cfg.Analytics.CacheTTL))
	}
	analyticsSvc, err := analytics.NewService(analytics.NewRepository(conn), loc, cfg.Analytics.DefaultLimit, analyticsOpts...)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:   catalogSvc,
		Inventory: inventorySvc,
		Orders:    ordersSvc,
		Analytics: analyticsSvc,
	}, nil
}
