package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/pkg/config"
	"github.com/tableside/pos-backend/pkg/db"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/migrate"
	"github.com/tableside/pos-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Warn(context.Background(), "refusing to seed a production database")
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "seed failed", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	conn := dbClient.DB()
	svc, err := catalog.NewService(catalog.NewRepository(conn), dbClient, outbox.NewService(outbox.NewRepository(conn), logg), logg)
	if err != nil {
		return err
	}

	created, err := seedMenu(ctx, svc)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "dishes_created", created), "seed completed")
	return nil
}
