package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowcasthq/flowcast-backend/api/routes"
	"github.com/flowcasthq/flowcast-backend/internal/accuracy"
	"github.com/flowcasthq/flowcast-backend/internal/events"
	"github.com/flowcasthq/flowcast-backend/internal/forecast"
	"github.com/flowcasthq/flowcast-backend/internal/projection"
	"github.com/flowcasthq/flowcast-backend/pkg/config"
	"github.com/flowcasthq/flowcast-backend/pkg/db"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
	"github.com/flowcasthq/flowcast-backend/pkg/metrics"
	"github.com/flowcasthq/flowcast-backend/pkg/migrate"
	"github.com/flowcasthq/flowcast-backend/pkg/redis"
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

	normalizer := events.NewNormalizer(logg, cfg.Forecast.PayoutTransferDays)
	projectionService, err := projection.NewService(events.NewSourceRepository(dbClient.DB()), normalizer, cfg.Projection)
	if err != nil {
		logg.Error(context.Background(), "failed to create projection service", err)
		os.Exit(1)
	}

	accountRepo := forecast.NewAccountRepository(dbClient.DB())
	forecastService, err := forecast.NewService(forecast.ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Repo:         forecast.NewRepository(dbClient.DB()),
		Transactions: forecast.NewTransactionRepository(dbClient.DB()),
		Accounts:     accountRepo,
		Locks:        redisClient,
		Metrics:      metrics.NewForecastRunMetrics(prometheus.DefaultRegisterer),
		Config:       cfg.Forecast,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create forecast service", err)
		os.Exit(1)
	}

	accuracyService, err := accuracy.NewService(logg, accuracy.NewSampleRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create accuracy service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Projection: projectionService,
			Forecast:   forecastService,
			Accuracy:   accuracyService,
			Accounts:   accountRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
