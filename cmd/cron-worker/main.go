package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowcasthq/flowcast-backend/internal/cron"
	"github.com/flowcasthq/flowcast-backend/internal/forecast"
	"github.com/flowcasthq/flowcast-backend/pkg/config"
	"github.com/flowcasthq/flowcast-backend/pkg/db"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
	"github.com/flowcasthq/flowcast-backend/pkg/metrics"
	"github.com/flowcasthq/flowcast-backend/pkg/migrate"
	"github.com/flowcasthq/flowcast-backend/pkg/redis"
)

const lockKeyFormat = "fc:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
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

	refreshJob, err := cron.NewForecastRefreshJob(cron.ForecastRefreshJobParams{
		Logger:    logg,
		Accounts:  accountRepo,
		Forecasts: forecastService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create forecast refresh job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(refreshJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
