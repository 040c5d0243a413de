package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/betchat/betchat-backend/internal/events"
	"github.com/betchat/betchat-backend/internal/lifecycle"
	"github.com/betchat/betchat-backend/internal/participations"
	"github.com/betchat/betchat-backend/internal/settlement"
	"github.com/betchat/betchat-backend/internal/wallet"
	"github.com/betchat/betchat-backend/pkg/config"
	"github.com/betchat/betchat-backend/pkg/db"
	"github.com/betchat/betchat-backend/pkg/logger"
	"github.com/betchat/betchat-backend/pkg/metrics"
	"github.com/betchat/betchat-backend/pkg/migrate"
	"github.com/betchat/betchat-backend/pkg/outbox"
	"github.com/betchat/betchat-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "lifecycle-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "lifecycle-worker"

	logg = logger.New(logger.Options{
		ServiceName: "lifecycle-worker",
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

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	eventRepo := events.NewRepository(dbClient.DB())
	partRepo := participations.NewRepository(dbClient.DB())

	walletService, err := wallet.NewService(wallet.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.NewRepository(dbClient.DB()), eventRepo, partRepo, walletService, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	eventEndedJob, err := lifecycle.NewEventEndedJob(lifecycle.EventEndedJobParams{
		Logger: logg,
		DB:     dbClient,
		Events: eventRepo,
		Outbox: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event ended job", err)
		os.Exit(1)
	}

	payoutRetryJob, err := lifecycle.NewPayoutRetryJob(lifecycle.PayoutRetryJobParams{
		Logger:     logg,
		Settlement: settlementService,
		Batch:      cfg.Lifecycle.PayoutBatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout retry job", err)
		os.Exit(1)
	}

	lock, err := lifecycle.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := lifecycle.NewService(lifecycle.ServiceParams{
		Logger:   logg,
		Registry: lifecycle.NewRegistry(eventEndedJob, payoutRetryJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Lifecycle.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting lifecycle worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "lifecycle worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "lifecycle worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("lifecycle-worker:%s", env)
}
