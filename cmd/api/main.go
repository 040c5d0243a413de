package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/betchat/betchat-backend/api/routes"
	"github.com/betchat/betchat-backend/internal/challenges"
	"github.com/betchat/betchat-backend/internal/events"
	"github.com/betchat/betchat-backend/internal/participations"
	"github.com/betchat/betchat-backend/internal/pools"
	"github.com/betchat/betchat-backend/internal/settlement"
	"github.com/betchat/betchat-backend/internal/staking"
	"github.com/betchat/betchat-backend/internal/wallet"
	"github.com/betchat/betchat-backend/pkg/config"
	"github.com/betchat/betchat-backend/pkg/db"
	"github.com/betchat/betchat-backend/pkg/logger"
	"github.com/betchat/betchat-backend/pkg/migrate"
	"github.com/betchat/betchat-backend/pkg/outbox"
	"github.com/betchat/betchat-backend/pkg/redis"
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

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	eventRepo := events.NewRepository(dbClient.DB())
	poolRepo := pools.NewRepository(dbClient.DB())
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

	eventService, err := events.NewService(eventRepo, poolRepo, partRepo, dbClient, outboxService, settlementService, cfg.Betting)
	if err != nil {
		logg.Error(context.Background(), "failed to create event service", err)
		os.Exit(1)
	}

	stakingService, err := staking.NewService(eventRepo, poolRepo, partRepo, walletService, dbClient, outboxService, cfg.Betting)
	if err != nil {
		logg.Error(context.Background(), "failed to create staking service", err)
		os.Exit(1)
	}

	challengeService, err := challenges.NewService(challenges.NewRepository(dbClient.DB()), walletService, dbClient, outboxService, cfg.Betting)
	if err != nil {
		logg.Error(context.Background(), "failed to create challenge service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			eventService,
			stakingService,
			settlementService,
			challengeService,
			walletService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
