package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"algomancy.gg/deckhub/internal/bootstrap"
	"algomancy.gg/deckhub/internal/config"
	cardRepo "algomancy.gg/deckhub/internal/modules/card/repository"
	cardService "algomancy.gg/deckhub/internal/modules/card/service"
	"algomancy.gg/deckhub/internal/server"
	"algomancy.gg/deckhub/pkg/database"
	"algomancy.gg/deckhub/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.PostgresDSN(), cfg.IsDevelopment())
	if err != nil {
		return err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return err
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient == nil {
		zl.Warn("REDIS_URL not set, views, rate limits and live notifications are disabled")
	} else {
		defer redisClient.Close()
	}

	mongoDB, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	if mongoDB != nil {
		defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
	}

	cards := cardService.NewCardService(cardRepo.NewCardRepository(db), zl)
	if err := bootstrap.SeedCards(ctx, cards, cfg.CardSeedPath, zl); err != nil {
		return err
	}

	srv := server.NewServer(cfg, server.Deps{
		DB:      db,
		Redis:   redisClient,
		MongoDB: mongoDB,
		Log:     zl,
	})
	return srv.Run(ctx)
}
