package main

import (
	"fmt"

	"algomancy.gg/deckhub/internal/config"
	achievementRepo "algomancy.gg/deckhub/internal/modules/achievement/repository"
	achievement "algomancy.gg/deckhub/internal/modules/achievement/service"
	gameLogRepo "algomancy.gg/deckhub/internal/modules/gamelog/repository"
	"algomancy.gg/deckhub/pkg/database"
	"algomancy.gg/deckhub/pkg/logger"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env holds the connections a subcommand opened; close releases them.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *gorm.DB
	mongo *mongo.Database
}

func (e *env) close(cmd *cobra.Command) {
	if e.mongo != nil {
		_ = e.mongo.Client().Disconnect(cmd.Context())
	}
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = e.log.Sync()
}

func openEnv(withMongo bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := database.Connect(cfg.PostgresDSN(), false)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: zl, db: db}
	if withMongo {
		e.mongo, err = database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// achievementService builds the XP service without a notifier; operator
// refreshes never send rank-up notifications.
func (e *env) achievementService() achievement.AchievementService {
	var logs achievementRepo.LogCounter
	if e.mongo != nil {
		logs = gameLogRepo.NewGameLogRepository(e.mongo)
	} else {
		e.log.Warn("MONGO_URI not set, log XP will be zero")
	}

	rates := achievement.Rates{
		LikeXP:             e.cfg.XP.LikeXP,
		DeckCreateXP:       e.cfg.XP.DeckCreateXP,
		DeckCreateDailyCap: e.cfg.XP.DeckCreateDailyCap,
		LogXP:              e.cfg.XP.LogXP,
	}
	return achievement.NewAchievementService(achievementRepo.NewAchievementRepository(e.db, logs), nil, rates, e.log)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xpctl",
		Short:         "Operate on achievement XP and the card catalogue",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRefreshCmd(), newRankCmd(), newSeedCardsCmd(), newJobCmd(openJobs))
	return root
}
