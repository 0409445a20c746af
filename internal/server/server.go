package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"algomancy.gg/deckhub/internal/config"
	"algomancy.gg/deckhub/internal/middleware"
	"algomancy.gg/deckhub/internal/scheduler"
	"algomancy.gg/deckhub/pkg/response"
	"algomancy.gg/deckhub/pkg/storage"

	achievementHttp "algomancy.gg/deckhub/internal/modules/achievement/delivery/http"
	achievementRepo "algomancy.gg/deckhub/internal/modules/achievement/repository"
	achievementService "algomancy.gg/deckhub/internal/modules/achievement/service"

	cardHttp "algomancy.gg/deckhub/internal/modules/card/delivery/http"
	cardRepo "algomancy.gg/deckhub/internal/modules/card/repository"
	cardService "algomancy.gg/deckhub/internal/modules/card/service"

	competitionHttp "algomancy.gg/deckhub/internal/modules/competition/delivery/http"
	competitionRepo "algomancy.gg/deckhub/internal/modules/competition/repository"
	competitionService "algomancy.gg/deckhub/internal/modules/competition/service"

	deckHttp "algomancy.gg/deckhub/internal/modules/deck/delivery/http"
	deckRepo "algomancy.gg/deckhub/internal/modules/deck/repository"
	deckService "algomancy.gg/deckhub/internal/modules/deck/service"

	gameLogHttp "algomancy.gg/deckhub/internal/modules/gamelog/delivery/http"
	gameLogRepo "algomancy.gg/deckhub/internal/modules/gamelog/repository"
	gameLogService "algomancy.gg/deckhub/internal/modules/gamelog/service"

	likeHttp "algomancy.gg/deckhub/internal/modules/like/delivery/http"
	likeRepo "algomancy.gg/deckhub/internal/modules/like/repository"
	likeService "algomancy.gg/deckhub/internal/modules/like/service"

	notiHttp "algomancy.gg/deckhub/internal/modules/notification/delivery/http"
	notifRepo "algomancy.gg/deckhub/internal/modules/notification/repository"
	notifService "algomancy.gg/deckhub/internal/modules/notification/service"

	searchHttp "algomancy.gg/deckhub/internal/modules/search/delivery/http"
	searchService "algomancy.gg/deckhub/internal/modules/search/service"

	userHttp "algomancy.gg/deckhub/internal/modules/user/delivery/http"
	userRepo "algomancy.gg/deckhub/internal/modules/user/repository"
	userService "algomancy.gg/deckhub/internal/modules/user/service"

	viewService "algomancy.gg/deckhub/internal/modules/view/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the connections the server is built on. Redis and Mongo may be nil.
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	MongoDB *mongo.Database
	Log     *zap.Logger
}

type Server struct {
	engine  *gin.Engine
	cfg     *config.Config
	viewSvc viewService.ViewService
	jobs    *scheduler.Scheduler
	log     *zap.Logger
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	response.Logger = log.Named("response")
	db, redisClient := deps.DB, deps.Redis

	imageStorage := newImageStorage(cfg, log)
	meiliSvc := newMeiliSearch(cfg, log)

	var logStore gameLogRepo.GameLogRepository
	if deps.MongoDB != nil {
		logStore = gameLogRepo.NewGameLogRepository(deps.MongoDB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := logStore.EnsureIndexes(ctx); err != nil {
			log.Warn("failed to ensure game log indexes", zap.Error(err))
		}
		cancel()
	} else {
		log.Warn("MONGO_URI not set, game logs are disabled and earn no XP")
	}

	userRepository := userRepo.NewUserRepository(db)
	deckRepository := deckRepo.NewDeckRepository(db)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient, log)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, splitOrigins(cfg.AllowedOrigins), log)

	// Achievement Module
	var logCounter achievementRepo.LogCounter
	if logStore != nil {
		logCounter = logStore
	}
	achievementRepository := achievementRepo.NewAchievementRepository(db, logCounter)
	achievementSvc := achievementService.NewAchievementService(achievementRepository, notificationSvc, ratesFromConfig(cfg.XP), log)
	achievementHandler := achievementHttp.NewAchievementHandler(achievementSvc)

	jobs := scheduler.NewScheduler(log)
	if err := jobs.Register(scheduler.NewXPReconcileJob(achievementSvc, cfg.XPReconcileCron, cfg.XPReconcileConcurrency, log)); err != nil {
		log.Warn("xp reconcile job not scheduled", zap.Error(err))
	}

	userSvc := userService.NewUserService(userRepository, imageStorage, log)
	userHandler := userHttp.NewUserHandler(userSvc)

	cardSvc := cardService.NewCardService(cardRepo.NewCardRepository(db), log)
	cardHandler := cardHttp.NewCardHandler(cardSvc)

	viewSvc := viewService.NewViewService(redisClient, deckRepository, cfg.ViewDedupWindow, cfg.ViewSyncInterval, log)

	deckSvc := deckService.NewDeckService(
		deckRepository,
		userRepository,
		cardSvc,
		imageStorage,
		meiliSvc,
		viewSvc,
		achievementSvc,
		redisClient,
		cfg.RateLimitDeckCreate,
		log,
	)
	deckHandler := deckHttp.NewDeckHandler(deckSvc)

	likeSvc := likeService.NewLikeService(likeRepo.NewLikeRepository(db), deckRepository, notificationSvc, achievementSvc, redisClient, cfg.RateLimitLike, log)
	likeHandler := likeHttp.NewLikeHandler(likeSvc)

	gameLogSvc := gameLogService.NewGameLogService(logStore, deckRepository, achievementSvc, redisClient, cfg.RateLimitLogSubmit, log)
	gameLogHandler := gameLogHttp.NewGameLogHandler(gameLogSvc)

	competitionSvc := competitionService.NewCompetitionService(competitionRepo.NewCompetitionRepository(db), deckRepository, log)
	competitionHandler := competitionHttp.NewCompetitionHandler(competitionSvc)

	searchHandler := searchHttp.NewSearchHandler(meiliSvc)

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	authMiddleware := middleware.NewAuthMiddleware(userSvc, cfg.JWTSecret, log)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public routes; a token is optional and only personalises the response
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/cards", cardHandler.ListCards)
		public.GET("/cards/:card_id", cardHandler.GetCard)
		public.GET("/decks", deckHandler.ListDecks)
		public.GET("/decks/:deck_id", deckHandler.GetDeck)
		public.GET("/competitions", competitionHandler.ListCompetitions)
		public.GET("/competitions/:id/standings", competitionHandler.GetStandings)
		public.GET("/leaderboard", achievementHandler.GetLeaderboard)
		public.GET("/ranks", achievementHandler.GetRanks)
		public.GET("/users/:username", userHandler.GetProfile)
		public.GET("/users/:username/decks", deckHandler.ListUserDecks)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/cards", cardHandler.UpsertCards)
			adminGroup.POST("/competitions", competitionHandler.CreateCompetition)
			adminGroup.POST("/users/:user_id/xp/refresh", achievementHandler.RefreshUser)
		}

		// Profile routes
		protected.GET("/users/me", userHandler.GetMe)
		protected.PUT("/users/me", userHandler.UpdateProfile)

		// Deck routes
		protected.GET("/decks/me", deckHandler.ListMyDecks)
		protected.POST("/decks", deckHandler.CreateDeck)
		protected.PUT("/decks/:deck_id", deckHandler.UpdateDeck)
		protected.DELETE("/decks/:deck_id", deckHandler.DeleteDeck)
		protected.POST("/decks/:deck_id/cover", deckHandler.UploadCover)
		protected.POST("/decks/:deck_id/like", likeHandler.ToggleLike)

		// Game logs
		protected.POST("/logs", gameLogHandler.SubmitLog)
		protected.GET("/logs/me", gameLogHandler.ListMyLogs)

		// Competitions
		protected.POST("/competitions/:id/entries", competitionHandler.EnterCompetition)
		protected.POST("/competitions/:id/results", competitionHandler.ReportResults)

		// Achievements
		protected.GET("/achievements/me", achievementHandler.GetMyAchievements)
		protected.POST("/achievements/refresh", achievementHandler.RefreshMine)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		protected.GET("/search/token", searchHandler.GetSearchToken)
	}

	return &Server{
		engine:  router,
		cfg:     cfg,
		viewSvc: viewSvc,
		jobs:    jobs,
		log:     log,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// stops the view sync worker and scheduled jobs.
func (s *Server) Run(ctx context.Context) error {
	s.jobs.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.jobs.Stop(stopCtx)
	}()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.viewSvc.StartViewSyncWorker(workerCtx)
	}()
	defer func() {
		stopWorker()
		<-workerDone
	}()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ratesFromConfig(r config.XPRates) achievementService.Rates {
	return achievementService.Rates{
		LikeXP:             r.LikeXP,
		DeckCreateXP:       r.DeckCreateXP,
		DeckCreateDailyCap: r.DeckCreateDailyCap,
		LogXP:              r.LogXP,
	}
}

func newImageStorage(cfg *config.Config, log *zap.Logger) storage.ImageStorage {
	imageStorage, err := storage.NewCloudinaryStorage(storage.CloudinaryConfig{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	})
	if err != nil {
		log.Warn("cloudinary storage unavailable, image uploads are disabled", zap.Error(err))
		return nil
	}
	return imageStorage
}

func newMeiliSearch(cfg *config.Config, log *zap.Logger) searchService.MeiliSearchService {
	meiliHost := cfg.MeiliSearchHost
	if meiliHost == "" {
		log.Warn("MEILISEARCH_HOST not set, deck search indexing is disabled")
		return nil
	}
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}

	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	return searchService.NewMeiliSearchService(meiliClient, log)
}

func splitOrigins(allowedOrigins string) []string {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(allowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
