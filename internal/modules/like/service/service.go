package like

import (
	"context"
	"fmt"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	deckRepo "algomancy.gg/deckhub/internal/modules/deck/repository"
	likeDto "algomancy.gg/deckhub/internal/modules/like/dto"
	likeRepo "algomancy.gg/deckhub/internal/modules/like/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	"algomancy.gg/deckhub/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type XPRefresher interface {
	RefreshUserXPAsync(userID uuid.UUID)
}

type LikeService interface {
	ToggleLike(ctx context.Context, userID, deckID uuid.UUID) (*likeDto.LikeResponse, error)
}

type likeService struct {
	repo        likeRepo.LikeRepository
	deckRepo    deckRepo.DeckRepository
	notifier    Notifier
	xp          XPRefresher
	redisClient *redis.Client
	rateLimit   time.Duration
	log         *zap.Logger
}

func NewLikeService(repo likeRepo.LikeRepository, deckRepo deckRepo.DeckRepository, notifier Notifier, xp XPRefresher, redisClient *redis.Client, rateLimit time.Duration, log *zap.Logger) LikeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &likeService{
		repo:        repo,
		deckRepo:    deckRepo,
		notifier:    notifier,
		xp:          xp,
		redisClient: redisClient,
		rateLimit:   rateLimit,
		log:         log.Named("like"),
	}
}

func (s *likeService) ToggleLike(ctx context.Context, userID, deckID uuid.UUID) (*likeDto.LikeResponse, error) {
	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID == userID {
		return nil, fmt.Errorf("you cannot like your own deck: %w", apperror.ErrForbidden)
	}
	if !deck.IsPublic {
		return nil, fmt.Errorf("deck %s: %w", deckID, apperror.ErrNotFound)
	}

	scope := fmt.Sprintf("%s:%s", ratelimiter.ScopeLike, deckID)
	release, err := ratelimiter.Enforce(ctx, s.redisClient, userID, scope, s.rateLimit, "you are toggling likes too quickly")
	if err != nil {
		return nil, err
	}

	liked, count, err := s.repo.ToggleLike(ctx, deckID, userID)
	if err != nil {
		release()
		return nil, err
	}

	if liked && s.notifier != nil {
		notif := &entity.Notification{
			UserID:     deck.UserID,
			ActorID:    userID,
			EntityID:   deckID,
			EntityType: "deck",
			Type:       entity.NotificationDeckLiked,
			Message:    fmt.Sprintf("Someone liked your deck: %s", truncate(deck.Name, 40)),
		}
		if err := s.notifier.CreateNotification(ctx, notif); err != nil {
			s.log.Warn("failed to send like notification", zap.Stringer("deck_id", deckID), zap.Error(err))
		}
	}

	if s.xp != nil {
		s.xp.RefreshUserXPAsync(deck.UserID)
	}

	return &likeDto.LikeResponse{DeckID: deckID, Liked: liked, LikesCount: count}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
