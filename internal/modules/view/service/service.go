package view

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pendingKey = "pending:deck_views"

// ViewStore persists accumulated view counts.
type ViewStore interface {
	AddViews(ctx context.Context, deckID uuid.UUID, n int) error
}

type ViewService interface {
	IncrementView(ctx context.Context, deckID uuid.UUID, viewerID uuid.UUID) error
	StartViewSyncWorker(ctx context.Context)
}

type viewService struct {
	redisClient  *redis.Client
	store        ViewStore
	dedupWindow  time.Duration
	syncInterval time.Duration
	log          *zap.Logger
}

func NewViewService(redisClient *redis.Client, store ViewStore, dedupWindow, syncInterval time.Duration, log *zap.Logger) ViewService {
	if log == nil {
		log = zap.NewNop()
	}
	if dedupWindow <= 0 {
		dedupWindow = time.Hour
	}
	if syncInterval <= 0 {
		syncInterval = time.Minute
	}
	return &viewService{
		redisClient:  redisClient,
		store:        store,
		dedupWindow:  dedupWindow,
		syncInterval: syncInterval,
		log:          log.Named("view"),
	}
}

func viewerKey(deckID, viewerID uuid.UUID) string {
	return fmt.Sprintf("deck:user_view:%s:%s", deckID, viewerID)
}

func counterKey(deckID string) string {
	return fmt.Sprintf("deck:views:%s", deckID)
}

// IncrementView counts at most one view per viewer per dedup window.
func (s *viewService) IncrementView(ctx context.Context, deckID uuid.UUID, viewerID uuid.UUID) error {
	if s.redisClient == nil {
		return nil
	}

	fresh, err := s.redisClient.SetNX(ctx, viewerKey(deckID, viewerID), "viewed", s.dedupWindow).Result()
	if err != nil {
		return fmt.Errorf("failed to check viewer: %w", err)
	}
	if !fresh {
		return nil
	}

	_, err = s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, counterKey(deckID.String()))
		pipe.SAdd(ctx, pendingKey, deckID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment view: %w", err)
	}
	return nil
}

// syncViewsToDB moves buffered counts into the store. A count is taken and
// cleared atomically, so views landing during a flush roll into the next one.
func (s *viewService) syncViewsToDB(ctx context.Context) int {
	deckIDs, err := s.redisClient.SPopN(ctx, pendingKey, 1000).Result()
	if err != nil {
		s.log.Error("failed to read pending deck views", zap.Error(err))
		return 0
	}

	synced := 0
	for _, raw := range deckIDs {
		deckID, err := uuid.Parse(raw)
		if err != nil {
			s.log.Warn("invalid deck id in pending views", zap.String("deck_id", raw))
			continue
		}

		var get *redis.StringCmd
		_, err = s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			get = pipe.Get(ctx, counterKey(raw))
			pipe.Del(ctx, counterKey(raw))
			return nil
		})
		if err != nil && err != redis.Nil {
			s.log.Error("failed to drain view counter", zap.Stringer("deck_id", deckID), zap.Error(err))
			continue
		}

		count, _ := strconv.Atoi(get.Val())
		if count <= 0 {
			continue
		}

		if err := s.store.AddViews(ctx, deckID, count); err != nil {
			s.log.Error("failed to persist deck views", zap.Stringer("deck_id", deckID), zap.Error(err))
			s.requeue(ctx, raw, count)
			continue
		}
		synced++
	}

	if synced > 0 {
		s.log.Debug("synced deck views", zap.Int("decks", synced))
	}
	return synced
}

func (s *viewService) requeue(ctx context.Context, deckID string, count int) {
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, counterKey(deckID), int64(count))
		pipe.SAdd(ctx, pendingKey, deckID)
		return nil
	})
	if err != nil {
		s.log.Error("dropped deck views", zap.String("deck_id", deckID), zap.Int("count", count), zap.Error(err))
	}
}

// StartViewSyncWorker blocks until ctx is cancelled, flushing on every tick
// and once more on the way out.
func (s *viewService) StartViewSyncWorker(ctx context.Context) {
	if s.redisClient == nil {
		return
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncViewsToDB(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.syncViewsToDB(flushCtx)
			cancel()
			return
		}
	}
}
