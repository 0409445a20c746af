package achievement

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	achievementDto "algomancy.gg/deckhub/internal/modules/achievement/dto"
	achievementRepo "algomancy.gg/deckhub/internal/modules/achievement/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const asyncRefreshTimeout = 10 * time.Second

// Notifier receives rank-up notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

// RefreshSummary reports the outcome of a bulk refresh.
type RefreshSummary struct {
	Total     int
	Refreshed int
	Failed    int
}

type AchievementService interface {
	// RefreshUserXP recomputes the user's achievement XP from scratch and
	// overwrites the stored value. Fetch failures return ErrDataUnavailable
	// and leave the stored value untouched.
	RefreshUserXP(ctx context.Context, userID uuid.UUID) (int, error)
	// RefreshUserXPAsync runs RefreshUserXP in the background and only logs
	// failures.
	RefreshUserXPAsync(userID uuid.UUID)
	RefreshAll(ctx context.Context, concurrency int) (RefreshSummary, error)
	GetAchievements(ctx context.Context, userID uuid.UUID) (*achievementDto.AchievementResponse, error)
	GetLeaderboard(ctx context.Context, limit int) ([]achievementDto.LeaderboardEntry, error)
	Rates() Rates
}

type achievementService struct {
	repo     achievementRepo.AchievementRepository
	notifier Notifier
	rates    Rates
	log      *zap.Logger
}

func NewAchievementService(repo achievementRepo.AchievementRepository, notifier Notifier, rates Rates, log *zap.Logger) AchievementService {
	if log == nil {
		log = zap.NewNop()
	}
	return &achievementService{
		repo:     repo,
		notifier: notifier,
		rates:    rates,
		log:      log.Named("achievement"),
	}
}

func (s *achievementService) Rates() Rates {
	return s.rates
}

func (s *achievementService) computeBonus(ctx context.Context, userID uuid.UUID) (achievementDto.BonusBreakdown, error) {
	totalLikes, err := s.repo.FetchTotalLikes(ctx, userID)
	if err != nil {
		return achievementDto.BonusBreakdown{}, fmt.Errorf("%w: %w", apperror.ErrDataUnavailable, err)
	}
	deckCounts, err := s.repo.FetchDeckCreationCountsByDay(ctx, userID)
	if err != nil {
		return achievementDto.BonusBreakdown{}, fmt.Errorf("%w: %w", apperror.ErrDataUnavailable, err)
	}
	totalLogs, err := s.repo.FetchQualifyingLogCount(ctx, userID)
	if err != nil {
		return achievementDto.BonusBreakdown{}, fmt.Errorf("%w: %w", apperror.ErrDataUnavailable, err)
	}

	rates := s.rates
	return CalculateBonusXP(BonusInput{
		TotalLikes: totalLikes,
		DeckCounts: deckCounts,
		TotalLogs:  totalLogs,
		Rates:      &rates,
	}), nil
}

func (s *achievementService) RefreshUserXP(ctx context.Context, userID uuid.UUID) (int, error) {
	previousXP, err := s.repo.GetAchievementXP(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", apperror.ErrDataUnavailable, err)
	}

	breakdown, err := s.computeBonus(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.repo.WriteAchievementXP(ctx, userID, breakdown.TotalBonusXP); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", apperror.ErrDataUnavailable, err)
	}

	previousRank := RankForXP(previousXP)
	newRank := RankForXP(breakdown.TotalBonusXP)
	if newRank.MinXP > previousRank.MinXP {
		s.sendRankUpNotification(ctx, userID, previousRank, newRank, breakdown.TotalBonusXP)
	}

	return breakdown.TotalBonusXP, nil
}

func (s *achievementService) sendRankUpNotification(ctx context.Context, userID uuid.UUID, previous, next Rank, xp int) {
	if s.notifier == nil {
		return
	}
	notification := &entity.Notification{
		UserID:     userID,
		ActorID:    userID,
		EntityID:   userID,
		EntityType: "achievement",
		Type:       entity.NotificationRankUp,
		Message:    fmt.Sprintf("You ranked up from %s to %s with %d XP!", previous.Name, next.Name, xp),
	}
	if err := s.notifier.CreateNotification(ctx, notification); err != nil {
		s.log.Warn("rank up notification failed", zap.Stringer("user_id", userID), zap.Error(err))
		return
	}
	s.log.Info("rank up", zap.Stringer("user_id", userID), zap.String("from", previous.Key), zap.String("to", next.Key))
}

func (s *achievementService) RefreshUserXPAsync(userID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncRefreshTimeout)
		defer cancel()

		xp, err := s.RefreshUserXP(ctx, userID)
		if err != nil {
			s.log.Warn("async xp refresh failed", zap.Stringer("user_id", userID), zap.Error(err))
			return
		}
		s.log.Debug("xp refreshed", zap.Stringer("user_id", userID), zap.Int("xp", xp))
	}()
}

// RefreshAll refreshes every user with at most concurrency refreshes in
// flight. Per-user failures are counted, not returned.
func (s *achievementService) RefreshAll(ctx context.Context, concurrency int) (RefreshSummary, error) {
	ids, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("%w: %w", apperror.ErrDataUnavailable, err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var refreshed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := s.RefreshUserXP(gctx, id); err != nil {
				failed.Add(1)
				s.log.Warn("xp refresh failed", zap.Stringer("user_id", id), zap.Error(err))
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}

	err = g.Wait()
	return RefreshSummary{
		Total:     len(ids),
		Refreshed: int(refreshed.Load()),
		Failed:    int(failed.Load()),
	}, err
}

// GetAchievements returns the stored XP together with a freshly computed
// breakdown. The two can differ until the next refresh lands.
func (s *achievementService) GetAchievements(ctx context.Context, userID uuid.UUID) (*achievementDto.AchievementResponse, error) {
	xp, err := s.repo.GetAchievementXP(ctx, userID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.computeBonus(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &achievementDto.AchievementResponse{
		UserID:        userID,
		AchievementXP: xp,
		Status:        StatusForXP(xp),
		Breakdown:     breakdown,
	}, nil
}

func (s *achievementService) GetLeaderboard(ctx context.Context, limit int) ([]achievementDto.LeaderboardEntry, error) {
	users, err := s.repo.TopUsers(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]achievementDto.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, achievementDto.LeaderboardEntry{
			Username:  u.Username,
			AvatarURL: u.AvatarURL,
			Position:  i + 1,
			Status:    StatusForXP(u.AchievementXP),
		})
	}
	return entries, nil
}
