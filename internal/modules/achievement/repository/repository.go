package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	achievementDto "algomancy.gg/deckhub/internal/modules/achievement/dto"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogCounter counts qualifying game logs. It is implemented by the game-log
// store, which lives outside postgres.
type LogCounter interface {
	CountQualifying(ctx context.Context, userID uuid.UUID) (int, error)
}

type AchievementRepository interface {
	FetchTotalLikes(ctx context.Context, userID uuid.UUID) (int, error)
	FetchDeckCreationCountsByDay(ctx context.Context, userID uuid.UUID) ([]achievementDto.DeckCount, error)
	FetchQualifyingLogCount(ctx context.Context, userID uuid.UUID) (int, error)
	WriteAchievementXP(ctx context.Context, userID uuid.UUID, xp int) error

	GetAchievementXP(ctx context.Context, userID uuid.UUID) (int, error)
	TopUsers(ctx context.Context, limit int) ([]entity.User, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

type achievementRepository struct {
	db   *gorm.DB
	logs LogCounter
}

// NewAchievementRepository wires postgres aggregates with the game-log
// counter. A nil counter makes every user's log count 0.
func NewAchievementRepository(db *gorm.DB, logs LogCounter) AchievementRepository {
	return &achievementRepository{db: db, logs: logs}
}

// FetchTotalLikes counts likes received on the user's decks. Likes the owner
// left on their own decks are not counted.
func (r *achievementRepository) FetchTotalLikes(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.DeckLike{}).
		Joins("JOIN decks ON decks.id = deck_likes.deck_id").
		Where("decks.user_id = ? AND deck_likes.user_id <> ?", userID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return int(count), nil
}

type dayCountRow struct {
	Day   time.Time
	Count int
}

func (r *achievementRepository) FetchDeckCreationCountsByDay(ctx context.Context, userID uuid.UUID) ([]achievementDto.DeckCount, error) {
	var rows []dayCountRow
	err := r.db.WithContext(ctx).
		Model(&entity.Deck{}).
		Select("DATE(created_at AT TIME ZONE 'UTC') AS day, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("day").
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count decks by day: %w", err)
	}

	counts := make([]achievementDto.DeckCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, achievementDto.DeckCount{Day: row.Day, Count: row.Count})
	}
	return counts, nil
}

func (r *achievementRepository) FetchQualifyingLogCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if r.logs == nil {
		return 0, nil
	}
	count, err := r.logs.CountQualifying(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count game logs: %w", err)
	}
	return count, nil
}

// WriteAchievementXP overwrites the stored total in a single statement.
func (r *achievementRepository) WriteAchievementXP(ctx context.Context, userID uuid.UUID, xp int) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("achievement_xp", xp)
	if result.Error != nil {
		return fmt.Errorf("write achievement xp: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
	}
	return nil
}

func (r *achievementRepository) GetAchievementXP(ctx context.Context, userID uuid.UUID) (int, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Select("id", "achievement_xp").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
		}
		return 0, err
	}
	return user.AchievementXP, nil
}

func (r *achievementRepository) TopUsers(ctx context.Context, limit int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "avatar_url", "achievement_xp", "created_at").
		Order("achievement_xp DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *achievementRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.User{}).Order("created_at").Pluck("id", &ids).Error
	return ids, err
}
