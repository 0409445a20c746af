package repository

import (
	"context"
	"errors"
	"fmt"

	"algomancy.gg/deckhub/internal/entity"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository interface {
	// ToggleLike adds the like when absent and removes it otherwise. The
	// deck's likes_count moves in the same transaction.
	ToggleLike(ctx context.Context, deckID, userID uuid.UUID) (liked bool, likesCount int, err error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) ToggleLike(ctx context.Context, deckID, userID uuid.UUID) (bool, int, error) {
	var liked bool
	var count int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("deck_id = ? AND user_id = ?", deckID, userID).Delete(&entity.DeckLike{})
		if res.Error != nil {
			return res.Error
		}

		delta := -1
		if res.RowsAffected == 0 {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&entity.DeckLike{DeckID: deckID, UserID: userID})
			if ins.Error != nil {
				if errors.Is(ins.Error, gorm.ErrForeignKeyViolated) {
					return fmt.Errorf("deck %s: %w", deckID, apperror.ErrNotFound)
				}
				return ins.Error
			}
			liked = true
			delta = 0
			if ins.RowsAffected > 0 {
				delta = 1
			}
		}

		upd := tx.Model(&entity.Deck{}).
			Where("id = ?", deckID).
			UpdateColumn("likes_count", gorm.Expr("GREATEST(likes_count + ?, 0)", delta))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return fmt.Errorf("deck %s: %w", deckID, apperror.ErrNotFound)
		}

		return tx.Model(&entity.Deck{}).Where("id = ?", deckID).Pluck("likes_count", &count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}
