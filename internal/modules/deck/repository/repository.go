package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"algomancy.gg/deckhub/internal/entity"
	deckDto "algomancy.gg/deckhub/internal/modules/deck/dto"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeckRepository interface {
	Create(ctx context.Context, deck *entity.Deck) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Deck, error)
	FindPublic(ctx context.Context, filter deckDto.DeckFilter, offset int) ([]*entity.Deck, int64, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, includePrivate bool, offset, limit int) ([]*entity.Deck, int64, error)
	// Update rewrites the deck row and replaces its card list.
	Update(ctx context.Context, deck *entity.Deck) error
	UpdateCover(ctx context.Context, id uuid.UUID, coverURL *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddViews(ctx context.Context, id uuid.UUID, n int) error
	LikedDeckIDs(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type deckRepository struct {
	db *gorm.DB
}

func NewDeckRepository(db *gorm.DB) DeckRepository {
	return &deckRepository{db: db}
}

func createCards(tx *gorm.DB, deckID uuid.UUID, cards []entity.DeckCard) error {
	if len(cards) == 0 {
		return nil
	}
	for i := range cards {
		cards[i].DeckID = deckID
	}
	return tx.Omit("Card").Create(&cards).Error
}

func (r *deckRepository) Create(ctx context.Context, deck *entity.Deck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cards := deck.Cards
		if err := tx.Omit("Cards", "User").Create(deck).Error; err != nil {
			return err
		}
		if err := createCards(tx, deck.ID, cards); err != nil {
			return err
		}
		deck.Cards = cards
		return nil
	})
}

func (r *deckRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Deck, error) {
	var deck entity.Deck
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("card_id")
		}).
		Preload("Cards.Card").
		Where("id = ?", id).
		First(&deck).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("deck %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &deck, nil
}

func (r *deckRepository) FindPublic(ctx context.Context, filter deckDto.DeckFilter, offset int) ([]*entity.Deck, int64, error) {
	var decks []*entity.Deck
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.Deck{}).
		Where("is_public = ?", true)

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	if filter.Element != "" {
		element, _ := json.Marshal([]string{filter.Element})
		query = query.Where("elements @> ?::jsonb", string(element))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.SortBy {
	case deckDto.SortPopular:
		query = query.Order("views DESC").Order("created_at DESC")
	case deckDto.SortLiked:
		query = query.Order("likes_count DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	err := query.
		Preload("User").
		Preload("Cards").
		Offset(offset).
		Limit(filter.Limit).
		Find(&decks).Error
	if err != nil {
		return nil, 0, err
	}

	return decks, total, nil
}

func (r *deckRepository) FindByUserID(ctx context.Context, userID uuid.UUID, includePrivate bool, offset, limit int) ([]*entity.Deck, int64, error) {
	var decks []*entity.Deck
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Deck{}).Where("user_id = ?", userID)
	if !includePrivate {
		query = query.Where("is_public = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Preload("Cards").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&decks).Error
	if err != nil {
		return nil, 0, err
	}

	return decks, total, nil
}

func (r *deckRepository) Update(ctx context.Context, deck *entity.Deck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(deck).
			Select("name", "description", "elements", "is_public").
			Updates(deck).Error
		if err != nil {
			return err
		}

		if err := tx.Where("deck_id = ?", deck.ID).Delete(&entity.DeckCard{}).Error; err != nil {
			return err
		}
		return createCards(tx, deck.ID, deck.Cards)
	})
}

func (r *deckRepository) UpdateCover(ctx context.Context, id uuid.UUID, coverURL *string) error {
	return r.db.WithContext(ctx).Model(&entity.Deck{}).Where("id = ?", id).Update("cover_image_url", coverURL).Error
}

func (r *deckRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Deck{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("deck %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

// AddViews applies a batch of counted views without touching updated_at.
func (r *deckRepository) AddViews(ctx context.Context, id uuid.UUID, n int) error {
	if n <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&entity.Deck{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", n)).Error
}

func (r *deckRepository) LikedDeckIDs(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(deckIDs))
	if len(deckIDs) == 0 {
		return liked, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.DeckLike{}).
		Where("user_id = ? AND deck_id IN ?", userID, deckIDs).
		Pluck("deck_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
