package repository

import (
	"context"
	"errors"
	"fmt"

	"algomancy.gg/deckhub/internal/entity"
	cardDto "algomancy.gg/deckhub/internal/modules/card/dto"
	"algomancy.gg/deckhub/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CardRepository interface {
	FindAll(ctx context.Context, filter cardDto.CardFilter, offset int) ([]entity.Card, int64, error)
	FindByID(ctx context.Context, id string) (*entity.Card, error)
	FindByIDs(ctx context.Context, ids []string) ([]entity.Card, error)
	Upsert(ctx context.Context, cards []entity.Card) error
}

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) FindAll(ctx context.Context, filter cardDto.CardFilter, offset int) ([]entity.Card, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Card{})
	if filter.Element != "" {
		query = query.Where("LOWER(element) = LOWER(?)", filter.Element)
	}
	if filter.CardType != "" {
		query = query.Where("LOWER(card_type) = LOWER(?)", filter.CardType)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR text ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cards []entity.Card
	err := query.Order("element").Order("cost").Order("name").
		Limit(filter.Limit).
		Offset(offset).
		Find(&cards).Error
	return cards, total, err
}

func (r *cardRepository) FindByID(ctx context.Context, id string) (*entity.Card, error) {
	var card entity.Card
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("card %q: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cards []entity.Card
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&cards).Error
	return cards, err
}

func (r *cardRepository) Upsert(ctx context.Context, cards []entity.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		CreateInBatches(cards, 200).Error
}
