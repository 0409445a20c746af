package repository

import (
	"context"
	"errors"
	"fmt"

	"algomancy.gg/deckhub/internal/entity"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *entity.Competition) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Competition, error)
	FindAll(ctx context.Context) ([]entity.Competition, error)
	CreateEntry(ctx context.Context, entry *entity.CompetitionEntry) error
	// AddResults increments the user's entry; ErrNotFound when they never entered.
	AddResults(ctx context.Context, competitionID, userID uuid.UUID, wins, losses int) (*entity.CompetitionEntry, error)
	// Standings orders by wins desc, losses asc, then entry time.
	Standings(ctx context.Context, competitionID uuid.UUID) ([]entity.CompetitionEntry, error)
}

type competitionRepository struct {
	db *gorm.DB
}

func NewCompetitionRepository(db *gorm.DB) CompetitionRepository {
	return &competitionRepository{db: db}
}

func (r *competitionRepository) Create(ctx context.Context, competition *entity.Competition) error {
	return r.db.WithContext(ctx).Create(competition).Error
}

func (r *competitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Competition, error) {
	var competition entity.Competition
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&competition).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("competition %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &competition, nil
}

func (r *competitionRepository) FindAll(ctx context.Context) ([]entity.Competition, error) {
	var competitions []entity.Competition
	err := r.db.WithContext(ctx).Order("starts_at DESC").Find(&competitions).Error
	return competitions, err
}

func (r *competitionRepository) CreateEntry(ctx context.Context, entry *entity.CompetitionEntry) error {
	if err := r.db.WithContext(ctx).Omit("Competition", "User", "Deck").Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("already entered this competition: %w", apperror.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *competitionRepository) AddResults(ctx context.Context, competitionID, userID uuid.UUID, wins, losses int) (*entity.CompetitionEntry, error) {
	var entry entity.CompetitionEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.CompetitionEntry{}).
			Where("competition_id = ? AND user_id = ?", competitionID, userID).
			Updates(map[string]interface{}{
				"wins":   gorm.Expr("wins + ?", wins),
				"losses": gorm.Expr("losses + ?", losses),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("you have not entered this competition: %w", apperror.ErrNotFound)
		}
		return tx.Where("competition_id = ? AND user_id = ?", competitionID, userID).First(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *competitionRepository) Standings(ctx context.Context, competitionID uuid.UUID) ([]entity.CompetitionEntry, error) {
	var entries []entity.CompetitionEntry
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Deck").
		Where("competition_id = ?", competitionID).
		Order("wins DESC, losses ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}
