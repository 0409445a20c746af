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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindBySubject(ctx context.Context, subject string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	CountPublicDecks(ctx context.Context, userID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create returns ErrConflict when the subject or username is already taken.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %q: %w", user.Username, apperror.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindBySubject(ctx context.Context, subject string) (*entity.User, error) {
	return r.first(ctx, "subject = ?", subject)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "LOWER(username) = LOWER(?)", username)
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&count).Error
	return count > 0, err
}

// Update never touches achievement_xp; that column belongs to the XP refresh.
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select("username", "avatar_url", "role").
		Updates(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("username %q: %w", user.Username, apperror.ErrConflict)
	}
	return err
}

func (r *userRepository) CountPublicDecks(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Deck{}).Where("user_id = ? AND is_public = ?", userID, true).Count(&count).Error
	return count, err
}
