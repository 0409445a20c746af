package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"algomancy.gg/deckhub/internal/entity"
	achievement "algomancy.gg/deckhub/internal/modules/achievement/service"
	userDto "algomancy.gg/deckhub/internal/modules/user/dto"
	userRepo "algomancy.gg/deckhub/internal/modules/user/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	"algomancy.gg/deckhub/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxUsernameLen      = 50
	usernameRetries     = 5
	defaultUsernameBase = "player"
)

var invalidUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

type UserService interface {
	// EnsureUser returns the local user for a verified identity, creating it
	// on first sight.
	EnsureUser(ctx context.Context, identity userDto.Identity) (*entity.User, error)
	GetMe(ctx context.Context, userID uuid.UUID) (*userDto.UserResponse, error)
	GetProfile(ctx context.Context, username string) (*userDto.PublicProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input userDto.UpdateProfileInput, avatar *userDto.AvatarFile) (*userDto.UserResponse, error)
}

type userService struct {
	repo         userRepo.UserRepository
	imageStorage storage.ImageStorage
	log          *zap.Logger
}

func NewUserService(repo userRepo.UserRepository, imageStorage storage.ImageStorage, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{
		repo:         repo,
		imageStorage: imageStorage,
		log:          log.Named("user"),
	}
}

// SanitizeUsername maps provider display names onto the local username
// alphabet.
func SanitizeUsername(raw string) string {
	name := strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")
	name = invalidUsernameChars.ReplaceAllString(name, "")
	if len(name) > maxUsernameLen {
		name = name[:maxUsernameLen]
	}
	if len(name) < 3 {
		return defaultUsernameBase
	}
	return name
}

func (s *userService) EnsureUser(ctx context.Context, identity userDto.Identity) (*entity.User, error) {
	if strings.TrimSpace(identity.Subject) == "" {
		return nil, fmt.Errorf("missing subject: %w", apperror.ErrUnauthorized)
	}

	user, err := s.repo.FindBySubject(ctx, identity.Subject)
	if err == nil {
		return s.syncRole(ctx, user, identity.Role)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	username, err := s.availableUsername(ctx, identity.Username)
	if err != nil {
		return nil, err
	}

	role := entity.RolePlayer
	if identity.Role == entity.RoleAdmin {
		role = entity.RoleAdmin
	}

	user = &entity.User{
		Subject:   identity.Subject,
		Username:  username,
		AvatarURL: identity.AvatarURL,
		Role:      role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Another request created the same subject first.
			return s.repo.FindBySubject(ctx, identity.Subject)
		}
		return nil, err
	}

	s.log.Info("user created", zap.Stringer("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// syncRole applies role changes made at the auth provider.
func (s *userService) syncRole(ctx context.Context, user *entity.User, role string) (*entity.User, error) {
	if role == "" || role == user.Role || (role != entity.RoleAdmin && role != entity.RolePlayer) {
		return user, nil
	}
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) availableUsername(ctx context.Context, raw string) (string, error) {
	base := SanitizeUsername(raw)
	candidate := base
	for i := 0; i < usernameRetries; i++ {
		exists, err := s.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := "_" + uuid.NewString()[:6]
		if len(base)+len(suffix) > maxUsernameLen {
			base = base[:maxUsernameLen-len(suffix)]
		}
		candidate = base + suffix
	}
	return "", fmt.Errorf("no free username for %q: %w", raw, apperror.ErrConflict)
}

func toUserResponse(user *entity.User) *userDto.UserResponse {
	return &userDto.UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		AvatarURL:     user.AvatarURL,
		Role:          user.Role,
		AchievementXP: user.AchievementXP,
		Status:        achievement.StatusForXP(user.AchievementXP),
		CreatedAt:     user.CreatedAt,
	}
}

func (s *userService) GetMe(ctx context.Context, userID uuid.UUID) (*userDto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) GetProfile(ctx context.Context, username string) (*userDto.PublicProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	decks, err := s.repo.CountPublicDecks(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &userDto.PublicProfileResponse{
		Username:      user.Username,
		AvatarURL:     user.AvatarURL,
		AchievementXP: user.AchievementXP,
		Status:        achievement.StatusForXP(user.AchievementXP),
		PublicDecks:   decks,
		JoinedAt:      user.CreatedAt,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input userDto.UpdateProfileInput, avatar *userDto.AvatarFile) (*userDto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != "" && *input.Username != user.Username {
		username := strings.ReplaceAll(strings.TrimSpace(*input.Username), " ", "_")
		if invalidUsernameChars.MatchString(username) || len(username) < 3 || len(username) > maxUsernameLen {
			return nil, fmt.Errorf("username may only contain letters, digits, _ and -: %w", apperror.ErrInvalidInput)
		}
		exists, err := s.repo.UsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if exists && !strings.EqualFold(username, user.Username) {
			return nil, fmt.Errorf("username already taken: %w", apperror.ErrConflict)
		}
		user.Username = username
	}

	var oldAvatar *string
	if avatar != nil && avatar.Reader != nil {
		if s.imageStorage == nil {
			return nil, fmt.Errorf("image uploads are disabled: %w", apperror.ErrBadRequest)
		}
		if !storage.IsImageFile(avatar.FileName) {
			return nil, fmt.Errorf("avatar must be an image: %w", apperror.ErrInvalidInput)
		}
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, "avatars", avatar.FileName)
		if err != nil {
			return nil, err
		}
		oldAvatar = user.AvatarURL
		user.AvatarURL = &url
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if oldAvatar != nil && s.imageStorage != nil {
		if err := s.imageStorage.DeleteImage(ctx, *oldAvatar); err != nil {
			s.log.Debug("old avatar not deleted", zap.String("url", *oldAvatar), zap.Error(err))
		}
	}

	return toUserResponse(user), nil
}
