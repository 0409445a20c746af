package service

import (
	"context"
	"encoding/json"
	"fmt"

	"algomancy.gg/deckhub/internal/entity"
	notifDto "algomancy.gg/deckhub/internal/modules/notification/dto"
	notifRepo "algomancy.gg/deckhub/internal/modules/notification/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the redis pubsub channel carrying a user's live notifications.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, page commonDto.Pagination) (*notifDto.NotificationListResponse, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
	log         *zap.Logger
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client, log *zap.Logger) NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		log:         log.Named("notification"),
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(toResponse(notification))
		if err != nil {
			return nil
		}
		if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
			s.log.Warn("publish notification failed", zap.Stringer("user_id", notification.UserID), zap.Error(err))
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page commonDto.Pagination) (*notifDto.NotificationListResponse, error) {
	offset := page.Normalize()

	notifications, err := s.repo.GetByUserID(ctx, userID, page.Limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := make([]notifDto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		data = append(data, toResponse(&notifications[i]))
	}

	return &notifDto.NotificationListResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("notification %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func toResponse(n *entity.Notification) notifDto.NotificationResponse {
	res := notifDto.NotificationResponse{
		ID:         n.ID,
		EntityID:   n.EntityID,
		EntityType: n.EntityType,
		Type:       n.Type,
		Message:    n.Message,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
	}
	if n.Actor.ID != uuid.Nil {
		res.Actor = &commonDto.AuthorResponse{
			ID:        n.Actor.ID,
			Username:  n.Actor.Username,
			AvatarURL: n.Actor.AvatarURL,
		}
	}
	return res
}
