package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	notifDto "algomancy.gg/deckhub/internal/modules/notification/dto"
	"algomancy.gg/deckhub/pkg/apperror"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	items []entity.Notification
}

func (m *memRepo) Create(_ context.Context, n *entity.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	m.items = append(m.items, *n)
	return nil
}

func (m *memRepo) GetByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	var out []entity.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, item := range m.items {
		if item.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) MarkAsRead(_ context.Context, userID, id uuid.UUID) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) MarkAllAsRead(_ context.Context, userID uuid.UUID) error {
	for i := range m.items {
		if m.items[i].UserID == userID {
			m.items[i].IsRead = true
		}
	}
	return nil
}

func (m *memRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func TestCreateNotification_PublishesToUserChannel(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userID := uuid.New()
	sub := rdb.Subscribe(ctx, Channel(userID))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	svc := NewNotificationService(&memRepo{}, rdb, nil)
	require.NoError(t, svc.CreateNotification(ctx, &entity.Notification{
		UserID:  userID,
		ActorID: uuid.New(),
		Type:    entity.NotificationDeckLiked,
		Message: "someone liked your deck",
	}))

	select {
	case msg := <-sub.Channel():
		var got notifDto.NotificationResponse
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, entity.NotificationDeckLiked, got.Type)
		assert.Equal(t, "someone liked your deck", got.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}
}

func TestCreateNotification_WithoutRedis(t *testing.T) {
	repo := &memRepo{}
	svc := NewNotificationService(repo, nil, nil)

	require.NoError(t, svc.CreateNotification(context.Background(), &entity.Notification{UserID: uuid.New()}))
	assert.Len(t, repo.items, 1)
}

func TestReadState(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	svc := NewNotificationService(repo, nil, nil)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.CreateNotification(ctx, &entity.Notification{UserID: userID}))
	}
	require.NoError(t, svc.CreateNotification(ctx, &entity.Notification{UserID: uuid.New()}))

	count, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, svc.MarkAsRead(ctx, userID, repo.items[0].ID))
	count, _ = svc.UnreadCount(ctx, userID)
	assert.Equal(t, int64(2), count)

	err = svc.MarkAsRead(ctx, userID, repo.items[3].ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "other users' notifications are invisible")

	require.NoError(t, svc.MarkAllAsRead(ctx, userID))
	count, _ = svc.UnreadCount(ctx, userID)
	assert.Equal(t, int64(0), count)

	list, err := svc.GetNotifications(ctx, userID, commonDto.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, int64(3), list.Meta.TotalItems)
	assert.Equal(t, 2, list.Meta.TotalPages)
}
