package like

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	deckRepo "algomancy.gg/deckhub/internal/modules/deck/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecks struct {
	deckRepo.DeckRepository
	decks map[uuid.UUID]*entity.Deck
}

func (s *stubDecks) FindByID(_ context.Context, id uuid.UUID) (*entity.Deck, error) {
	d, ok := s.decks[id]
	if !ok {
		return nil, fmt.Errorf("deck %s: %w", id, apperror.ErrNotFound)
	}
	return d, nil
}

type memLikes struct {
	mu    sync.Mutex
	likes map[[2]uuid.UUID]bool
	count map[uuid.UUID]int
	err   error
}

func (m *memLikes) ToggleLike(_ context.Context, deckID, userID uuid.UUID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, 0, m.err
	}
	k := [2]uuid.UUID{deckID, userID}
	if m.likes[k] {
		delete(m.likes, k)
		m.count[deckID]--
		return false, m.count[deckID], nil
	}
	m.likes[k] = true
	m.count[deckID]++
	return true, m.count[deckID], nil
}

type recordingNotifier struct {
	sent []*entity.Notification
}

func (r *recordingNotifier) CreateNotification(_ context.Context, n *entity.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type recordingXP struct {
	users []uuid.UUID
}

func (r *recordingXP) RefreshUserXPAsync(userID uuid.UUID) {
	r.users = append(r.users, userID)
}

type fixture struct {
	svc      LikeService
	decks    *stubDecks
	likes    *memLikes
	notifier *recordingNotifier
	xp       *recordingXP
	redis    *miniredis.Miniredis
	owner    uuid.UUID
	deckID   uuid.UUID
}

func newFixture(t *testing.T, rateLimit time.Duration) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		decks:    &stubDecks{decks: map[uuid.UUID]*entity.Deck{}},
		notifier: &recordingNotifier{},
		xp:       &recordingXP{},
		redis:    mr,
		owner:    uuid.New(),
		deckID:   uuid.New(),
	}
	f.decks.decks[f.deckID] = &entity.Deck{ID: f.deckID, UserID: f.owner, Name: "Tempo Water", IsPublic: true}

	f.likes = &memLikes{likes: map[[2]uuid.UUID]bool{}, count: map[uuid.UUID]int{}}
	f.svc = NewLikeService(f.likes, f.decks, f.notifier, f.xp, rdb, rateLimit, nil)
	return f
}

func TestToggleLike_AddThenRemove(t *testing.T) {
	f := newFixture(t, 0)
	fan := uuid.New()

	res, err := f.svc.ToggleLike(context.Background(), fan, f.deckID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.LikesCount)

	res, err = f.svc.ToggleLike(context.Background(), fan, f.deckID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.LikesCount)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, entity.NotificationDeckLiked, f.notifier.sent[0].Type)
	assert.Equal(t, f.owner, f.notifier.sent[0].UserID)
	assert.Equal(t, fan, f.notifier.sent[0].ActorID)

	assert.Equal(t, []uuid.UUID{f.owner, f.owner}, f.xp.users)
}

func TestToggleLike_OwnDeckForbidden(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.ToggleLike(context.Background(), f.owner, f.deckID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Empty(t, f.xp.users)
}

func TestToggleLike_PrivateDeckNotFound(t *testing.T) {
	f := newFixture(t, 0)
	f.decks.decks[f.deckID].IsPublic = false

	_, err := f.svc.ToggleLike(context.Background(), uuid.New(), f.deckID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestToggleLike_RateLimitedPerDeck(t *testing.T) {
	f := newFixture(t, 3*time.Second)
	fan := uuid.New()
	otherDeck := uuid.New()
	f.decks.decks[otherDeck] = &entity.Deck{ID: otherDeck, UserID: f.owner, Name: "Other", IsPublic: true}

	_, err := f.svc.ToggleLike(context.Background(), fan, f.deckID)
	require.NoError(t, err)

	_, err = f.svc.ToggleLike(context.Background(), fan, f.deckID)
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	_, err = f.svc.ToggleLike(context.Background(), fan, otherDeck)
	assert.NoError(t, err)

	f.redis.FastForward(3 * time.Second)
	res, err := f.svc.ToggleLike(context.Background(), fan, f.deckID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
}

func TestToggleLike_FailedToggleReleasesLock(t *testing.T) {
	f := newFixture(t, time.Minute)
	fan := uuid.New()

	f.likes.err = fmt.Errorf("%w: connection reset", apperror.ErrDataUnavailable)
	_, err := f.svc.ToggleLike(context.Background(), fan, f.deckID)
	require.ErrorIs(t, err, apperror.ErrDataUnavailable)
	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.xp.users)

	f.likes.err = nil
	res, err := f.svc.ToggleLike(context.Background(), fan, f.deckID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ééé...", truncate("éééé", 3))
}
