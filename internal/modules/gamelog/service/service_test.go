package gamelog

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	deckRepo "algomancy.gg/deckhub/internal/modules/deck/repository"
	gameLogDto "algomancy.gg/deckhub/internal/modules/gamelog/dto"
	"algomancy.gg/deckhub/pkg/apperror"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memLogs struct {
	logs      []entity.GameLog
	createErr error
}

func (m *memLogs) Create(_ context.Context, log *entity.GameLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	log.ID = primitive.NewObjectID()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memLogs) FindByUserID(_ context.Context, userID uuid.UUID, offset, limit int) ([]entity.GameLog, int64, error) {
	var out []entity.GameLog
	for _, l := range m.logs {
		if l.UserID == userID.String() {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return []entity.GameLog{}, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *memLogs) CountQualifying(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, l := range m.logs {
		if l.UserID == userID.String() && l.Qualifies() {
			n++
		}
	}
	return n, nil
}

func (m *memLogs) EnsureIndexes(context.Context) error { return nil }

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

type recordingXP struct {
	users []uuid.UUID
}

func (r *recordingXP) RefreshUserXPAsync(userID uuid.UUID) {
	r.users = append(r.users, userID)
}

func newService(t *testing.T, rateLimit time.Duration) (*gameLogService, *memLogs, *stubDecks, *recordingXP) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logs := &memLogs{}
	decks := &stubDecks{decks: map[uuid.UUID]*entity.Deck{}}
	xp := &recordingXP{}
	svc := NewGameLogService(logs, decks, xp, rdb, rateLimit, nil).(*gameLogService)
	return svc, logs, decks, xp
}

func strPtr(s string) *string { return &s }

func TestSubmitLog(t *testing.T) {
	svc, logs, decks, xp := newService(t, 0)
	userID := uuid.New()
	deckID := uuid.New()
	decks.decks[deckID] = &entity.Deck{ID: deckID, UserID: userID}

	res, err := svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{
		DeckID:   strPtr(deckID.String()),
		Opponent: "  rival ",
		Result:   "WIN",
		Turns:    9,
	})
	require.NoError(t, err)
	assert.Equal(t, "win", res.Result)
	assert.Equal(t, "rival", res.Opponent)
	assert.True(t, res.Qualifies)
	require.NotNil(t, res.DeckID)
	assert.Equal(t, deckID.String(), *res.DeckID)
	assert.Len(t, logs.logs, 1)
	assert.Equal(t, []uuid.UUID{userID}, xp.users)
}

func TestSubmitLog_AbandonedDoesNotRefreshXP(t *testing.T) {
	svc, _, _, xp := newService(t, 0)

	res, err := svc.SubmitLog(context.Background(), uuid.New(), gameLogDto.SubmitLogRequest{Result: "abandoned"})
	require.NoError(t, err)
	assert.False(t, res.Qualifies)
	assert.Empty(t, xp.users)
}

func TestSubmitLog_Validation(t *testing.T) {
	svc, logs, decks, _ := newService(t, 0)
	userID := uuid.New()
	foreignDeck := uuid.New()
	decks.decks[foreignDeck] = &entity.Deck{ID: foreignDeck, UserID: uuid.New()}

	_, err := svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "victory"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "loss", Turns: -1})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "loss", DeckID: strPtr("nope")})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "loss", DeckID: strPtr(foreignDeck.String())})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "loss", DeckID: strPtr(uuid.NewString())})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Empty(t, logs.logs)
}

func TestSubmitLog_RateLimited(t *testing.T) {
	svc, _, _, _ := newService(t, 10*time.Second)
	userID := uuid.New()

	_, err := svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "draw"})
	require.NoError(t, err)

	_, err = svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "draw"})
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
}

func TestSubmitLog_FailedWriteReleasesLock(t *testing.T) {
	svc, logs, _, xp := newService(t, time.Minute)
	userID := uuid.New()

	logs.createErr = fmt.Errorf("%w: server selection timeout", apperror.ErrDataUnavailable)
	_, err := svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "win"})
	require.ErrorIs(t, err, apperror.ErrDataUnavailable)
	assert.Empty(t, xp.users)

	logs.createErr = nil
	_, err = svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: "win"})
	require.NoError(t, err)
	assert.Len(t, logs.logs, 1)
}

func TestSubmitLog_NoStore(t *testing.T) {
	svc := NewGameLogService(nil, nil, nil, nil, 0, nil)

	_, err := svc.SubmitLog(context.Background(), uuid.New(), gameLogDto.SubmitLogRequest{Result: "win"})
	assert.ErrorIs(t, err, apperror.ErrDataUnavailable)
	_, err = svc.ListMyLogs(context.Background(), uuid.New(), commonDto.Pagination{})
	assert.ErrorIs(t, err, apperror.ErrDataUnavailable)
}

func TestListMyLogs_NewestFirst(t *testing.T) {
	svc, _, _, _ := newService(t, 0)
	userID := uuid.New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, result := range []string{"win", "loss", "draw"} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		_, err := svc.SubmitLog(context.Background(), userID, gameLogDto.SubmitLogRequest{Result: result})
		require.NoError(t, err)
	}
	_, err := svc.SubmitLog(context.Background(), uuid.New(), gameLogDto.SubmitLogRequest{Result: "win"})
	require.NoError(t, err)

	res, err := svc.ListMyLogs(context.Background(), userID, commonDto.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "draw", res.Data[0].Result)
	assert.Equal(t, "loss", res.Data[1].Result)
	assert.Equal(t, int64(3), res.Meta.TotalItems)
	assert.Equal(t, 2, res.Meta.TotalPages)
}
