package repository

import (
	"context"
	"testing"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	"algomancy.gg/deckhub/internal/testutil/pgtest"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type countingLogs struct {
	n int
}

func (c countingLogs) CountQualifying(context.Context, uuid.UUID) (int, error) {
	return c.n, nil
}

func createUser(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	u := entity.User{Subject: "sub-" + name, Username: name}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func createDeck(t *testing.T, db *gorm.DB, owner uuid.UUID, createdAt time.Time) uuid.UUID {
	t.Helper()
	d := entity.Deck{UserID: owner, Name: "deck", IsPublic: true, CreatedAt: createdAt}
	require.NoError(t, db.Omit(clause.Associations).Create(&d).Error)
	return d.ID
}

func like(t *testing.T, db *gorm.DB, deckID, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Omit(clause.Associations).Create(&entity.DeckLike{DeckID: deckID, UserID: userID}).Error)
}

func TestFetchDeckCreationCountsByDay_GroupsByUTCDay(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewAchievementRepository(db, nil)
	owner := createUser(t, db, "builder")
	other := createUser(t, db, "someone")

	plus2 := time.FixedZone("UTC+2", 2*60*60)
	createDeck(t, db, owner, time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC))
	createDeck(t, db, owner, time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC))
	// 01:30 local is still March 1st in UTC.
	createDeck(t, db, owner, time.Date(2024, 3, 2, 1, 30, 0, 0, plus2))
	createDeck(t, db, other, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	counts, err := repo.FetchDeckCreationCountsByDay(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	assert.Equal(t, "2024-03-01", counts[0].Day.Format("2006-01-02"))
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, "2024-03-02", counts[1].Day.Format("2006-01-02"))
	assert.Equal(t, 1, counts[1].Count)
}

func TestFetchDeckCreationCountsByDay_NoDecks(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewAchievementRepository(db, nil)

	counts, err := repo.FetchDeckCreationCountsByDay(context.Background(), createUser(t, db, "newcomer"))
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestFetchTotalLikes_ExcludesSelfLikes(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewAchievementRepository(db, nil)
	owner := createUser(t, db, "owner")
	fanA := createUser(t, db, "fan_a")
	fanB := createUser(t, db, "fan_b")

	now := time.Now().UTC()
	deckA := createDeck(t, db, owner, now)
	deckB := createDeck(t, db, owner, now)
	fansDeck := createDeck(t, db, fanA, now)

	like(t, db, deckA, fanA)
	like(t, db, deckA, fanB)
	like(t, db, deckB, fanA)
	like(t, db, deckA, owner)
	like(t, db, fansDeck, owner)

	total, err := repo.FetchTotalLikes(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = repo.FetchTotalLikes(context.Background(), fanA)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestWriteAchievementXP(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewAchievementRepository(db, countingLogs{n: 4})
	ctx := context.Background()
	userID := createUser(t, db, "climber")

	require.NoError(t, repo.WriteAchievementXP(ctx, userID, 125))
	xp, err := repo.GetAchievementXP(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 125, xp)

	// Writing the same value still matches the row.
	require.NoError(t, repo.WriteAchievementXP(ctx, userID, 125))

	logs, err := repo.FetchQualifyingLogCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, logs)
}

func TestWriteAchievementXP_UnknownUser(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewAchievementRepository(db, nil)

	err := repo.WriteAchievementXP(context.Background(), uuid.New(), 10)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = repo.GetAchievementXP(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTopUsers(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewAchievementRepository(db, nil)
	ctx := context.Background()

	low := createUser(t, db, "low")
	high := createUser(t, db, "high")
	require.NoError(t, repo.WriteAchievementXP(ctx, low, 10))
	require.NoError(t, repo.WriteAchievementXP(ctx, high, 900))

	users, err := repo.TopUsers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, high, users[0].ID)

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{low, high}, ids)
}
