package repository

import (
	"context"
	"testing"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestGameLogRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns an id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewGameLogRepository(mt.DB)

		log := &entity.GameLog{UserID: uuid.NewString(), Result: entity.GameResultWin, CreatedAt: time.Now()}
		require.NoError(t, repo.Create(context.Background(), log))
		assert.False(t, log.ID.IsZero())
	})

	mt.Run("count qualifying", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + Collection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))
		repo := NewGameLogRepository(mt.DB)

		n, err := repo.CountQualifying(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	mt.Run("count surfaces server errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Message: "interrupted"}))
		repo := NewGameLogRepository(mt.DB)

		_, err := repo.CountQualifying(context.Background(), uuid.New())
		assert.Error(t, err)
	})
}
