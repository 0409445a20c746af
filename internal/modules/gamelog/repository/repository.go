package repository

import (
	"context"
	"fmt"

	"algomancy.gg/deckhub/internal/entity"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "game_logs"

type GameLogRepository interface {
	Create(ctx context.Context, log *entity.GameLog) error
	// FindByUserID returns a page of the user's logs, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]entity.GameLog, int64, error)
	CountQualifying(ctx context.Context, userID uuid.UUID) (int, error)
	EnsureIndexes(ctx context.Context) error
}

type gameLogRepository struct {
	coll *mongo.Collection
}

func NewGameLogRepository(db *mongo.Database) GameLogRepository {
	return &gameLogRepository{coll: db.Collection(Collection)}
}

func (r *gameLogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "result", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create game log indexes: %w", err)
	}
	return nil
}

func (r *gameLogRepository) Create(ctx context.Context, log *entity.GameLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to insert game log: %w", err)
	}
	return nil
}

func (r *gameLogRepository) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]entity.GameLog, int64, error) {
	filter := bson.M{"userId": userID.String()}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count game logs: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find game logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := []entity.GameLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode game logs: %w", err)
	}
	return logs, total, nil
}

func (r *gameLogRepository) CountQualifying(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"userId": userID.String(),
		"result": bson.M{"$in": entity.QualifyingGameResults},
	})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
