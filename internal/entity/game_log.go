package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	GameResultWin       = "win"
	GameResultLoss      = "loss"
	GameResultDraw      = "draw"
	GameResultAbandoned = "abandoned"
)

// QualifyingGameResults are the outcomes that earn log XP. Abandoned games do
// not count.
var QualifyingGameResults = []string{GameResultWin, GameResultLoss, GameResultDraw}

// GameLog lives in MongoDB; the payload is whatever the tabletop client sent.
type GameLog struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID    string                 `bson:"userId" json:"user_id"`
	DeckID    *string                `bson:"deckId,omitempty" json:"deck_id,omitempty"`
	Opponent  string                 `bson:"opponent" json:"opponent"`
	Result    string                 `bson:"result" json:"result"`
	Turns     int                    `bson:"turns" json:"turns"`
	Format    string                 `bson:"format,omitempty" json:"format,omitempty"`
	Notes     string                 `bson:"notes,omitempty" json:"notes,omitempty"`
	Payload   map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt time.Time              `bson:"createdAt" json:"created_at"`
}

// Qualifies reports whether the log counts towards log XP.
func (l *GameLog) Qualifies() bool {
	for _, r := range QualifyingGameResults {
		if l.Result == r {
			return true
		}
	}
	return false
}
