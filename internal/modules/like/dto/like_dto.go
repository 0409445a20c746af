package dto

import "github.com/google/uuid"

type LikeResponse struct {
	DeckID     uuid.UUID `json:"deck_id"`
	Liked      bool      `json:"liked"`
	LikesCount int       `json:"likes_count"`
}
