package dto

import (
	"time"

	commonDto "algomancy.gg/deckhub/pkg/dto"
)

type SubmitLogRequest struct {
	DeckID   *string                `json:"deck_id" binding:"omitempty,uuid"`
	Opponent string                 `json:"opponent" binding:"max=80"`
	Result   string                 `json:"result" binding:"required,oneof=win loss draw abandoned"`
	Turns    int                    `json:"turns" binding:"min=0,max=1000"`
	Format   string                 `json:"format" binding:"max=40"`
	Notes    string                 `json:"notes" binding:"max=2000"`
	Payload  map[string]interface{} `json:"payload"`
}

type GameLogResponse struct {
	ID        string                 `json:"id"`
	DeckID    *string                `json:"deck_id,omitempty"`
	Opponent  string                 `json:"opponent"`
	Result    string                 `json:"result"`
	Turns     int                    `json:"turns"`
	Format    string                 `json:"format,omitempty"`
	Notes     string                 `json:"notes,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Qualifies bool                   `json:"qualifies"`
	CreatedAt time.Time              `json:"created_at"`
}

type GameLogListResponse struct {
	Data []GameLogResponse        `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
