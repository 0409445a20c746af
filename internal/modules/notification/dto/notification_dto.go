package dto

import (
	"time"

	commonDto "algomancy.gg/deckhub/pkg/dto"
	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID         uuid.UUID                 `json:"id"`
	Actor      *commonDto.AuthorResponse `json:"actor,omitempty"`
	EntityID   uuid.UUID                 `json:"entity_id"`
	EntityType string                    `json:"entity_type"`
	Type       string                    `json:"type"`
	Message    string                    `json:"message"`
	IsRead     bool                      `json:"is_read"`
	CreatedAt  time.Time                 `json:"created_at"`
}

type NotificationListResponse struct {
	Data []NotificationResponse   `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
