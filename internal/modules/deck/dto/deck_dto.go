package dto

import (
	"io"
	"time"

	commonDto "algomancy.gg/deckhub/pkg/dto"
	"github.com/google/uuid"
)

const (
	SortNewest  = "newest"
	SortPopular = "popular"
	SortLiked   = "liked"
)

type DeckCardInput struct {
	CardID   string `json:"card_id" binding:"required,max=80"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=4"`
}

type CreateDeckRequest struct {
	Name        string          `json:"name" binding:"required,max=80"`
	Description string          `json:"description" binding:"max=5000"`
	IsPublic    *bool           `json:"is_public"`
	Cards       []DeckCardInput `json:"cards" binding:"required,min=1,max=60,dive"`
}

type UpdateDeckRequest struct {
	Name        string          `json:"name" binding:"required,max=80"`
	Description string          `json:"description" binding:"max=5000"`
	IsPublic    *bool           `json:"is_public"`
	Cards       []DeckCardInput `json:"cards" binding:"required,min=1,max=60,dive"`
}

type DeckFilter struct {
	commonDto.Pagination
	Search  string `form:"q" binding:"omitempty,max=80"`
	Element string `form:"element" binding:"omitempty,max=30"`
	SortBy  string `form:"sort" binding:"omitempty,oneof=newest popular liked"`
}

// CoverFile is an uploaded cover image.
type CoverFile struct {
	Reader   io.Reader
	FileName string
}

type DeckCardResponse struct {
	CardID   string  `json:"card_id"`
	Name     string  `json:"name"`
	Element  string  `json:"element"`
	CardType string  `json:"card_type"`
	Cost     int     `json:"cost"`
	ImageURL *string `json:"image_url,omitempty"`
	Quantity int     `json:"quantity"`
}

type DeckResponse struct {
	ID            uuid.UUID                `json:"id"`
	Name          string                   `json:"name"`
	Description   string                   `json:"description"`
	Elements      []string                 `json:"elements"`
	IsPublic      bool                     `json:"is_public"`
	CoverImageURL *string                  `json:"cover_image_url"`
	Views         int                      `json:"views"`
	LikesCount    int                      `json:"likes_count"`
	LikedByMe     bool                     `json:"liked_by_me"`
	CardCount     int                      `json:"card_count"`
	Author        commonDto.AuthorResponse `json:"author"`
	Cards         []DeckCardResponse       `json:"cards,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type PaginatedDeckResponse struct {
	Data []DeckResponse           `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
