package dto

import (
	"io"
	"time"

	commonDto "algomancy.gg/deckhub/pkg/dto"
	"github.com/google/uuid"
)

// Identity is what the auth middleware extracts from a verified token.
type Identity struct {
	Subject   string
	Username  string
	AvatarURL *string
	Role      string
}

// AvatarFile is an uploaded avatar image.
type AvatarFile struct {
	Reader   io.Reader
	FileName string
}

type UpdateProfileInput struct {
	Username *string `form:"username" binding:"omitempty,min=3,max=50"`
}

type UserResponse struct {
	ID            uuid.UUID            `json:"id"`
	Username      string               `json:"username"`
	AvatarURL     *string              `json:"avatar_url"`
	Role          string               `json:"role"`
	AchievementXP int                  `json:"achievement_xp"`
	Status        commonDto.RankStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

type PublicProfileResponse struct {
	Username      string               `json:"username"`
	AvatarURL     *string              `json:"avatar_url"`
	AchievementXP int                  `json:"achievement_xp"`
	Status        commonDto.RankStatus `json:"status"`
	PublicDecks   int64                `json:"public_decks"`
	JoinedAt      time.Time            `json:"joined_at"`
}
