package dto

import (
	"time"

	commonDto "algomancy.gg/deckhub/pkg/dto"
	"github.com/google/uuid"
)

// DeckCount is the number of decks a user created on one calendar day (UTC).
type DeckCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// BonusBreakdown splits bonus XP by source. TotalBonusXP is always the sum
// of the three parts.
type BonusBreakdown struct {
	LikeXP       int `json:"like_xp"`
	DeckXP       int `json:"deck_xp"`
	LogXP        int `json:"log_xp"`
	TotalBonusXP int `json:"total_bonus_xp"`
}

type AchievementResponse struct {
	UserID        uuid.UUID            `json:"user_id"`
	AchievementXP int                  `json:"achievement_xp"`
	Status        commonDto.RankStatus `json:"status"`
	Breakdown     BonusBreakdown       `json:"breakdown"`
}

type RefreshResponse struct {
	UserID        uuid.UUID            `json:"user_id"`
	AchievementXP int                  `json:"achievement_xp"`
	Status        commonDto.RankStatus `json:"status"`
}

type LeaderboardEntry struct {
	Username  string               `json:"username"`
	AvatarURL *string              `json:"avatar_url,omitempty"`
	Position  int                  `json:"position"`
	Status    commonDto.RankStatus `json:"status"`
}

type RankResponse struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	MinXP int    `json:"min_xp"`
	MaxXP *int   `json:"max_xp"`
}
