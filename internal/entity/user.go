package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

// User is the local record for an identity issued by the external auth
// provider. AchievementXP is only written by the XP refresh.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Subject       string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Username      string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	AvatarURL     *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	Role          string    `gorm:"size:20;not null;default:player" json:"role"`
	AchievementXP int       `gorm:"not null;default:0;index" json:"achievement_xp"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RolePlayer
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
