package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Competition struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Format      string    `gorm:"size:40" json:"format"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt      time.Time `gorm:"not null;index" json:"ends_at"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Competition) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// IsOpen reports whether entries and results are accepted at t.
func (c *Competition) IsOpen(t time.Time) bool {
	return !t.Before(c.StartsAt) && t.Before(c.EndsAt)
}

type CompetitionEntry struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CompetitionID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_competition_entry_user,priority:1" json:"competition_id"`
	Competition   Competition `gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE" json:"-"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_competition_entry_user,priority:2" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID" json:"-"`
	DeckID        uuid.UUID   `gorm:"type:uuid;not null" json:"deck_id"`
	Deck          Deck        `gorm:"foreignKey:DeckID" json:"-"`
	Wins          int         `gorm:"not null;default:0" json:"wins"`
	Losses        int         `gorm:"not null;default:0" json:"losses"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (e *CompetitionEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID, err = uuid.NewV7()
	}
	return
}
