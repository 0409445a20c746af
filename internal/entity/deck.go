package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Deck struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_decks_user_created,priority:1" json:"user_id"`
	User          User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name          string     `gorm:"size:80;not null" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	Elements      []string   `gorm:"serializer:json;type:jsonb" json:"elements"`
	IsPublic      bool       `gorm:"not null;default:true;index" json:"is_public"`
	CoverImageURL *string    `gorm:"type:text" json:"cover_image_url,omitempty"`
	Views         int        `gorm:"not null;default:0" json:"views"`
	LikesCount    int        `gorm:"not null;default:0" json:"likes_count"`
	Cards         []DeckCard `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE" json:"cards"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index:idx_decks_user_created,priority:2" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Deck) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID, err = uuid.NewV7()
	}
	return
}

// CardTotal is the number of physical cards in the deck.
func (d *Deck) CardTotal() int {
	total := 0
	for _, c := range d.Cards {
		total += c.Quantity
	}
	return total
}

type DeckCard struct {
	DeckID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CardID   string    `gorm:"size:80;primaryKey" json:"card_id"`
	Card     Card      `gorm:"foreignKey:CardID;constraint:OnDelete:RESTRICT" json:"card"`
	Quantity int       `gorm:"not null" json:"quantity"`
}

// DeckLike is unique per (deck, user).
type DeckLike struct {
	DeckID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"deck_id"`
	Deck      Deck      `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
