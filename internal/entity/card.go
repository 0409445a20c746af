package entity

import "time"

// Card is a catalogue entry. ID is a stable slug shared with the tabletop
// exporter and the card image CDN.
type Card struct {
	ID        string    `gorm:"size:80;primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null;index" json:"name"`
	Element   string    `gorm:"size:30;index" json:"element"`
	CardType  string    `gorm:"size:30;index" json:"card_type"`
	Cost      int       `gorm:"not null;default:0" json:"cost"`
	Power     *int      `json:"power,omitempty"`
	Toughness *int      `json:"toughness,omitempty"`
	Text      string    `gorm:"type:text" json:"text"`
	ImageURL  *string   `gorm:"type:text" json:"image_url,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
