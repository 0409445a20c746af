package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCompetitionRequest struct {
	Name        string    `json:"name" binding:"required,max=120"`
	Description string    `json:"description" binding:"max=5000"`
	Format      string    `json:"format" binding:"max=40"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required,gtfield=StartsAt"`
}

type EnterCompetitionRequest struct {
	DeckID uuid.UUID `json:"deck_id" binding:"required"`
}

type ReportResultRequest struct {
	Wins   int `json:"wins" binding:"min=0,max=100"`
	Losses int `json:"losses" binding:"min=0,max=100"`
}

type CompetitionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Format      string    `json:"format"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsOpen      bool      `json:"is_open"`
	CreatedAt   time.Time `json:"created_at"`
}

type EntryResponse struct {
	ID            uuid.UUID `json:"id"`
	CompetitionID uuid.UUID `json:"competition_id"`
	DeckID        uuid.UUID `json:"deck_id"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	CreatedAt     time.Time `json:"created_at"`
}

type StandingResponse struct {
	Position  int       `json:"position"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	DeckID    uuid.UUID `json:"deck_id"`
	DeckName  string    `json:"deck_name"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	EnteredAt time.Time `json:"entered_at"`
}
