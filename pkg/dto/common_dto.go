package dto

import "github.com/google/uuid"

type AuthorResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
}

type Pagination struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Normalize fills defaults and returns the row offset.
func (p *Pagination) Normalize() int {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 50 {
		p.Limit = 50
	}
	return (p.Page - 1) * p.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
	}
}

// RankStatus is the presentation of a user's achievement XP.
// Progress is a fraction in [0,1]; the top tier always reports 1.
type RankStatus struct {
	RankKey      string  `json:"rank_key"`
	RankName     string  `json:"rank_name"`
	CurrentXP    int     `json:"current_xp"`
	RankMinXP    int     `json:"rank_min_xp"`
	NextRankKey  *string `json:"next_rank_key"`
	NextRankName *string `json:"next_rank_name"`
	NextRankXP   *int    `json:"next_rank_xp"`
	Progress     float64 `json:"progress"`
}
