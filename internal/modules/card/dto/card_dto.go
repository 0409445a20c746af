package dto

import commonDto "algomancy.gg/deckhub/pkg/dto"

type CardFilter struct {
	commonDto.Pagination
	Element  string `form:"element"`
	CardType string `form:"type"`
	Search   string `form:"q" binding:"omitempty,max=80"`
}

type UpsertCardInput struct {
	ID        string  `json:"id" yaml:"id" binding:"required,max=80"`
	Name      string  `json:"name" yaml:"name" binding:"required,max=120"`
	Element   string  `json:"element" yaml:"element" binding:"required,max=30"`
	CardType  string  `json:"card_type" yaml:"card_type" binding:"required,max=30"`
	Cost      int     `json:"cost" yaml:"cost" binding:"min=0"`
	Power     *int    `json:"power" yaml:"power"`
	Toughness *int    `json:"toughness" yaml:"toughness"`
	Text      string  `json:"text" yaml:"text"`
	ImageURL  *string `json:"image_url" yaml:"image_url" binding:"omitempty,url"`
}

type UpsertCardsRequest struct {
	Cards []UpsertCardInput `json:"cards" binding:"required,min=1,max=1000,dive"`
}

type CardListResponse struct {
	Data interface{}              `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
