package http

import (
	"net/http"

	cardDto "algomancy.gg/deckhub/internal/modules/card/dto"
	card "algomancy.gg/deckhub/internal/modules/card/service"
	"algomancy.gg/deckhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type CardHandler struct {
	service card.CardService
}

func NewCardHandler(service card.CardService) *CardHandler {
	return &CardHandler{service: service}
}

func (h *CardHandler) ListCards(c *gin.Context) {
	var filter cardDto.CardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListCards(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CardHandler) GetCard(c *gin.Context) {
	res, err := h.service.GetCard(c.Request.Context(), c.Param("card_id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *CardHandler) UpsertCards(c *gin.Context) {
	var req cardDto.UpsertCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	count, err := h.service.UpsertCards(c.Request.Context(), req.Cards)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cards saved", "count": count})
}
