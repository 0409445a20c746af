package http

import (
	"net/http"

	like "algomancy.gg/deckhub/internal/modules/like/service"
	"algomancy.gg/deckhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	service like.LikeService
}

func NewLikeHandler(service like.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) ToggleLike(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	deckID, err := response.ParseUUIDParam(c, "deck_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.ToggleLike(c.Request.Context(), userID, deckID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}
