package http

import (
	"net/http"

	gameLogDto "algomancy.gg/deckhub/internal/modules/gamelog/dto"
	gamelog "algomancy.gg/deckhub/internal/modules/gamelog/service"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"algomancy.gg/deckhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type GameLogHandler struct {
	service gamelog.GameLogService
}

func NewGameLogHandler(service gamelog.GameLogService) *GameLogHandler {
	return &GameLogHandler{service: service}
}

func (h *GameLogHandler) SubmitLog(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req gameLogDto.SubmitLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.SubmitLog(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (h *GameLogHandler) ListMyLogs(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var page commonDto.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListMyLogs(c.Request.Context(), userID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
