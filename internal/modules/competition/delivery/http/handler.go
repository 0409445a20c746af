package http

import (
	"net/http"

	competitionDto "algomancy.gg/deckhub/internal/modules/competition/dto"
	competition "algomancy.gg/deckhub/internal/modules/competition/service"
	"algomancy.gg/deckhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type CompetitionHandler struct {
	service competition.CompetitionService
}

func NewCompetitionHandler(service competition.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{service: service}
}

func (h *CompetitionHandler) CreateCompetition(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req competitionDto.CreateCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.CreateCompetition(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (h *CompetitionHandler) ListCompetitions(c *gin.Context) {
	res, err := h.service.ListCompetitions(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *CompetitionHandler) EnterCompetition(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	competitionID, err := response.ParseUUIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req competitionDto.EnterCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.EnterCompetition(c.Request.Context(), userID, competitionID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (h *CompetitionHandler) ReportResults(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	competitionID, err := response.ParseUUIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req competitionDto.ReportResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ReportResults(c.Request.Context(), userID, competitionID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *CompetitionHandler) GetStandings(c *gin.Context) {
	competitionID, err := response.ParseUUIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.GetStandings(c.Request.Context(), competitionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}
