package http

import (
	"net/http"
	"strconv"

	achievementDto "algomancy.gg/deckhub/internal/modules/achievement/dto"
	achievement "algomancy.gg/deckhub/internal/modules/achievement/service"
	"algomancy.gg/deckhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AchievementHandler struct {
	service achievement.AchievementService
}

func NewAchievementHandler(service achievement.AchievementService) *AchievementHandler {
	return &AchievementHandler{service: service}
}

func (h *AchievementHandler) GetMyAchievements(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.GetAchievements(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

// RefreshMine recomputes the caller's XP synchronously.
func (h *AchievementHandler) RefreshMine(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	h.refresh(c, userID)
}

func (h *AchievementHandler) RefreshUser(c *gin.Context) {
	userID, err := response.ParseUUIDParam(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	h.refresh(c, userID)
}

func (h *AchievementHandler) refresh(c *gin.Context, userID uuid.UUID) {
	xp, err := h.service.RefreshUserXP(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": achievementDto.RefreshResponse{
		UserID:        userID,
		AchievementXP: xp,
		Status:        achievement.StatusForXP(xp),
	}})
}

func (h *AchievementHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	entries, err := h.service.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *AchievementHandler) GetRanks(c *gin.Context) {
	ranks := achievement.Ranks()
	out := make([]achievementDto.RankResponse, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, achievementDto.RankResponse{
			Key:   r.Key,
			Name:  r.Name,
			MinXP: r.MinXP,
			MaxXP: r.MaxXP,
		})
	}

	rates := h.service.Rates()
	c.JSON(http.StatusOK, gin.H{
		"data": out,
		"rates": gin.H{
			"like_xp":               rates.LikeXP,
			"deck_create_xp":        rates.DeckCreateXP,
			"deck_create_daily_cap": rates.DeckCreateDailyCap,
			"log_xp":                rates.LogXP,
		},
	})
}
