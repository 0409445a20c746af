package http

import (
	"net/http"

	searchService "algomancy.gg/deckhub/internal/modules/search/service"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service searchService.MeiliSearchService
}

func NewSearchHandler(service searchService.MeiliSearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// GetSearchToken returns a short-lived tenant token the client uses to query
// the deck index directly.
func (h *SearchHandler) GetSearchToken(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	token, err := h.service.GenerateSearchToken()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search token unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "index": searchService.DeckIndex})
}
