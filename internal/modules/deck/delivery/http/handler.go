package http

import (
	"net/http"

	"algomancy.gg/deckhub/internal/entity"
	deckDto "algomancy.gg/deckhub/internal/modules/deck/dto"
	deck "algomancy.gg/deckhub/internal/modules/deck/service"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"algomancy.gg/deckhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type DeckHandler struct {
	service deck.DeckService
}

func NewDeckHandler(service deck.DeckService) *DeckHandler {
	return &DeckHandler{service: service}
}

func viewerFromContext(c *gin.Context) *deck.Viewer {
	userID := response.GetOptionalUserID(c)
	if userID == nil {
		return nil
	}
	return &deck.Viewer{ID: *userID, IsAdmin: response.GetUserRole(c) == entity.RoleAdmin}
}

func requireViewer(c *gin.Context) (deck.Viewer, bool) {
	viewer := viewerFromContext(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return deck.Viewer{}, false
	}
	return *viewer, true
}

func (h *DeckHandler) CreateDeck(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	var req deckDto.CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.CreateDeck(c.Request.Context(), viewer.ID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (h *DeckHandler) UpdateDeck(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	deckID, err := response.ParseUUIDParam(c, "deck_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req deckDto.UpdateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.UpdateDeck(c.Request.Context(), viewer.ID, deckID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *DeckHandler) DeleteDeck(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	deckID, err := response.ParseUUIDParam(c, "deck_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteDeck(c.Request.Context(), viewer, deckID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deck deleted"})
}

func (h *DeckHandler) GetDeck(c *gin.Context) {
	deckID, err := response.ParseUUIDParam(c, "deck_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.GetDeck(c.Request.Context(), viewerFromContext(c), deckID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *DeckHandler) ListDecks(c *gin.Context) {
	var filter deckDto.DeckFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListPublicDecks(c.Request.Context(), viewerFromContext(c), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *DeckHandler) ListMyDecks(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	var page commonDto.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListMyDecks(c.Request.Context(), viewer.ID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *DeckHandler) ListUserDecks(c *gin.Context) {
	var page commonDto.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListUserDecks(c.Request.Context(), viewerFromContext(c), c.Param("username"), page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *DeckHandler) UploadCover(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	deckID, err := response.ParseUUIDParam(c, "deck_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cover file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read cover file"})
		return
	}
	defer file.Close()

	res, err := h.service.UploadCover(c.Request.Context(), viewer, deckID, deckDto.CoverFile{
		Reader:   file,
		FileName: fileHeader.Filename,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}
