package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	DeckIndex      = "decks"
	signingKeyName = "DeckSearchTokenSigner"
	searchTokenTTL = 24 * time.Hour
)

// MeiliSearchService keeps the public deck index in sync and hands out
// search-only tenant tokens to clients.
type MeiliSearchService interface {
	IndexDeck(deck *entity.Deck) error
	DeleteDeck(id string) error
	GenerateSearchToken() (string, error)
}

type meiliSearchService struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
	log           *zap.Logger
}

func NewMeiliSearchService(client meilisearch.ServiceManager, log *zap.Logger) MeiliSearchService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log.Named("meilisearch"),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *meiliSearchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 20})
	if err != nil {
		s.log.Warn("failed to list meilisearch keys", zap.Error(err))
		return
	}

	for _, key := range resp.Results {
		if key.Name == signingKeyName {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Signs deck search tenant tokens",
		Name:        signingKeyName,
		Actions:     []string{"search"},
		Indexes:     []string{DeckIndex},
		ExpiresAt:   time.Now().AddDate(100, 0, 0),
	})
	if err != nil {
		s.log.Warn("failed to create meilisearch signing key", zap.Error(err))
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	s.log.Info("created meilisearch signing key")
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"elements", "user_id", "is_public"}
	if _, err := s.client.Index(DeckIndex).UpdateFilterableAttributes(&filterable); err != nil {
		s.log.Warn("failed to update deck filterable attributes", zap.Error(err))
	}

	sortable := []string{"created_at", "likes_count", "views"}
	if _, err := s.client.Index(DeckIndex).UpdateSortableAttributes(&sortable); err != nil {
		s.log.Warn("failed to update deck sortable attributes", zap.Error(err))
	}

	searchable := []string{"name", "description", "card_names", "user.username"}
	if _, err := s.client.Index(DeckIndex).UpdateSearchableAttributes(&searchable); err != nil {
		s.log.Warn("failed to update deck searchable attributes", zap.Error(err))
	}
}

type meiliDeckDoc struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Elements    []string        `json:"elements"`
	CardNames   []string        `json:"card_names"`
	IsPublic    bool            `json:"is_public"`
	UserID      string          `json:"user_id"`
	Views       int             `json:"views"`
	LikesCount  int             `json:"likes_count"`
	CoverURL    string          `json:"cover_image_url"`
	CreatedAt   int64           `json:"created_at"`
	User        meiliUserSubset `json:"user"`
}

type meiliUserSubset struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// cleanText strips markup so the index holds plain words.
func (s *meiliSearchService) cleanText(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</li>", " ")

	text := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

// IndexDeck adds or replaces a public deck; private decks are removed.
func (s *meiliSearchService) IndexDeck(deck *entity.Deck) error {
	if !deck.IsPublic {
		return s.DeleteDeck(deck.ID.String())
	}

	cardNames := make([]string, 0, len(deck.Cards))
	for _, c := range deck.Cards {
		if c.Card.Name != "" {
			cardNames = append(cardNames, c.Card.Name)
		}
	}

	doc := meiliDeckDoc{
		ID:          deck.ID.String(),
		Name:        deck.Name,
		Description: s.cleanText(deck.Description),
		Elements:    deck.Elements,
		CardNames:   cardNames,
		IsPublic:    deck.IsPublic,
		UserID:      deck.UserID.String(),
		Views:       deck.Views,
		LikesCount:  deck.LikesCount,
		CoverURL:    stringOrEmpty(deck.CoverImageURL),
		CreatedAt:   deck.CreatedAt.Unix(),
		User: meiliUserSubset{
			Username:  deck.User.Username,
			AvatarURL: stringOrEmpty(deck.User.AvatarURL),
		},
	}

	pk := "id"
	task, err := s.client.Index(DeckIndex).AddDocuments([]meiliDeckDoc{doc}, &pk)
	if err != nil {
		return fmt.Errorf("index deck %s: %w", deck.ID, err)
	}
	s.log.Debug("deck indexed", zap.Stringer("deck_id", deck.ID), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *meiliSearchService) DeleteDeck(id string) error {
	if _, err := s.client.Index(DeckIndex).DeleteDocument(id); err != nil {
		return fmt.Errorf("delete deck %s from index: %w", id, err)
	}
	return nil
}

func (s *meiliSearchService) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{
		DeckIndex: map[string]any{"filter": "is_public = true"},
	}

	return s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(searchTokenTTL),
	})
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
