package deck

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"algomancy.gg/deckhub/internal/entity"
	deckDto "algomancy.gg/deckhub/internal/modules/deck/dto"
	"algomancy.gg/deckhub/pkg/apperror"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"algomancy.gg/deckhub/pkg/ratelimiter"
	"github.com/google/uuid"
)

type deckContents struct {
	name        string
	description string
	elements    []string
	cards       []entity.DeckCard
	catalogue   map[string]entity.Card
}

// buildContents validates a submitted deck list against the catalogue.
// Repeated card ids are merged before the per-card copy limit is checked.
func (s *service) buildContents(ctx context.Context, name, description string, inputs []deckDto.DeckCardInput) (*deckContents, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("deck name is required: %w", apperror.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("deck name must be at most %d characters: %w", MaxNameLength, apperror.ErrInvalidInput)
	}
	if utf8.RuneCountInString(description) > MaxDescLength {
		return nil, fmt.Errorf("description must be at most %d characters: %w", MaxDescLength, apperror.ErrInvalidInput)
	}

	quantities := make(map[string]int, len(inputs))
	ids := make([]string, 0, len(inputs))
	total := 0
	for _, in := range inputs {
		id := strings.TrimSpace(in.CardID)
		if id == "" {
			return nil, fmt.Errorf("card id is required: %w", apperror.ErrInvalidInput)
		}
		if in.Quantity < 1 {
			return nil, fmt.Errorf("card %s: quantity must be at least 1: %w", id, apperror.ErrInvalidInput)
		}
		if _, seen := quantities[id]; !seen {
			ids = append(ids, id)
		}
		quantities[id] += in.Quantity
		total += in.Quantity
	}

	if total == 0 {
		return nil, fmt.Errorf("a deck needs at least one card: %w", apperror.ErrInvalidInput)
	}
	if total > MaxDeckCards {
		return nil, fmt.Errorf("a deck may hold at most %d cards, got %d: %w", MaxDeckCards, total, apperror.ErrInvalidInput)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if quantities[id] > MaxCopiesPerCard {
			return nil, fmt.Errorf("card %s: at most %d copies allowed: %w", id, MaxCopiesPerCard, apperror.ErrInvalidInput)
		}
	}

	catalogue, err := s.cardService.ResolveCards(ctx, ids)
	if err != nil {
		return nil, err
	}

	elementSet := map[string]struct{}{}
	cards := make([]entity.DeckCard, 0, len(ids))
	for _, id := range ids {
		if el := catalogue[id].Element; el != "" {
			elementSet[el] = struct{}{}
		}
		cards = append(cards, entity.DeckCard{CardID: id, Quantity: quantities[id]})
	}

	elements := make([]string, 0, len(elementSet))
	for el := range elementSet {
		elements = append(elements, el)
	}
	sort.Strings(elements)

	return &deckContents{
		name:        name,
		description: strings.TrimSpace(s.sanitizer.Sanitize(description)),
		elements:    elements,
		cards:       cards,
		catalogue:   catalogue,
	}, nil
}

func attachCards(deck *entity.Deck, catalogue map[string]entity.Card) {
	for i := range deck.Cards {
		deck.Cards[i].Card = catalogue[deck.Cards[i].CardID]
	}
}

func (s *service) checkCreateDeckRateLimit(ctx context.Context, userID uuid.UUID) (func(), error) {
	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, userID, ratelimiter.ScopeDeckCreate, s.createRateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, userID, ratelimiter.ScopeDeckCreate)
		if ttl < 0 {
			ttl = s.createRateLimit
		}
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("you can only create one deck every %.0f seconds, please wait %.0f seconds", s.createRateLimit.Seconds(), ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	cleanup := func() {
		_ = ratelimiter.ClearRateLimit(context.Background(), s.redisClient, userID, ratelimiter.ScopeDeckCreate)
	}
	return cleanup, nil
}

func buildDeckResponse(deck *entity.Deck, likedByMe, withCards bool) deckDto.DeckResponse {
	author := commonDto.AuthorResponse{ID: deck.UserID, Username: "Unknown"}
	if deck.User.Username != "" {
		author.Username = deck.User.Username
		author.AvatarURL = deck.User.AvatarURL
	}

	elements := deck.Elements
	if elements == nil {
		elements = []string{}
	}

	res := deckDto.DeckResponse{
		ID:            deck.ID,
		Name:          deck.Name,
		Description:   deck.Description,
		Elements:      elements,
		IsPublic:      deck.IsPublic,
		CoverImageURL: deck.CoverImageURL,
		Views:         deck.Views,
		LikesCount:    deck.LikesCount,
		LikedByMe:     likedByMe,
		CardCount:     deck.CardTotal(),
		Author:        author,
		CreatedAt:     deck.CreatedAt,
		UpdatedAt:     deck.UpdatedAt,
	}

	if withCards {
		res.Cards = make([]deckDto.DeckCardResponse, 0, len(deck.Cards))
		for _, dc := range deck.Cards {
			res.Cards = append(res.Cards, deckDto.DeckCardResponse{
				CardID:   dc.CardID,
				Name:     dc.Card.Name,
				Element:  dc.Card.Element,
				CardType: dc.Card.CardType,
				Cost:     dc.Card.Cost,
				ImageURL: dc.Card.ImageURL,
				Quantity: dc.Quantity,
			})
		}
	}

	return res
}
