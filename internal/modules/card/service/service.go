package card

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"algomancy.gg/deckhub/internal/entity"
	cardDto "algomancy.gg/deckhub/internal/modules/card/dto"
	cardRepo "algomancy.gg/deckhub/internal/modules/card/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

const cacheSize = 2048

type CardService interface {
	ListCards(ctx context.Context, filter cardDto.CardFilter) (*cardDto.CardListResponse, error)
	GetCard(ctx context.Context, id string) (*entity.Card, error)
	// ResolveCards returns every requested card keyed by id, or
	// ErrInvalidInput naming the ids that are not in the catalogue.
	ResolveCards(ctx context.Context, ids []string) (map[string]entity.Card, error)
	UpsertCards(ctx context.Context, input []cardDto.UpsertCardInput) (int, error)
}

type cardService struct {
	repo  cardRepo.CardRepository
	cache *lru.Cache
	log   *zap.Logger
}

func NewCardService(repo cardRepo.CardRepository, log *zap.Logger) CardService {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New(cacheSize)
	return &cardService{
		repo:  repo,
		cache: cache,
		log:   log.Named("card"),
	}
}

func (s *cardService) ListCards(ctx context.Context, filter cardDto.CardFilter) (*cardDto.CardListResponse, error) {
	offset := filter.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	cards, total, err := s.repo.FindAll(ctx, filter, offset)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []entity.Card{}
	}

	return &cardDto.CardListResponse{
		Data: cards,
		Meta: commonDto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *cardService) GetCard(ctx context.Context, id string) (*entity.Card, error) {
	if cached, ok := s.cache.Get(id); ok {
		card := cached.(entity.Card)
		return &card, nil
	}
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(card.ID, *card)
	return card, nil
}

func (s *cardService) ResolveCards(ctx context.Context, ids []string) (map[string]entity.Card, error) {
	resolved := make(map[string]entity.Card, len(ids))
	var missing []string
	for _, id := range ids {
		if _, seen := resolved[id]; seen {
			continue
		}
		if cached, ok := s.cache.Get(id); ok {
			resolved[id] = cached.(entity.Card)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		cards, err := s.repo.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			resolved[c.ID] = c
			s.cache.Add(c.ID, c)
		}
	}

	var unknown []string
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown cards %s: %w", strings.Join(unknown, ", "), apperror.ErrInvalidInput)
	}

	return resolved, nil
}

func (s *cardService) UpsertCards(ctx context.Context, input []cardDto.UpsertCardInput) (int, error) {
	cards := make([]entity.Card, 0, len(input))
	seen := make(map[string]struct{}, len(input))
	for _, in := range input {
		id := strings.TrimSpace(in.ID)
		if id == "" {
			return 0, fmt.Errorf("card id is required: %w", apperror.ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return 0, fmt.Errorf("card %q listed twice: %w", id, apperror.ErrInvalidInput)
		}
		seen[id] = struct{}{}

		cards = append(cards, entity.Card{
			ID:        id,
			Name:      strings.TrimSpace(in.Name),
			Element:   strings.TrimSpace(in.Element),
			CardType:  strings.TrimSpace(in.CardType),
			Cost:      in.Cost,
			Power:     in.Power,
			Toughness: in.Toughness,
			Text:      in.Text,
			ImageURL:  in.ImageURL,
		})
	}

	if err := s.repo.Upsert(ctx, cards); err != nil {
		return 0, fmt.Errorf("upsert cards: %w", err)
	}
	s.cache.Purge()

	s.log.Info("cards upserted", zap.Int("count", len(cards)))
	return len(cards), nil
}
