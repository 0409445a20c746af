package deck

import (
	"context"
	"fmt"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	card "algomancy.gg/deckhub/internal/modules/card/service"
	deckDto "algomancy.gg/deckhub/internal/modules/deck/dto"
	deckRepo "algomancy.gg/deckhub/internal/modules/deck/repository"
	search "algomancy.gg/deckhub/internal/modules/search/service"
	userRepo "algomancy.gg/deckhub/internal/modules/user/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"algomancy.gg/deckhub/pkg/storage"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	MaxDeckCards     = 60
	MaxCopiesPerCard = 4
	MaxNameLength    = 80
	MaxDescLength    = 5000
	coverFolder      = "deck-covers"
)

// XPRefresher recomputes a user's achievement XP in the background.
type XPRefresher interface {
	RefreshUserXPAsync(userID uuid.UUID)
}

// ViewCounter records a deck view for a signed-in viewer.
type ViewCounter interface {
	IncrementView(ctx context.Context, deckID, viewerID uuid.UUID) error
}

// Viewer identifies who is reading a deck. A nil *Viewer is anonymous.
type Viewer struct {
	ID      uuid.UUID
	IsAdmin bool
}

type DeckService interface {
	CreateDeck(ctx context.Context, userID uuid.UUID, req deckDto.CreateDeckRequest) (*deckDto.DeckResponse, error)
	UpdateDeck(ctx context.Context, userID, deckID uuid.UUID, req deckDto.UpdateDeckRequest) (*deckDto.DeckResponse, error)
	DeleteDeck(ctx context.Context, viewer Viewer, deckID uuid.UUID) error
	GetDeck(ctx context.Context, viewer *Viewer, deckID uuid.UUID) (*deckDto.DeckResponse, error)
	ListPublicDecks(ctx context.Context, viewer *Viewer, filter deckDto.DeckFilter) (*deckDto.PaginatedDeckResponse, error)
	ListMyDecks(ctx context.Context, userID uuid.UUID, page commonDto.Pagination) (*deckDto.PaginatedDeckResponse, error)
	ListUserDecks(ctx context.Context, viewer *Viewer, username string, page commonDto.Pagination) (*deckDto.PaginatedDeckResponse, error)
	UploadCover(ctx context.Context, viewer Viewer, deckID uuid.UUID, file deckDto.CoverFile) (*deckDto.DeckResponse, error)
}

type service struct {
	deckRepo        deckRepo.DeckRepository
	userRepo        userRepo.UserRepository
	cardService     card.CardService
	fileStorage     storage.ImageStorage
	meili           search.MeiliSearchService
	viewCounter     ViewCounter
	xp              XPRefresher
	redisClient     *redis.Client
	createRateLimit time.Duration
	sanitizer       *bluemonday.Policy
	log             *zap.Logger
}

func NewDeckService(
	deckRepo deckRepo.DeckRepository,
	userRepo userRepo.UserRepository,
	cardService card.CardService,
	fileStorage storage.ImageStorage,
	meili search.MeiliSearchService,
	viewCounter ViewCounter,
	xp XPRefresher,
	redisClient *redis.Client,
	createRateLimit time.Duration,
	log *zap.Logger,
) DeckService {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		deckRepo:        deckRepo,
		userRepo:        userRepo,
		cardService:     cardService,
		fileStorage:     fileStorage,
		meili:           meili,
		viewCounter:     viewCounter,
		xp:              xp,
		redisClient:     redisClient,
		createRateLimit: createRateLimit,
		sanitizer:       bluemonday.UGCPolicy(),
		log:             log.Named("deck"),
	}
}

func (s *service) CreateDeck(ctx context.Context, userID uuid.UUID, req deckDto.CreateDeckRequest) (*deckDto.DeckResponse, error) {
	cleanup, err := s.checkCreateDeckRateLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	creationFailed := true
	defer func() {
		if creationFailed && cleanup != nil {
			cleanup()
		}
	}()

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	contents, err := s.buildContents(ctx, req.Name, req.Description, req.Cards)
	if err != nil {
		return nil, err
	}

	deck := &entity.Deck{
		UserID:      userID,
		Name:        contents.name,
		Description: contents.description,
		Elements:    contents.elements,
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
		Cards:       contents.cards,
	}

	if err := s.deckRepo.Create(ctx, deck); err != nil {
		return nil, err
	}
	creationFailed = false

	deck.User = *user
	attachCards(deck, contents.catalogue)
	s.index(deck)

	if s.xp != nil {
		s.xp.RefreshUserXPAsync(userID)
	}

	s.log.Info("deck created", zap.Stringer("deck_id", deck.ID), zap.Stringer("user_id", userID))
	res := buildDeckResponse(deck, false, true)
	return &res, nil
}

func (s *service) UpdateDeck(ctx context.Context, userID, deckID uuid.UUID, req deckDto.UpdateDeckRequest) (*deckDto.DeckResponse, error) {
	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID != userID {
		return nil, fmt.Errorf("you can only update your own decks: %w", apperror.ErrForbidden)
	}

	contents, err := s.buildContents(ctx, req.Name, req.Description, req.Cards)
	if err != nil {
		return nil, err
	}

	deck.Name = contents.name
	deck.Description = contents.description
	deck.Elements = contents.elements
	deck.Cards = contents.cards
	if req.IsPublic != nil {
		deck.IsPublic = *req.IsPublic
	}

	if err := s.deckRepo.Update(ctx, deck); err != nil {
		return nil, err
	}

	attachCards(deck, contents.catalogue)
	s.index(deck)

	res := buildDeckResponse(deck, false, true)
	return &res, nil
}

func (s *service) DeleteDeck(ctx context.Context, viewer Viewer, deckID uuid.UUID) error {
	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if err != nil {
		return err
	}
	if deck.UserID != viewer.ID && !viewer.IsAdmin {
		return fmt.Errorf("you can only delete your own decks unless you are an admin: %w", apperror.ErrForbidden)
	}

	if err := s.deckRepo.Delete(ctx, deckID); err != nil {
		return err
	}

	if deck.CoverImageURL != nil && s.fileStorage != nil {
		if err := s.fileStorage.DeleteImage(ctx, *deck.CoverImageURL); err != nil {
			s.log.Warn("failed to delete deck cover", zap.Stringer("deck_id", deckID), zap.Error(err))
		}
	}
	if s.meili != nil {
		if err := s.meili.DeleteDeck(deckID.String()); err != nil {
			s.log.Warn("failed to remove deck from index", zap.Stringer("deck_id", deckID), zap.Error(err))
		}
	}
	if s.xp != nil {
		s.xp.RefreshUserXPAsync(deck.UserID)
	}

	return nil
}

// GetDeck hides private decks from everyone but the owner and admins, and
// counts a view when a signed-in non-owner opens the deck.
func (s *service) GetDeck(ctx context.Context, viewer *Viewer, deckID uuid.UUID) (*deckDto.DeckResponse, error) {
	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	isOwner := viewer != nil && viewer.ID == deck.UserID
	if !deck.IsPublic && !isOwner && (viewer == nil || !viewer.IsAdmin) {
		return nil, fmt.Errorf("deck %s: %w", deckID, apperror.ErrNotFound)
	}

	liked := false
	if viewer != nil {
		if !isOwner && s.viewCounter != nil {
			if err := s.viewCounter.IncrementView(ctx, deckID, viewer.ID); err != nil {
				s.log.Warn("failed to count view", zap.Stringer("deck_id", deckID), zap.Error(err))
			}
		}
		likedIDs, err := s.deckRepo.LikedDeckIDs(ctx, viewer.ID, []uuid.UUID{deckID})
		if err != nil {
			return nil, err
		}
		liked = likedIDs[deckID]
	}

	res := buildDeckResponse(deck, liked, true)
	return &res, nil
}

func (s *service) ListPublicDecks(ctx context.Context, viewer *Viewer, filter deckDto.DeckFilter) (*deckDto.PaginatedDeckResponse, error) {
	offset := filter.Normalize()

	decks, total, err := s.deckRepo.FindPublic(ctx, filter, offset)
	if err != nil {
		return nil, err
	}
	return s.paginate(ctx, viewer, decks, total, filter.Pagination)
}

func (s *service) ListMyDecks(ctx context.Context, userID uuid.UUID, page commonDto.Pagination) (*deckDto.PaginatedDeckResponse, error) {
	offset := page.Normalize()

	decks, total, err := s.deckRepo.FindByUserID(ctx, userID, true, offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return s.paginate(ctx, &Viewer{ID: userID}, decks, total, page)
}

func (s *service) ListUserDecks(ctx context.Context, viewer *Viewer, username string, page commonDto.Pagination) (*deckDto.PaginatedDeckResponse, error) {
	offset := page.Normalize()

	owner, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	includePrivate := viewer != nil && (viewer.ID == owner.ID || viewer.IsAdmin)
	decks, total, err := s.deckRepo.FindByUserID(ctx, owner.ID, includePrivate, offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return s.paginate(ctx, viewer, decks, total, page)
}

func (s *service) UploadCover(ctx context.Context, viewer Viewer, deckID uuid.UUID, file deckDto.CoverFile) (*deckDto.DeckResponse, error) {
	if s.fileStorage == nil {
		return nil, fmt.Errorf("image uploads are disabled: %w", apperror.ErrBadRequest)
	}
	if !storage.IsImageFile(file.FileName) {
		return nil, fmt.Errorf("cover must be a jpg, png, gif or webp image: %w", apperror.ErrInvalidInput)
	}

	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID != viewer.ID && !viewer.IsAdmin {
		return nil, fmt.Errorf("you can only change your own deck covers: %w", apperror.ErrForbidden)
	}

	url, err := s.fileStorage.UploadImage(ctx, file.Reader, coverFolder, file.FileName)
	if err != nil {
		return nil, err
	}

	if err := s.deckRepo.UpdateCover(ctx, deckID, &url); err != nil {
		_ = s.fileStorage.DeleteImage(ctx, url)
		return nil, err
	}

	if deck.CoverImageURL != nil {
		if err := s.fileStorage.DeleteImage(ctx, *deck.CoverImageURL); err != nil {
			s.log.Warn("failed to delete old cover", zap.Stringer("deck_id", deckID), zap.Error(err))
		}
	}

	deck.CoverImageURL = &url
	s.index(deck)

	res := buildDeckResponse(deck, false, true)
	return &res, nil
}

func (s *service) index(deck *entity.Deck) {
	if s.meili == nil {
		return
	}
	if err := s.meili.IndexDeck(deck); err != nil {
		s.log.Warn("failed to index deck", zap.Stringer("deck_id", deck.ID), zap.Error(err))
	}
}

func (s *service) paginate(ctx context.Context, viewer *Viewer, decks []*entity.Deck, total int64, page commonDto.Pagination) (*deckDto.PaginatedDeckResponse, error) {
	liked := map[uuid.UUID]bool{}
	if viewer != nil && len(decks) > 0 {
		ids := make([]uuid.UUID, 0, len(decks))
		for _, d := range decks {
			ids = append(ids, d.ID)
		}
		var err error
		liked, err = s.deckRepo.LikedDeckIDs(ctx, viewer.ID, ids)
		if err != nil {
			return nil, err
		}
	}

	data := make([]deckDto.DeckResponse, 0, len(decks))
	for _, d := range decks {
		data = append(data, buildDeckResponse(d, liked[d.ID], false))
	}

	return &deckDto.PaginatedDeckResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}
