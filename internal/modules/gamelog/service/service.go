package gamelog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	deckRepo "algomancy.gg/deckhub/internal/modules/deck/repository"
	gameLogDto "algomancy.gg/deckhub/internal/modules/gamelog/dto"
	gameLogRepo "algomancy.gg/deckhub/internal/modules/gamelog/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	commonDto "algomancy.gg/deckhub/pkg/dto"
	"algomancy.gg/deckhub/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type XPRefresher interface {
	RefreshUserXPAsync(userID uuid.UUID)
}

type GameLogService interface {
	SubmitLog(ctx context.Context, userID uuid.UUID, req gameLogDto.SubmitLogRequest) (*gameLogDto.GameLogResponse, error)
	ListMyLogs(ctx context.Context, userID uuid.UUID, page commonDto.Pagination) (*gameLogDto.GameLogListResponse, error)
}

type gameLogService struct {
	repo        gameLogRepo.GameLogRepository
	deckRepo    deckRepo.DeckRepository
	xp          XPRefresher
	redisClient *redis.Client
	rateLimit   time.Duration
	now         func() time.Time
	log         *zap.Logger
}

// NewGameLogService accepts a nil repo when MongoDB is not configured; every
// call then reports the store as unavailable.
func NewGameLogService(repo gameLogRepo.GameLogRepository, deckRepo deckRepo.DeckRepository, xp XPRefresher, redisClient *redis.Client, rateLimit time.Duration, log *zap.Logger) GameLogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &gameLogService{
		repo:        repo,
		deckRepo:    deckRepo,
		xp:          xp,
		redisClient: redisClient,
		rateLimit:   rateLimit,
		now:         time.Now,
		log:         log.Named("gamelog"),
	}
}

func validResult(result string) bool {
	switch result {
	case entity.GameResultWin, entity.GameResultLoss, entity.GameResultDraw, entity.GameResultAbandoned:
		return true
	}
	return false
}

func (s *gameLogService) SubmitLog(ctx context.Context, userID uuid.UUID, req gameLogDto.SubmitLogRequest) (*gameLogDto.GameLogResponse, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("%w: game log store is not configured", apperror.ErrDataUnavailable)
	}

	result := strings.ToLower(strings.TrimSpace(req.Result))
	if !validResult(result) {
		return nil, fmt.Errorf("result must be one of win, loss, draw, abandoned: %w", apperror.ErrInvalidInput)
	}
	if req.Turns < 0 {
		return nil, fmt.Errorf("turns cannot be negative: %w", apperror.ErrInvalidInput)
	}

	var deckID *string
	if req.DeckID != nil && *req.DeckID != "" {
		id, err := uuid.Parse(*req.DeckID)
		if err != nil {
			return nil, fmt.Errorf("invalid deck id: %w", apperror.ErrInvalidInput)
		}
		deck, err := s.deckRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if deck.UserID != userID {
			return nil, fmt.Errorf("you can only log games with your own decks: %w", apperror.ErrForbidden)
		}
		str := id.String()
		deckID = &str
	}

	release, err := ratelimiter.Enforce(ctx, s.redisClient, userID, ratelimiter.ScopeLogSubmit, s.rateLimit, "you are submitting game logs too quickly")
	if err != nil {
		return nil, err
	}

	log := &entity.GameLog{
		UserID:    userID.String(),
		DeckID:    deckID,
		Opponent:  strings.TrimSpace(req.Opponent),
		Result:    result,
		Turns:     req.Turns,
		Format:    strings.TrimSpace(req.Format),
		Notes:     strings.TrimSpace(req.Notes),
		Payload:   req.Payload,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, log); err != nil {
		release()
		return nil, err
	}

	if log.Qualifies() && s.xp != nil {
		s.xp.RefreshUserXPAsync(userID)
	}

	s.log.Debug("game log submitted", zap.Stringer("user_id", userID), zap.String("result", result))
	res := toResponse(log)
	return &res, nil
}

func (s *gameLogService) ListMyLogs(ctx context.Context, userID uuid.UUID, page commonDto.Pagination) (*gameLogDto.GameLogListResponse, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("%w: game log store is not configured", apperror.ErrDataUnavailable)
	}

	offset := page.Normalize()
	logs, total, err := s.repo.FindByUserID(ctx, userID, offset, page.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]gameLogDto.GameLogResponse, 0, len(logs))
	for i := range logs {
		data = append(data, toResponse(&logs[i]))
	}
	return &gameLogDto.GameLogListResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

func toResponse(l *entity.GameLog) gameLogDto.GameLogResponse {
	return gameLogDto.GameLogResponse{
		ID:        l.ID.Hex(),
		DeckID:    l.DeckID,
		Opponent:  l.Opponent,
		Result:    l.Result,
		Turns:     l.Turns,
		Format:    l.Format,
		Notes:     l.Notes,
		Payload:   l.Payload,
		Qualifies: l.Qualifies(),
		CreatedAt: l.CreatedAt,
	}
}
