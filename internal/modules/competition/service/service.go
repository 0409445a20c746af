package competition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	competitionDto "algomancy.gg/deckhub/internal/modules/competition/dto"
	competitionRepo "algomancy.gg/deckhub/internal/modules/competition/repository"
	deckRepo "algomancy.gg/deckhub/internal/modules/deck/repository"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CompetitionService interface {
	CreateCompetition(ctx context.Context, creatorID uuid.UUID, req competitionDto.CreateCompetitionRequest) (*competitionDto.CompetitionResponse, error)
	ListCompetitions(ctx context.Context) ([]competitionDto.CompetitionResponse, error)
	EnterCompetition(ctx context.Context, userID, competitionID uuid.UUID, req competitionDto.EnterCompetitionRequest) (*competitionDto.EntryResponse, error)
	ReportResults(ctx context.Context, userID, competitionID uuid.UUID, req competitionDto.ReportResultRequest) (*competitionDto.EntryResponse, error)
	GetStandings(ctx context.Context, competitionID uuid.UUID) ([]competitionDto.StandingResponse, error)
}

type competitionService struct {
	repo     competitionRepo.CompetitionRepository
	deckRepo deckRepo.DeckRepository
	now      func() time.Time
	log      *zap.Logger
}

func NewCompetitionService(repo competitionRepo.CompetitionRepository, deckRepo deckRepo.DeckRepository, log *zap.Logger) CompetitionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &competitionService{
		repo:     repo,
		deckRepo: deckRepo,
		now:      time.Now,
		log:      log.Named("competition"),
	}
}

func (s *competitionService) CreateCompetition(ctx context.Context, creatorID uuid.UUID, req competitionDto.CreateCompetitionRequest) (*competitionDto.CompetitionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("competition name is required: %w", apperror.ErrInvalidInput)
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at: %w", apperror.ErrInvalidInput)
	}

	competition := &entity.Competition{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Format:      strings.TrimSpace(req.Format),
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		CreatedBy:   creatorID,
	}
	if err := s.repo.Create(ctx, competition); err != nil {
		return nil, err
	}

	s.log.Info("competition created", zap.Stringer("competition_id", competition.ID), zap.String("name", name))
	res := s.toResponse(competition)
	return &res, nil
}

func (s *competitionService) ListCompetitions(ctx context.Context) ([]competitionDto.CompetitionResponse, error) {
	competitions, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]competitionDto.CompetitionResponse, 0, len(competitions))
	for i := range competitions {
		out = append(out, s.toResponse(&competitions[i]))
	}
	return out, nil
}

func (s *competitionService) openCompetition(ctx context.Context, id uuid.UUID) (*entity.Competition, error) {
	competition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !competition.IsOpen(s.now()) {
		return nil, fmt.Errorf("competition is not open: %w", apperror.ErrBadRequest)
	}
	return competition, nil
}

func (s *competitionService) EnterCompetition(ctx context.Context, userID, competitionID uuid.UUID, req competitionDto.EnterCompetitionRequest) (*competitionDto.EntryResponse, error) {
	if _, err := s.openCompetition(ctx, competitionID); err != nil {
		return nil, err
	}

	deck, err := s.deckRepo.FindByID(ctx, req.DeckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID != userID {
		return nil, fmt.Errorf("you can only enter with your own deck: %w", apperror.ErrForbidden)
	}

	entry := &entity.CompetitionEntry{
		CompetitionID: competitionID,
		UserID:        userID,
		DeckID:        deck.ID,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	res := toEntryResponse(entry)
	return &res, nil
}

func (s *competitionService) ReportResults(ctx context.Context, userID, competitionID uuid.UUID, req competitionDto.ReportResultRequest) (*competitionDto.EntryResponse, error) {
	if req.Wins < 0 || req.Losses < 0 {
		return nil, fmt.Errorf("wins and losses cannot be negative: %w", apperror.ErrInvalidInput)
	}
	if req.Wins+req.Losses == 0 {
		return nil, fmt.Errorf("report at least one win or loss: %w", apperror.ErrInvalidInput)
	}
	if _, err := s.openCompetition(ctx, competitionID); err != nil {
		return nil, err
	}

	entry, err := s.repo.AddResults(ctx, competitionID, userID, req.Wins, req.Losses)
	if err != nil {
		return nil, err
	}

	res := toEntryResponse(entry)
	return &res, nil
}

func (s *competitionService) GetStandings(ctx context.Context, competitionID uuid.UUID) ([]competitionDto.StandingResponse, error) {
	if _, err := s.repo.FindByID(ctx, competitionID); err != nil {
		return nil, err
	}

	entries, err := s.repo.Standings(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	out := make([]competitionDto.StandingResponse, 0, len(entries))
	for i, e := range entries {
		out = append(out, competitionDto.StandingResponse{
			Position:  i + 1,
			UserID:    e.UserID,
			Username:  e.User.Username,
			DeckID:    e.DeckID,
			DeckName:  e.Deck.Name,
			Wins:      e.Wins,
			Losses:    e.Losses,
			EnteredAt: e.CreatedAt,
		})
	}
	return out, nil
}

func (s *competitionService) toResponse(c *entity.Competition) competitionDto.CompetitionResponse {
	return competitionDto.CompetitionResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Format:      c.Format,
		StartsAt:    c.StartsAt,
		EndsAt:      c.EndsAt,
		IsOpen:      c.IsOpen(s.now()),
		CreatedAt:   c.CreatedAt,
	}
}

func toEntryResponse(e *entity.CompetitionEntry) competitionDto.EntryResponse {
	return competitionDto.EntryResponse{
		ID:            e.ID,
		CompetitionID: e.CompetitionID,
		DeckID:        e.DeckID,
		Wins:          e.Wins,
		Losses:        e.Losses,
		CreatedAt:     e.CreatedAt,
	}
}
