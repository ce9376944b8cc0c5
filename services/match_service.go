package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/google/uuid"
)

// BracketEventPublisher fans match and bracket changes out to connected
// clients. A nil publisher is valid and disables broadcasting.
type BracketEventPublisher interface {
	PublishMatchUpdated(tournamentID uuid.UUID, match *models.Match)
	PublishBracketAdvanced(tournamentID uuid.UUID, matches []*models.Match)
}

type MatchService interface {
	List(ctx context.Context, filter repositories.MatchListFilter) ([]*models.Match, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	Create(ctx context.Context, match *models.Match) (*models.Match, error)
	Update(ctx context.Context, id uuid.UUID, params repositories.MatchUpdateParams) (*models.Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByTournament clears the whole bracket and returns how many matches
	// were removed.
	DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error)
}

type matchService struct {
	matchRepo         repositories.MatchRepository
	participationRepo repositories.ParticipationRepository
	bracketService    BracketService
	publisher         BracketEventPublisher
	logger            *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	participationRepo repositories.ParticipationRepository,
	bracketService BracketService,
	publisher BracketEventPublisher,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		matchRepo:         matchRepo,
		participationRepo: participationRepo,
		bracketService:    bracketService,
		publisher:         publisher,
		logger:            logger,
	}
}

func (s *matchService) List(ctx context.Context, filter repositories.MatchListFilter) ([]*models.Match, error) {
	return s.matchRepo.List(ctx, filter)
}

func (s *matchService) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) Create(ctx context.Context, match *models.Match) (*models.Match, error) {
	if match.PlayerAID == match.PlayerBID {
		return nil, ErrPlayersMustDiffer
	}
	created, err := s.matchRepo.Create(ctx, match)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchTournamentInvalid):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrMatchPlayerInvalid):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return created, nil
}

// Update applies a partial match update and runs the completion pipeline when
// a winner is reported: win/loss counters for both players, then bracket
// advancement. Byes are skipped by the stats step since a self-match has no
// loser. The counter updates are blind increments, so reporting the same
// winner twice counts the match twice; clients must not resubmit a decided
// match.
func (s *matchService) Update(ctx context.Context, id uuid.UUID, params repositories.MatchUpdateParams) (*models.Match, error) {
	current, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	playerA := current.PlayerAID
	playerB := current.PlayerBID
	if params.PlayerAID != nil {
		playerA = *params.PlayerAID
	}
	if params.PlayerBID != nil {
		playerB = *params.PlayerBID
	}
	if (params.PlayerAID != nil || params.PlayerBID != nil) && playerA == playerB {
		return nil, ErrPlayersMustDiffer
	}
	if params.WinnerID.Set {
		if params.WinnerID.Value != nil {
			winner := *params.WinnerID.Value
			if winner != playerA && winner != playerB {
				return nil, ErrWinnerNotInMatch
			}
			// A decided match carries its completion time; default it when a
			// winner is reported on a match not yet completed.
			if !params.CompletedAt.Set && current.CompletedAt == nil {
				params.CompletedAt = models.OptOf(time.Now())
			}
		} else if !params.CompletedAt.Set {
			// Clearing the winner reopens the match.
			params.CompletedAt = models.OptNull[time.Time]()
		}
	}

	updated, err := s.matchRepo.Update(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchNotFound):
			return nil, ErrMatchNotFound
		case errors.Is(err, repositories.ErrMatchPlayerInvalid):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if params.WinnerID.Set && params.WinnerID.Value != nil {
		winnerID := *params.WinnerID.Value
		if !updated.IsBye() {
			loserID := updated.PlayerAID
			if winnerID == updated.PlayerAID {
				loserID = updated.PlayerBID
			}
			if statsErr := s.participationRepo.IncrementWins(ctx, updated.TournamentID, winnerID); statsErr != nil {
				return nil, fmt.Errorf("failed to record win for user %s: %w", winnerID, statsErr)
			}
			if statsErr := s.participationRepo.IncrementLosses(ctx, updated.TournamentID, loserID); statsErr != nil {
				return nil, fmt.Errorf("failed to record loss for user %s: %w", loserID, statsErr)
			}
		}

		advanced, advErr := s.bracketService.AdvanceBracket(ctx, updated.TournamentID)
		if advErr != nil {
			return nil, fmt.Errorf("failed to advance bracket after match %s: %w", id, advErr)
		}
		if len(advanced) > 0 && s.publisher != nil {
			s.publisher.PublishBracketAdvanced(updated.TournamentID, advanced)
		}
	}

	if s.publisher != nil {
		s.publisher.PublishMatchUpdated(updated.TournamentID, updated)
	}
	return updated, nil
}

func (s *matchService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	return nil
}

func (s *matchService) DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error) {
	count, err := s.matchRepo.DeleteByTournament(ctx, tournamentID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("bracket cleared",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int64("matches_deleted", count),
	)
	return count, nil
}
