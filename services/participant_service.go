package services

import (
	"context"
	"errors"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/google/uuid"
)

type ParticipantService interface {
	// Join registers the caller for an UPCOMING tournament. Registration
	// closes once the tournament starts.
	Join(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Participation, error)
	// Add registers a user on behalf of an admin; allowed while the
	// tournament has not finished, so late entrants can be seeded manually.
	Add(ctx context.Context, tournamentID, userID uuid.UUID, seed *int) (*models.Participation, error)
	Remove(ctx context.Context, tournamentID, userID uuid.UUID) error
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error)
}

type participantService struct {
	tournamentRepo    repositories.TournamentRepository
	participationRepo repositories.ParticipationRepository
	userRepo          repositories.UserRepository
}

func NewParticipantService(
	tournamentRepo repositories.TournamentRepository,
	participationRepo repositories.ParticipationRepository,
	userRepo repositories.UserRepository,
) ParticipantService {
	return &participantService{
		tournamentRepo:    tournamentRepo,
		participationRepo: participationRepo,
		userRepo:          userRepo,
	}
}

func (s *participantService) Join(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Participation, error) {
	return s.register(ctx, tournamentID, userID, nil, func(status models.TournamentStatus) bool {
		return status == models.StatusUpcoming
	})
}

func (s *participantService) Add(ctx context.Context, tournamentID, userID uuid.UUID, seed *int) (*models.Participation, error) {
	return s.register(ctx, tournamentID, userID, seed, func(status models.TournamentStatus) bool {
		return status != models.StatusCompleted
	})
}

func (s *participantService) register(
	ctx context.Context,
	tournamentID, userID uuid.UUID,
	seed *int,
	statusAllowed func(models.TournamentStatus) bool,
) (*models.Participation, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if !statusAllowed(tournament.Status) {
		return nil, ErrRegistrationClosed
	}

	participation := &models.Participation{
		TournamentID: tournamentID,
		UserID:       userID,
		Seed:         seed,
	}
	if err := s.participationRepo.Create(ctx, participation); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrParticipationInvalid):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return participation, nil
}

func (s *participantService) Remove(ctx context.Context, tournamentID, userID uuid.UUID) error {
	if err := s.participationRepo.DeleteByTournamentAndUser(ctx, tournamentID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.participationRepo.ListByTournament(ctx, tournamentID)
}
