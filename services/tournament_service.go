package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/bolaenmano/tournament-api/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type TournamentService interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	// GetByID returns the tournament with its roster and matches loaded.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	// GetCurrent returns the tournament the mobile home screen shows: the
	// earliest ACTIVE or UPCOMING one, relations included.
	GetCurrent(ctx context.Context) (*models.Tournament, error)
	// ListHistory returns COMPLETED tournaments, most recently finished first,
	// each with its final standings loaded.
	ListHistory(ctx context.Context) ([]*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Update(ctx context.Context, id uuid.UUID, params repositories.TournamentUpdateParams) (*models.Tournament, error)
	// UploadLogo stores the image and points the tournament at it, replacing
	// any previous logo object.
	UploadLogo(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo    repositories.TournamentRepository
	participationRepo repositories.ParticipationRepository
	matchRepo         repositories.MatchRepository
	uploader          storage.FileUploader
	logger            *slog.Logger
}

// NewTournamentService wires the tournament use cases. uploader may be nil
// when object storage is not configured; logo uploads then fail cleanly and
// logo URLs stay empty.
func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participationRepo repositories.ParticipationRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo:    tournamentRepo,
		participationRepo: participationRepo,
		matchRepo:         matchRepo,
		uploader:          uploader,
		logger:            logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, tournament *models.Tournament) error {
	if tournament.Status != "" && !tournament.Status.Valid() {
		return ErrTournamentInvalidStatus
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return err
	}
	s.resolveLogoURL(tournament)
	return nil
}

func (s *tournamentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if err := s.loadRelations(ctx, tournament, true); err != nil {
		return nil, err
	}
	s.resolveLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) GetCurrent(ctx context.Context) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if err := s.loadRelations(ctx, tournament, false); err != nil {
		return nil, err
	}
	s.resolveLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) ListHistory(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListCompleted(ctx)
	if err != nil {
		return nil, err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for _, t := range tournaments {
		t := t
		g.Go(func() error {
			standings, err := s.participationRepo.ListStandings(gCtx, t.ID)
			if err != nil {
				return err
			}
			t.Participations = standings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.resolveLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.resolveLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id uuid.UUID, params repositories.TournamentUpdateParams) (*models.Tournament, error) {
	if params.Status != nil && !params.Status.Valid() {
		return nil, ErrTournamentInvalidStatus
	}
	tournament, err := s.tournamentRepo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.resolveLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, errors.New("file storage is not configured")
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("tournaments/%s/logo-%s%s", id, uuid.New(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	previousKey := tournament.LogoKey
	updated, err := s.tournamentRepo.Update(ctx, id, repositories.TournamentUpdateParams{
		LogoKey: models.OptOf(result.Key),
	})
	if err != nil {
		return nil, err
	}

	if previousKey != nil && *previousKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *previousKey); delErr != nil {
			s.logger.Warn("failed to delete previous tournament logo",
				slog.String("tournament_id", id.String()),
				slog.String("key", *previousKey),
				slog.String("error", delErr.Error()),
			)
		}
	}

	s.resolveLogoURL(updated)
	return updated, nil
}

// loadRelations attaches the roster and matches. standings selects the
// results-table ordering (wins desc, losses asc) instead of seed order.
func (s *tournamentService) loadRelations(ctx context.Context, tournament *models.Tournament, standings bool) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list := s.participationRepo.ListByTournament
		if standings {
			list = s.participationRepo.ListStandings
		}
		participations, err := list(gCtx, tournament.ID)
		if err != nil {
			return err
		}
		tournament.Participations = participations
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, tournament.ID)
		if err != nil {
			return err
		}
		tournament.Matches = matches
		return nil
	})
	return g.Wait()
}

func (s *tournamentService) resolveLogoURL(tournament *models.Tournament) {
	if tournament.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*tournament.LogoKey)
	if url != "" {
		tournament.LogoURL = &url
	}
}
