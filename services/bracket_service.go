package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BracketService owns the single-elimination bracket lifecycle: seeding the
// first round (byes included), the derived per-round view, and advancing the
// bracket by pairing winners until a champion emerges.
type BracketService interface {
	GenerateBracket(ctx context.Context, tournamentID uuid.UUID) (*models.BracketGenerationResult, error)
	GetBracketData(ctx context.Context, tournamentID uuid.UUID) (*models.BracketData, error)
	AdvanceBracket(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error)
}

type bracketService struct {
	tournamentRepo    repositories.TournamentRepository
	participationRepo repositories.ParticipationRepository
	matchRepo         repositories.MatchRepository
	logger            *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	locks tournamentLocks
}

// NewBracketService builds the bracket engine. rng is the seeding shuffle
// source; pass a fixed-seed source in tests for deterministic pairings, nil
// for a time-seeded one.
func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	participationRepo repositories.ParticipationRepository,
	matchRepo repositories.MatchRepository,
	rng *rand.Rand,
	logger *slog.Logger,
) BracketService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		tournamentRepo:    tournamentRepo,
		participationRepo: participationRepo,
		matchRepo:         matchRepo,
		logger:            logger,
		rng:               rng,
		locks:             tournamentLocks{m: make(map[uuid.UUID]*sync.Mutex)},
	}
}

// tournamentLocks serializes bracket writers per tournament. The read-check
// ("is the frontier round complete") and the follow-up round creation are
// separate store round-trips; without this, two concurrent winner reports for
// the last two matches of a round could both create the next round.
type tournamentLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*sync.Mutex
}

func (l *tournamentLocks) forTournament(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.m[id]
	if !ok {
		lock = &sync.Mutex{}
		l.m[id] = lock
	}
	return lock
}

// bracketDims returns the bracket geometry for n participants: the number of
// rounds, the padded power-of-two bracket size, and the bye count.
func bracketDims(n int) (numRounds, bracketSize, numByes int) {
	if n < 2 {
		return 0, 0, 0
	}
	numRounds = int(math.Ceil(math.Log2(float64(n))))
	bracketSize = 1 << uint(numRounds)
	numByes = bracketSize - n
	return numRounds, bracketSize, numByes
}

func roundName(round, totalRounds int) string {
	switch round {
	case totalRounds:
		return "Final"
	case totalRounds - 1:
		return "Semi-Finals"
	case totalRounds - 2:
		return "Quarter-Finals"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID uuid.UUID) (*models.BracketGenerationResult, error) {
	lock := s.locks.forTournament(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", tournamentID, err)
	}

	existing, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	if len(existing) > 0 {
		return nil, ErrBracketAlreadyExists
	}

	participations, err := s.participationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations for tournament %s: %w", tournamentID, err)
	}
	if len(participations) < 2 {
		return nil, ErrBracketNotEnoughParticipants
	}

	// A fresh bracket always starts from zeroed stats, even if a previous
	// partially played bracket left counters behind.
	if err := s.participationRepo.ResetStats(ctx, tournamentID); err != nil {
		return nil, err
	}

	shuffled := make([]models.Participation, len(participations))
	copy(shuffled, participations)
	s.rngMu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.rngMu.Unlock()

	n := len(shuffled)
	numRounds, bracketSize, numByes := bracketDims(n)

	s.logger.Info("generating bracket",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("participants", n),
		slog.Int("rounds", numRounds),
		slog.Int("bracket_size", bracketSize),
		slog.Int("byes", numByes),
	)

	created := make([]*models.Match, 0, (n-numByes)/2+numByes)

	// Paired slots come off the front of the shuffled list, two at a time.
	idx := 0
	for i := 0; i < n-numByes; i += 2 {
		match, createErr := s.matchRepo.Create(ctx, &models.Match{
			TournamentID: tournament.ID,
			PlayerAID:    shuffled[idx].UserID,
			PlayerBID:    shuffled[idx+1].UserID,
			RoundNumber:  1,
		})
		if createErr != nil {
			return nil, fmt.Errorf("failed to create round 1 match: %w", createErr)
		}
		created = append(created, match)
		idx += 2
	}

	// The leftover participants each get a bye: a self-match persisted with
	// the winner pre-set so advancement treats it as already complete. Byes
	// never touch win/loss statistics.
	for i := 0; i < numByes; i++ {
		playerID := shuffled[idx].UserID
		match, createErr := s.matchRepo.Create(ctx, &models.Match{
			TournamentID: tournament.ID,
			PlayerAID:    playerID,
			PlayerBID:    playerID,
			RoundNumber:  1,
		})
		if createErr != nil {
			return nil, fmt.Errorf("failed to create bye match: %w", createErr)
		}
		now := time.Now()
		match, createErr = s.matchRepo.Update(ctx, match.ID, repositories.MatchUpdateParams{
			WinnerID:    models.OptOf(playerID),
			CompletedAt: models.OptOf(now),
		})
		if createErr != nil {
			return nil, fmt.Errorf("failed to complete bye match: %w", createErr)
		}
		created = append(created, match)
		idx++
	}

	return &models.BracketGenerationResult{
		TournamentID:    tournament.ID,
		NumRounds:       numRounds,
		NumParticipants: n,
		NumByes:         numByes,
		Matches:         created,
	}, nil
}

func (s *bracketService) GetBracketData(ctx context.Context, tournamentID uuid.UUID) (*models.BracketData, error) {
	var (
		matches        []*models.Match
		participations []models.Participation
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.tournamentRepo.GetByID(gCtx, tournamentID)
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		participations, err = s.participationRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// numRounds is always derived from the current roster, not from the match
	// rows, so it is meaningful before generation too. Round names can drift
	// if the roster changes after generation.
	numRounds, _, _ := bracketDims(len(participations))

	data := &models.BracketData{
		Rounds:          []models.BracketRound{},
		NumRounds:       numRounds,
		NumParticipants: len(participations),
	}
	if len(matches) == 0 {
		return data, nil
	}

	// Matches arrive ordered by (round, created_at), so a single pass builds
	// the rounds already sorted.
	for _, m := range matches {
		if len(data.Rounds) == 0 || data.Rounds[len(data.Rounds)-1].RoundNumber != m.RoundNumber {
			data.Rounds = append(data.Rounds, models.BracketRound{
				RoundNumber: m.RoundNumber,
				RoundName:   roundName(m.RoundNumber, numRounds),
				Matches:     []*models.Match{},
			})
		}
		last := &data.Rounds[len(data.Rounds)-1]
		last.Matches = append(last.Matches, m)
	}

	return data, nil
}

func (s *bracketService) AdvanceBracket(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	lock := s.locks.forTournament(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	if len(matches) == 0 {
		return []*models.Match{}, nil
	}

	// The frontier is the highest round with matches; the listing is ordered
	// by round, so it sits at the tail.
	frontier := matches[len(matches)-1].RoundNumber
	var frontierMatches []*models.Match
	for _, m := range matches {
		if m.RoundNumber == frontier {
			frontierMatches = append(frontierMatches, m)
		}
	}

	for _, m := range frontierMatches {
		if !m.IsComplete() {
			return []*models.Match{}, nil
		}
	}

	// A complete single-match frontier is the final: nothing left to create.
	if len(frontierMatches) == 1 {
		return []*models.Match{}, nil
	}

	// Pair winners positionally in creation order: winner of match 0 plays
	// winner of match 1, and so on.
	created := make([]*models.Match, 0, len(frontierMatches)/2)
	for i := 0; i+1 < len(frontierMatches); i += 2 {
		first, second := frontierMatches[i], frontierMatches[i+1]
		if first.WinnerID == nil || second.WinnerID == nil {
			continue
		}
		match, createErr := s.matchRepo.Create(ctx, &models.Match{
			TournamentID: tournamentID,
			PlayerAID:    *first.WinnerID,
			PlayerBID:    *second.WinnerID,
			RoundNumber:  frontier + 1,
		})
		if createErr != nil {
			return nil, fmt.Errorf("failed to create round %d match: %w", frontier+1, createErr)
		}
		created = append(created, match)
	}

	if len(created) > 0 {
		s.logger.Info("bracket advanced",
			slog.String("tournament_id", tournamentID.String()),
			slog.Int("round", frontier+1),
			slog.Int("matches", len(created)),
		)
	}
	return created, nil
}
