package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrParticipationNotFound = errors.New("participation not found")
	ErrParticipationConflict = errors.New("user already registered for this tournament")
	ErrParticipationInvalid  = errors.New("participation references unknown user or tournament")
)

type ParticipationRepository interface {
	Create(ctx context.Context, participation *models.Participation) error
	// ListByTournament returns participations with the user relation loaded,
	// ordered by seed then join time.
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error)
	// ListStandings returns the same rows ordered as a results table: wins
	// descending, losses ascending.
	ListStandings(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error)
	// ListByUser returns participations with the tournament relation loaded.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Participation, error)
	DeleteByTournamentAndUser(ctx context.Context, tournamentID, userID uuid.UUID) error
	// ResetStats zeroes wins/losses for every participation of the tournament.
	ResetStats(ctx context.Context, tournamentID uuid.UUID) error
	// IncrementWins and IncrementLosses are blind updates scoped by
	// (tournament, user); a missing participation row is not an error.
	IncrementWins(ctx context.Context, tournamentID, userID uuid.UUID) error
	IncrementLosses(ctx context.Context, tournamentID, userID uuid.UUID) error
}

type postgresParticipationRepository struct {
	db SQLExecutor
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) Create(ctx context.Context, participation *models.Participation) error {
	query := `
		INSERT INTO participations (id, tournament_id, user_id, seed)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if participation.ID == uuid.Nil {
		participation.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query,
		participation.ID,
		participation.TournamentID,
		participation.UserID,
		participation.Seed,
	).Scan(&participation.CreatedAt)
	return r.handleParticipationError(err)
}

func (r *postgresParticipationRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error) {
	return r.listByTournament(ctx, tournamentID, "p.seed ASC NULLS LAST, p.created_at ASC")
}

func (r *postgresParticipationRepository) ListStandings(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error) {
	return r.listByTournament(ctx, tournamentID, "p.wins DESC, p.losses ASC, p.created_at ASC")
}

func (r *postgresParticipationRepository) listByTournament(ctx context.Context, tournamentID uuid.UUID, orderBy string) ([]models.Participation, error) {
	query := `
		SELECT p.id, p.tournament_id, p.user_id, p.seed, p.wins, p.losses, p.created_at,
		       u.id, u.google_id, u.email, u.display_name, u.avatar_url, u.expo_push_token, u.created_at, u.updated_at
		FROM participations p
		JOIN users u ON u.id = p.user_id
		WHERE p.tournament_id = $1
		ORDER BY ` + orderBy

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	participations := make([]models.Participation, 0)
	for rows.Next() {
		var p models.Participation
		var u models.User
		if scanErr := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserID, &p.Seed, &p.Wins, &p.Losses, &p.CreatedAt,
			&u.ID, &u.GoogleID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.ExpoPushToken, &u.CreatedAt, &u.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", scanErr)
		}
		p.User = &u
		participations = append(participations, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participation rows iteration: %w", err)
	}
	return participations, nil
}

func (r *postgresParticipationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Participation, error) {
	query := `
		SELECT p.id, p.tournament_id, p.user_id, p.seed, p.wins, p.losses, p.created_at,
		       t.id, t.name, t.location, t.description, t.status, t.start_date, t.end_date, t.logo_key, t.created_at
		FROM participations p
		JOIN tournaments t ON t.id = p.tournament_id
		WHERE p.user_id = $1
		ORDER BY t.start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations for user %s: %w", userID, err)
	}
	defer rows.Close()

	participations := make([]models.Participation, 0)
	for rows.Next() {
		var p models.Participation
		var t models.Tournament
		if scanErr := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserID, &p.Seed, &p.Wins, &p.Losses, &p.CreatedAt,
			&t.ID, &t.Name, &t.Location, &t.Description, &t.Status, &t.StartDate, &t.EndDate, &t.LogoKey, &t.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", scanErr)
		}
		p.Tournament = &t
		participations = append(participations, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participation rows iteration: %w", err)
	}
	return participations, nil
}

func (r *postgresParticipationRepository) DeleteByTournamentAndUser(ctx context.Context, tournamentID, userID uuid.UUID) error {
	query := `DELETE FROM participations WHERE tournament_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) ResetStats(ctx context.Context, tournamentID uuid.UUID) error {
	query := `UPDATE participations SET wins = 0, losses = 0 WHERE tournament_id = $1`
	if _, err := r.db.ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to reset participation stats for tournament %s: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresParticipationRepository) IncrementWins(ctx context.Context, tournamentID, userID uuid.UUID) error {
	query := `UPDATE participations SET wins = wins + 1 WHERE tournament_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, tournamentID, userID); err != nil {
		return fmt.Errorf("failed to increment wins for user %s: %w", userID, err)
	}
	return nil
}

func (r *postgresParticipationRepository) IncrementLosses(ctx context.Context, tournamentID, userID uuid.UUID) error {
	query := `UPDATE participations SET losses = losses + 1 WHERE tournament_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, tournamentID, userID); err != nil {
		return fmt.Errorf("failed to increment losses for user %s: %w", userID, err)
	}
	return nil
}

func (r *postgresParticipationRepository) handleParticipationError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "participations_tournament_id_user_id_key":
			return ErrParticipationConflict
		case "participations_tournament_id_fkey", "participations_user_id_fkey":
			return ErrParticipationInvalid
		}
	}
	return err
}
