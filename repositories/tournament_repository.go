package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/google/uuid"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentUpdateParams struct {
	Name        *string
	Location    *string
	Description *string
	StartDate   *time.Time
	EndDate     models.Opt[time.Time]
	Status      *models.TournamentStatus
	LogoKey     models.Opt[string]
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	// GetCurrent returns the earliest-starting ACTIVE or UPCOMING tournament,
	// or ErrTournamentNotFound when none exists.
	GetCurrent(ctx context.Context) (*models.Tournament, error)
	ListCompleted(ctx context.Context) ([]*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Update(ctx context.Context, id uuid.UUID, params TournamentUpdateParams) (*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db SQLExecutor
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, location, description, status, start_date, end_date, logo_key, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Location,
		&t.Description,
		&t.Status,
		&t.StartDate,
		&t.EndDate,
		&t.LogoKey,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, location, description, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if tournament.ID == uuid.Nil {
		tournament.ID = uuid.New()
	}
	if tournament.Status == "" {
		tournament.Status = models.StatusUpcoming
	}
	err := r.db.QueryRowContext(ctx, query,
		tournament.ID,
		tournament.Name,
		tournament.Location,
		tournament.Description,
		tournament.Status,
		tournament.StartDate,
		tournament.EndDate,
	).Scan(&tournament.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetCurrent(ctx context.Context) (*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status IN ($1, $2)
		ORDER BY start_date ASC
		LIMIT 1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, models.StatusActive, models.StatusUpcoming))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan current tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListCompleted(ctx context.Context) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1
		ORDER BY end_date DESC NULLS LAST`

	return r.queryTournaments(ctx, query, models.StatusCompleted)
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY start_date DESC`
	return r.queryTournaments(ctx, query)
}

func (r *postgresTournamentRepository) Update(ctx context.Context, id uuid.UUID, params TournamentUpdateParams) (*models.Tournament, error) {
	var set []string
	args := []interface{}{}
	placeholder := func(arg interface{}) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	if params.Name != nil {
		set = append(set, "name = "+placeholder(*params.Name))
	}
	if params.Location != nil {
		set = append(set, "location = "+placeholder(*params.Location))
	}
	if params.Description != nil {
		set = append(set, "description = "+placeholder(*params.Description))
	}
	if params.StartDate != nil {
		set = append(set, "start_date = "+placeholder(*params.StartDate))
	}
	if params.EndDate.Set {
		set = append(set, "end_date = "+placeholder(params.EndDate.Value))
	}
	if params.Status != nil {
		set = append(set, "status = "+placeholder(*params.Status))
	}
	if params.LogoKey.Set {
		set = append(set, "logo_key = "+placeholder(params.LogoKey.Value))
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	query := `UPDATE tournaments SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + placeholder(id) +
		` RETURNING ` + tournamentColumns

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) queryTournaments(ctx context.Context, query string, args ...interface{}) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}
