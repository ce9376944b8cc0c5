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
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPlayerInvalid = errors.New("match references unknown player")
	ErrMatchTournamentInvalid = errors.New("match references unknown tournament")
)

// MatchScope filters listings the way the mobile client consumes them.
type MatchScope string

const (
	MatchScopeAll       MatchScope = "all"
	MatchScopeUpcoming  MatchScope = "upcoming"
	MatchScopeCompleted MatchScope = "completed"
)

type MatchListFilter struct {
	TournamentID *uuid.UUID
	Scope        MatchScope
}

// MatchUpdateParams carries a partial update. Pointer fields are applied only
// when non-nil; Opt fields are applied whenever Set, including explicit NULL.
// Touching ScheduledAt always clears reminder_sent_at so a rescheduled match
// becomes eligible for a fresh reminder.
type MatchUpdateParams struct {
	PlayerAID   *uuid.UUID
	PlayerBID   *uuid.UUID
	TableNumber models.Opt[int]
	ScheduledAt models.Opt[time.Time]
	CompletedAt models.Opt[time.Time]
	WinnerID    models.Opt[uuid.UUID]
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) (*models.Match, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	// ListByTournament returns matches ordered by (round_number ASC,
	// created_at ASC), the ordering the bracket engine pairs winners by.
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error)
	List(ctx context.Context, filter MatchListFilter) ([]*models.Match, error)
	Update(ctx context.Context, id uuid.UUID, params MatchUpdateParams) (*models.Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error)
	// ListDueReminders returns unfinished matches scheduled inside [from, to]
	// that have not had a reminder sent yet.
	ListDueReminders(ctx context.Context, from, to time.Time) ([]*models.Match, error)
	MarkRemindersSent(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type postgresMatchRepository struct {
	db SQLExecutor
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchSelect = `
	SELECT m.id, m.tournament_id, m.player_a_id, m.player_b_id, m.winner_id,
	       m.round_number, m.table_number, m.scheduled_at, m.completed_at,
	       m.reminder_sent_at, m.created_at,
	       a.id, a.google_id, a.email, a.display_name, a.avatar_url, a.expo_push_token, a.created_at, a.updated_at,
	       b.id, b.google_id, b.email, b.display_name, b.avatar_url, b.expo_push_token, b.created_at, b.updated_at,
	       w.id, w.google_id, w.email, w.display_name, w.avatar_url, w.expo_push_token, w.created_at, w.updated_at
	FROM matches m
	JOIN users a ON a.id = m.player_a_id
	JOIN users b ON b.id = m.player_b_id
	LEFT JOIN users w ON w.id = m.winner_id`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	playerA := &models.User{}
	playerB := &models.User{}
	var (
		wID        uuid.NullUUID
		wGoogleID  sql.NullString
		wEmail     sql.NullString
		wName      sql.NullString
		wAvatar    sql.NullString
		wPushToken sql.NullString
		wCreated   sql.NullTime
		wUpdated   sql.NullTime
	)

	err := row.Scan(
		&m.ID, &m.TournamentID, &m.PlayerAID, &m.PlayerBID, &m.WinnerID,
		&m.RoundNumber, &m.TableNumber, &m.ScheduledAt, &m.CompletedAt,
		&m.ReminderSentAt, &m.CreatedAt,
		&playerA.ID, &playerA.GoogleID, &playerA.Email, &playerA.DisplayName, &playerA.AvatarURL, &playerA.ExpoPushToken, &playerA.CreatedAt, &playerA.UpdatedAt,
		&playerB.ID, &playerB.GoogleID, &playerB.Email, &playerB.DisplayName, &playerB.AvatarURL, &playerB.ExpoPushToken, &playerB.CreatedAt, &playerB.UpdatedAt,
		&wID, &wGoogleID, &wEmail, &wName, &wAvatar, &wPushToken, &wCreated, &wUpdated,
	)
	if err != nil {
		return nil, err
	}

	m.PlayerA = playerA
	m.PlayerB = playerB
	if wID.Valid {
		winner := &models.User{
			ID:          wID.UUID,
			GoogleID:    wGoogleID.String,
			Email:       wEmail.String,
			DisplayName: wName.String,
			CreatedAt:   wCreated.Time,
			UpdatedAt:   wUpdated.Time,
		}
		if wAvatar.Valid {
			winner.AvatarURL = &wAvatar.String
		}
		if wPushToken.Valid {
			winner.ExpoPushToken = &wPushToken.String
		}
		m.Winner = winner
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) (*models.Match, error) {
	query := `
		INSERT INTO matches (id, tournament_id, player_a_id, player_b_id, round_number, table_number, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	if match.RoundNumber == 0 {
		match.RoundNumber = 1
	}
	err := r.db.QueryRowContext(ctx, query,
		match.ID,
		match.TournamentID,
		match.PlayerAID,
		match.PlayerBID,
		match.RoundNumber,
		match.TableNumber,
		match.ScheduledAt,
	).Scan(&match.CreatedAt)
	if err != nil {
		return nil, r.handleMatchError(err)
	}
	return r.GetByID(ctx, match.ID)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := matchSelect + ` WHERE m.id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	query := matchSelect + `
	WHERE m.tournament_id = $1
	ORDER BY m.round_number ASC, m.created_at ASC`

	return r.queryMatches(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) List(ctx context.Context, filter MatchListFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(matchSelect)
	queryBuilder.WriteString(" WHERE 1=1")

	args := []interface{}{}
	if filter.TournamentID != nil {
		args = append(args, *filter.TournamentID)
		queryBuilder.WriteString(" AND m.tournament_id = $" + strconv.Itoa(len(args)))
	}

	switch filter.Scope {
	case MatchScopeUpcoming:
		queryBuilder.WriteString(" AND m.completed_at IS NULL")
		queryBuilder.WriteString(" ORDER BY m.scheduled_at ASC NULLS LAST, m.created_at ASC")
	case MatchScopeCompleted:
		queryBuilder.WriteString(" AND m.completed_at IS NOT NULL")
		queryBuilder.WriteString(" ORDER BY m.completed_at DESC, m.scheduled_at DESC, m.created_at DESC")
	default:
		queryBuilder.WriteString(" ORDER BY m.scheduled_at ASC NULLS LAST, m.created_at ASC")
	}

	return r.queryMatches(ctx, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) Update(ctx context.Context, id uuid.UUID, params MatchUpdateParams) (*models.Match, error) {
	var set []string
	args := []interface{}{}
	placeholder := func(arg interface{}) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	if params.PlayerAID != nil {
		set = append(set, "player_a_id = "+placeholder(*params.PlayerAID))
	}
	if params.PlayerBID != nil {
		set = append(set, "player_b_id = "+placeholder(*params.PlayerBID))
	}
	if params.TableNumber.Set {
		set = append(set, "table_number = "+placeholder(params.TableNumber.Value))
	}
	if params.ScheduledAt.Set {
		set = append(set, "scheduled_at = "+placeholder(params.ScheduledAt.Value))
		set = append(set, "reminder_sent_at = NULL")
	}
	if params.CompletedAt.Set {
		set = append(set, "completed_at = "+placeholder(params.CompletedAt.Value))
	}
	if params.WinnerID.Set {
		set = append(set, "winner_id = "+placeholder(params.WinnerID.Value))
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	query := `UPDATE matches SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + placeholder(id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.handleMatchError(err)
	}
	if err := checkAffectedRows(result, ErrMatchNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches for tournament %s: %w", tournamentID, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) ListDueReminders(ctx context.Context, from, to time.Time) ([]*models.Match, error) {
	query := matchSelect + `
	WHERE m.completed_at IS NULL
	  AND m.reminder_sent_at IS NULL
	  AND m.scheduled_at >= $1
	  AND m.scheduled_at <= $2
	ORDER BY m.scheduled_at ASC`

	return r.queryMatches(ctx, query, from, to)
}

func (r *postgresMatchRepository) MarkRemindersSent(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE matches SET reminder_sent_at = $1 WHERE id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, at, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark reminders sent: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_player_a_id_fkey", "matches_player_b_id_fkey", "matches_winner_id_fkey":
			return ErrMatchPlayerInvalid
		}
	}
	return err
}
