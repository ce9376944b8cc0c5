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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email already in use")
)

type UserRepository interface {
	UpsertByGoogleID(ctx context.Context, user *models.User) error
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetExpoPushToken(ctx context.Context, id uuid.UUID, token *string) error
}

type postgresUserRepository struct {
	db SQLExecutor
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, google_id, email, display_name, avatar_url, expo_push_token, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.DisplayName,
		&user.AvatarURL,
		&user.ExpoPushToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpsertByGoogleID inserts the user or refreshes email/display name/avatar
// for an existing google_id, matching the sign-in flow where Google is the
// source of truth for profile fields.
func (r *postgresUserRepository) UpsertByGoogleID(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, google_id, email, display_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (google_id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = now()
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.New(), user.GoogleID, user.Email, user.DisplayName, user.AvatarURL)

	stored, err := scanUser(row)
	if err != nil {
		return r.handleUserError(err)
	}
	*user = *stored
	return nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, google_id, email, display_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.GoogleID, user.Email, user.DisplayName, user.AvatarURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return r.handleUserError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user %s: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY display_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", scanErr)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during user rows iteration: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) SetExpoPushToken(ctx context.Context, id uuid.UUID, token *string) error {
	query := `UPDATE users SET expo_push_token = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, token, id)
	if err != nil {
		return fmt.Errorf("failed to update push token for user %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) handleUserError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrUserEmailConflict
		}
	}
	return err
}
