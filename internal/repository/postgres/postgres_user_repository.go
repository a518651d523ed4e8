package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mkravch/kinofav/internal/models"
	pkgerrors "github.com/mkravch/kinofav/pkg/errors"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new user. Login uniqueness is enforced by the unique
// index on the login column: a conflict maps to ErrUsernameTaken, so
// concurrent registrations of the same login cannot both succeed.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("%w: user is nil", pkgerrors.ErrInvalidInput)
	}
	if user.Login == "" || user.PasswordHash == "" {
		return fmt.Errorf("%w: login and password_hash are required", pkgerrors.ErrInvalidInput)
	}

	favorites := user.Favorites
	if favorites == nil {
		favorites = []int64{}
	}
	favoritesJSON, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	query := `
	INSERT INTO users (login, password_hash, favorites)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
	`
	err = r.db.QueryRowContext(
		ctx,
		query,
		user.Login,
		user.PasswordHash,
		favoritesJSON,
	).Scan(&user.ID, &user.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pkgerrors.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, login, password_hash, favorites, created_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if login == "" {
		return nil, fmt.Errorf("%w: login cannot be empty", pkgerrors.ErrInvalidInput)
	}
	query := `SELECT id, login, password_hash, favorites, created_at FROM users WHERE login = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, login))
}

func (r *PostgresUserRepository) UpdateFavorites(ctx context.Context, userID int64, favorites []int64) error {
	if favorites == nil {
		favorites = []int64{}
	}
	favoritesJSON, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	query := `UPDATE users SET favorites = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, favoritesJSON, userID)
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var favoritesJSON []byte

	err := row.Scan(
		&user.ID,
		&user.Login,
		&user.PasswordHash,
		&favoritesJSON,
		&user.CreatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := json.Unmarshal(favoritesJSON, &user.Favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	if user.Favorites == nil {
		user.Favorites = []int64{}
	}
	return &user, nil
}
