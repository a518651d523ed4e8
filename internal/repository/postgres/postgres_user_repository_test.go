package repository_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravch/kinofav/internal/models"
	repository "github.com/mkravch/kinofav/internal/repository/postgres"
	pkgerrors "github.com/mkravch/kinofav/pkg/errors"
)

func TestPostgresUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("NilUser", func(t *testing.T) {
		err := repo.Create(ctx, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyLogin", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{PasswordHash: "hash"})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyPasswordHash", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Login: "alice"})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		user := &models.User{Login: "alice", PasswordHash: "hash"}
		createdAt := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (login, password_hash, favorites)`)).
			WithArgs(user.Login, user.PasswordHash, []byte("[]")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))

		err := repo.Create(ctx, user)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LoginTaken", func(t *testing.T) {
		user := &models.User{Login: "alice", PasswordHash: "hash"}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(user.Login, user.PasswordHash, []byte("[]")).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, pkgerrors.ErrUsernameTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		user := &models.User{Login: "alice", PasswordHash: "hash"}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(user.Login, user.PasswordHash, []byte("[]")).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(ctx, user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_GetByLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("EmptyLogin", func(t *testing.T) {
		_, err := repo.GetByLogin(ctx, "")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		createdAt := time.Now()
		rows := sqlmock.NewRows([]string{"id", "login", "password_hash", "favorites", "created_at"}).
			AddRow(int64(7), "alice", "hash", []byte(`[42, 301]`), createdAt)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, password_hash, favorites, created_at FROM users WHERE login = $1`)).
			WithArgs("alice").
			WillReturnRows(rows)

		user, err := repo.GetByLogin(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, "alice", user.Login)
		assert.Equal(t, []int64{42, 301}, user.Favorites)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, password_hash, favorites, created_at FROM users WHERE login = $1`)).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "login", "password_hash", "favorites", "created_at"}))

		_, err := repo.GetByLogin(ctx, "ghost")
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("EmptyFavoritesColumn", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "login", "password_hash", "favorites", "created_at"}).
			AddRow(int64(7), "alice", "hash", []byte(`[]`), time.Now())
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, password_hash, favorites, created_at FROM users WHERE id = $1`)).
			WithArgs(int64(7)).
			WillReturnRows(rows)

		user, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.NotNil(t, user.Favorites)
		assert.Empty(t, user.Favorites)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_UpdateFavorites(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET favorites = $1 WHERE id = $2`)).
			WithArgs([]byte(`[42]`), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFavorites(ctx, 7, []int64{42})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NilFavoritesBecomesEmptyArray", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET favorites = $1 WHERE id = $2`)).
			WithArgs([]byte(`[]`), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFavorites(ctx, 7, nil)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET favorites = $1 WHERE id = $2`)).
			WithArgs([]byte(`[42]`), int64(999)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFavorites(ctx, 999, []int64{42})
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
