package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chukul/cloudview/internal/errors"
)

func withMockRepo(t *testing.T, fn func(*UserRepository, sqlmock.Sqlmock)) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fn(NewUserRepository(db), mock)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	withMockRepo(t, func(repo *UserRepository, mock sqlmock.Sqlmock) {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Migrate(context.Background()))
	})
}

func TestCreate(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("inserts", func(t *testing.T) {
		withMockRepo(t, func(repo *UserRepository, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email, hashed_password)")).
				WithArgs("dev@example.com", "hash").
				WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, created))

			u, err := repo.Create(context.Background(), "dev@example.com", "hash")
			require.NoError(t, err)
			assert.Equal(t, int64(7), u.ID)
			assert.Equal(t, created, u.CreatedAt)
		})
	})

	t.Run("duplicate email", func(t *testing.T) {
		withMockRepo(t, func(repo *UserRepository, mock sqlmock.Sqlmock) {
			mock.ExpectQuery("INSERT INTO users").
				WithArgs("dev@example.com", "hash").
				WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

			_, err := repo.Create(context.Background(), "dev@example.com", "hash")
			assert.ErrorIs(t, err, ErrUserAlreadyExists)
			assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		})
	})

	t.Run("other failure", func(t *testing.T) {
		withMockRepo(t, func(repo *UserRepository, mock sqlmock.Sqlmock) {
			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(errors.New("connection reset"))

			_, err := repo.Create(context.Background(), "dev@example.com", "hash")
			assert.ErrorContains(t, err, "failed to create user")
			assert.False(t, apperrors.Is(err, apperrors.ErrConflict))
		})
	})
}

func TestGetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		withMockRepo(t, func(repo *UserRepository, mock sqlmock.Sqlmock) {
			rows := sqlmock.NewRows([]string{"id", "email", "hashed_password", "created_at"}).
				AddRow(1, "dev@example.com", "hash", time.Now())
			mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, hashed_password, created_at FROM users")).
				WithArgs("dev@example.com").
				WillReturnRows(rows)

			u, err := repo.GetByEmail(context.Background(), "dev@example.com")
			require.NoError(t, err)
			assert.Equal(t, "hash", u.HashedPassword)
		})
	})

	t.Run("missing", func(t *testing.T) {
		withMockRepo(t, func(repo *UserRepository, mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT id, email").
				WithArgs("nobody@example.com").
				WillReturnError(sql.ErrNoRows)

			_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
			assert.ErrorIs(t, err, ErrUserNotFound)
			assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
		})
	})
}
