package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/chukul/cloudview/internal/errors"
)

const uniqueViolation = "23505"

// User is an API account.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

var (
	ErrUserNotFound      = apperrors.Wrap(apperrors.ErrNotFound, "user not found")
	ErrUserAlreadyExists = apperrors.Wrap(apperrors.ErrConflict, "Email already registered")
)

const schema = `CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	email VARCHAR NOT NULL UNIQUE,
	hashed_password VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
)`

// UserRepository reads and writes the users table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Migrate creates the users table when it is missing.
func (r *UserRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return apperrors.Wrap(err, "failed to create users table")
	}
	return nil
}

// Create inserts a user. A duplicate email yields ErrUserAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, email, hashedPassword string) (*User, error) {
	u := &User{Email: email, HashedPassword: hashedPassword}

	query := `INSERT INTO users (email, hashed_password) VALUES ($1, $2) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, email, hashedPassword).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, apperrors.Wrap(err, "failed to create user")
	}
	return u, nil
}

// GetByEmail returns the user with email or ErrUserNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User

	query := `SELECT id, email, hashed_password, created_at FROM users WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return &u, nil
}

// Ping checks the connection for readiness probes.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
