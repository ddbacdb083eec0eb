// Package users stores user accounts. Records are immutable once created.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kuitang/notes-api/internal/clock"
	"github.com/kuitang/notes-api/internal/db"
	"github.com/kuitang/notes-api/internal/errs"
)

// ErrUserNotFound is the message returned for a missing user.
const ErrUserNotFound = "User not found"

// User is the public view of an account. The password hash is never part of it.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Credentials pairs a user with their stored password hash, for login only.
type Credentials struct {
	User
	PasswordHash string
}

// CreateUserParams contains parameters for creating a user.
// Email is expected to be normalized already.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// Repository handles user storage.
type Repository struct {
	db    db.DBTX
	clock clock.Clock
}

// NewRepository creates a user repository over q. A nil clock uses the system time.
func NewRepository(q db.DBTX, c clock.Clock) *Repository {
	if c == nil {
		c = clock.Real{}
	}
	return &Repository{db: q, clock: c}
}

// Create inserts a user. A duplicate username or email is AlreadyExists.
func (r *Repository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	now := r.clock.Now().UTC().UnixMilli()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password, created_at) VALUES (?, ?, ?, ?)`,
		params.Username, params.Email, params.PasswordHash, now,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errs.Wrap(errs.AlreadyExists, "Resource already exists", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new user ID: %w", err)
	}

	return &User{
		ID:        id,
		Username:  params.Username,
		Email:     params.Email,
		CreatedAt: time.UnixMilli(now).UTC(),
	}, nil
}

// FindByID returns the user or a NotFound error.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, email, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// FindByUsername returns the user or a NotFound error.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, email, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// FindByEmail returns the user together with their password hash, or a
// NotFound error.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Credentials, error) {
	var (
		c         Credentials
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at, password FROM users WHERE email = ?`, email,
	).Scan(&c.ID, &c.Username, &c.Email, &createdAt, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrap(errs.NotFound, ErrUserNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &c, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u         User
		createdAt int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrap(errs.NotFound, ErrUserNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &u, nil
}
