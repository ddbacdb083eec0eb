package auth

import (
	"context"

	"github.com/kuitang/notes-api/internal/clock"
	"github.com/kuitang/notes-api/internal/db"
	"github.com/kuitang/notes-api/internal/errs"
	"github.com/kuitang/notes-api/internal/obs"
	"github.com/kuitang/notes-api/internal/users"
)

const (
	ErrEmailTaken         = "Email already registered"
	ErrUsernameTaken      = "Username already taken"
	ErrInvalidCredentials = "Invalid email or password"
)

// RegisterParams are already-validated registration inputs.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

// UserService handles account registration, login and profile lookup.
type UserService struct {
	store  *db.Store
	hasher PasswordHasher
	tokens *TokenIssuer
	clock  clock.Clock
}

// NewUserService creates a new user service.
func NewUserService(store *db.Store, hasher PasswordHasher, tokens *TokenIssuer) *UserService {
	return &UserService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		clock:  clock.Real{},
	}
}

// SetClock replaces the clock used by the service. Intended for testing.
func (s *UserService) SetClock(c clock.Clock) {
	s.clock = c
}

// Register creates an account and signs the user in. The email is checked
// before the username, so a request that collides on both reports the email.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	var user *users.User
	err := s.store.WithTx(ctx, func(tx db.DBTX) error {
		repo := users.NewRepository(tx, s.clock)

		if _, err := repo.FindByEmail(ctx, params.Email); err == nil {
			return errs.New(errs.AlreadyExists, ErrEmailTaken)
		} else if !errs.Is(err, errs.NotFound) {
			return err
		}

		if _, err := repo.FindByUsername(ctx, params.Username); err == nil {
			return errs.New(errs.AlreadyExists, ErrUsernameTaken)
		} else if !errs.Is(err, errs.NotFound) {
			return err
		}

		hash, err := s.hasher.HashPassword(params.Password)
		if err != nil {
			return err
		}

		user, err = repo.Create(ctx, users.CreateUserParams{
			Username:     params.Username,
			Email:        params.Email,
			PasswordHash: hash,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	obs.From(ctx).Info("user_registered", "user_id", user.ID)
	return s.issue(user)
}

// Login verifies the credentials. An unknown email and a wrong password get
// the same Unauthenticated error.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	creds, err := users.NewRepository(s.store.DB(), s.clock).FindByEmail(ctx, email)
	if errs.Is(err, errs.NotFound) {
		return nil, errs.New(errs.Unauthenticated, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.VerifyPassword(password, creds.PasswordHash) {
		return nil, errs.New(errs.Unauthenticated, ErrInvalidCredentials)
	}

	user := creds.User
	return s.issue(&user)
}

// Profile returns the user, or NotFound if the account no longer exists.
func (s *UserService) Profile(ctx context.Context, userID int64) (*users.User, error) {
	return users.NewRepository(s.store.DB(), s.clock).FindByID(ctx, userID)
}

func (s *UserService) issue(user *users.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}
