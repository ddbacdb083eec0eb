package api

import (
	"context"
	"net/http"

	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/users"
)

// Accounts is the account service behind the auth routes.
type Accounts interface {
	Register(ctx context.Context, params auth.RegisterParams) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Profile(ctx context.Context, userID int64) (*users.User, error)
}

type sessionResponse struct {
	Message string      `json:"message"`
	User    *users.User `json:"user"`
	Token   string      `json:"token"`
}

// AuthHandler serves /api/auth.
type AuthHandler struct {
	accounts Accounts
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params, err := parseRegister(fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: "User registered successfully",
		User:    session.User,
		Token:   session.Token,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	email, password, err := parseLogin(fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "Login successful",
		User:    session.User,
		Token:   session.Token,
	})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Profile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
