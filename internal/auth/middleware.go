package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kuitang/notes-api/internal/obs"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid or expired token"
)

type identityContextKey struct{}

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Middleware provides authentication middleware for HTTP handlers.
type Middleware struct {
	tokens TokenVerifier
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(tokens TokenVerifier) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth is middleware that requires a valid bearer token.
// Returns 401 Unauthorized if the header is missing or the token is invalid.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, msgNoToken)
			return
		}

		identity, err := m.tokens.Verify(token)
		if err != nil {
			obs.From(r.Context()).Debug("auth_token_rejected", "error", err)
			writeUnauthorized(w, msgInvalidToken)
			return
		}

		ctx := WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithIdentity attaches the caller's identity to the context and tags the
// request's logs with their user ID.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	ctx = obs.WithUserID(ctx, identity.UserID)
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFrom returns the caller's identity, if authenticated.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok
}

// UserID returns the authenticated user's ID, or 0.
func UserID(ctx context.Context) int64 {
	identity, _ := IdentityFrom(ctx)
	return identity.UserID
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="notes-api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
