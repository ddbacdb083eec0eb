package api

import (
	"net/http"
	"strconv"

	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/ratelimit"
	"github.com/kuitang/notes-api/internal/web"
)

// Deps are the collaborators the router dispatches to. Limiters and Pages
// are optional.
type Deps struct {
	Accounts Accounts
	Tokens   auth.TokenVerifier
	Notes    NoteStore
	Guard    Authorizer
	Exports  Exporter
	Health   Pinger
	Pages    *web.Handler

	// UserLimiter is keyed per authenticated user on note and export routes.
	UserLimiter *ratelimit.RateLimiter
	// AuthLimiter is keyed per client IP on register and login.
	AuthLimiter *ratelimit.RateLimiter
	TrustProxy  bool
	CORSOrigins []string
}

// NewRouter builds the full route table wrapped in the recovery, security
// header and CORS middleware. Request correlation and access logging are the
// caller's to add outside it.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	requireAuth := auth.NewMiddleware(d.Tokens).RequireAuth

	perIP := passthrough
	if d.AuthLimiter != nil {
		perIP = ratelimit.Middleware(d.AuthLimiter, ratelimit.ClientIP(d.TrustProxy))
	}
	perUser := passthrough
	if d.UserLimiter != nil {
		perUser = ratelimit.Middleware(d.UserLimiter, userKey)
	}
	authed := func(h http.HandlerFunc, extra ...func(http.Handler) http.Handler) http.Handler {
		return chain(h, append([]func(http.Handler) http.Handler{requireAuth, perUser}, extra...)...)
	}

	accounts := NewAuthHandler(d.Accounts)
	mux.Handle("POST /api/auth/register", perIP(http.HandlerFunc(accounts.Register)))
	mux.Handle("POST /api/auth/login", perIP(http.HandlerFunc(accounts.Login)))
	mux.Handle("GET /api/auth/profile", requireAuth(http.HandlerFunc(accounts.Profile)))

	nh := NewNotesHandler(d.Notes, d.Guard)
	mux.Handle("POST /api/notes", authed(nh.Create))
	mux.Handle("GET /api/notes", authed(nh.List))
	mux.Handle("GET /api/notes/tags", authed(nh.Tags))
	mux.Handle("GET /api/notes/{id}", authed(nh.Get, nh.RequireOwnership))
	mux.Handle("PUT /api/notes/{id}", authed(nh.Update, nh.RequireOwnership))
	mux.Handle("DELETE /api/notes/{id}", authed(nh.Delete, nh.RequireOwnership))

	if d.Exports != nil {
		eh := NewExportHandler(d.Exports)
		mux.Handle("POST /api/exports", authed(eh.Create))
		mux.Handle("GET /api/exports/{id}", authed(eh.Get))
	}

	if d.Health != nil {
		mux.HandleFunc("GET /healthz", Health(d.Health))
	}
	if d.Pages != nil {
		d.Pages.RegisterRoutes(mux)
	}

	return chain(mux, Recover, SecurityHeaders, CORS(d.CORSOrigins))
}

func passthrough(h http.Handler) http.Handler { return h }

func userKey(r *http.Request) string {
	id := auth.UserID(r.Context())
	if id == 0 {
		return ""
	}
	return "user:" + strconv.FormatInt(id, 10)
}
