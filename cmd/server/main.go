// Command server runs the notes API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/notes-api/internal/api"
	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/clock"
	"github.com/kuitang/notes-api/internal/config"
	"github.com/kuitang/notes-api/internal/db"
	"github.com/kuitang/notes-api/internal/export"
	"github.com/kuitang/notes-api/internal/notes"
	"github.com/kuitang/notes-api/internal/obs"
	"github.com/kuitang/notes-api/internal/ratelimit"
	"github.com/kuitang/notes-api/internal/s3client"
	"github.com/kuitang/notes-api/internal/web"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	addr, dbPath := config.ParseFlags()
	cfg := config.MustLoadConfig(addr, dbPath)

	obs.Init()
	cfg.PrintStartupSummary()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		obs.Pkg("main").Error("server_exit", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg *config.Config) error {
	store, err := db.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	var bucket export.ObjectStore
	if cfg.ExportsEnabled() {
		client, err := s3client.New(ctx, s3client.Config{
			Endpoint:        cfg.AWSEndpointS3,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			BucketName:      cfg.ExportBucket,
			UsePathStyle:    cfg.AWSEndpointS3 != "",
		})
		if err != nil {
			return fmt.Errorf("failed to create export client: %w", err)
		}
		bucket = client
	}

	a, err := newApp(cfg, store, bucket, clock.Real{})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obs.Pkg("main").Info("server_listening", "addr", cfg.ListenAddr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	obs.Pkg("main").Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// app is the wired service graph.
type app struct {
	handler     http.Handler
	userLimiter *ratelimit.RateLimiter
	authLimiter *ratelimit.RateLimiter
}

// newApp wires the repositories, services and router over store. A nil
// bucket disables exports.
func newApp(cfg *config.Config, store *db.Store, bucket export.ObjectStore, c clock.Clock) (*app, error) {
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTExpiresIn, c)
	accounts := auth.NewUserService(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens)
	accounts.SetClock(c)

	repo := notes.NewRepository(store.DB(), c)

	pages, err := web.NewHandler(web.Options{
		Version:    version,
		BaseURL:    cfg.BaseURL,
		TrustProxy: cfg.TrustProxy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}

	a := &app{
		userLimiter: ratelimit.NewRateLimiterWithClock(cfg.RateLimitConfig, c),
		authLimiter: ratelimit.NewRateLimiterWithClock(cfg.AuthRateLimitConfig, c),
	}
	router := api.NewRouter(api.Deps{
		Accounts:    accounts,
		Tokens:      tokens,
		Notes:       repo,
		Guard:       notes.NewGuard(repo),
		Exports:     export.NewService(bucket, repo, c),
		Health:      store,
		Pages:       pages,
		UserLimiter: a.userLimiter,
		AuthLimiter: a.authLimiter,
		TrustProxy:  cfg.TrustProxy,
		CORSOrigins: cfg.CORSOrigins,
	})
	a.handler = obs.RequestContextMiddleware(obs.AccessLogMiddleware("http", router))
	return a, nil
}

// Close stops the limiter cleanup goroutines.
func (a *app) Close() {
	a.userLimiter.Stop()
	a.authLimiter.Stop()
}
