// Package config provides centralized configuration management for the notes API.
// It loads configuration from CLI flags and environment variables (optionally
// seeded from a .env file), validates required fields, and provides sensible
// defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kuitang/notes-api/internal/ratelimit"
)

const (
	defaultPort        = "3000"
	defaultDBPath      = "./notes.db"
	defaultJWTExpiry   = 7 * 24 * time.Hour
	defaultBcryptCost  = 10
	defaultS3Region    = "auto"
	minJWTSecretLength = 16
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr  string
	BaseURL     string
	CORSOrigins []string
	TrustProxy  bool // Use X-Forwarded-For for per-client rate limiting

	// Database
	DatabasePath string

	// Auth
	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	// Rate limiting
	RateLimitConfig     ratelimit.Config // per user, note routes
	AuthRateLimitConfig ratelimit.Config // per client address, register/login

	// Export storage (optional; exports are disabled without a bucket)
	ExportBucket       string // EXPORT_BUCKET
	AWSEndpointS3      string // AWS_ENDPOINT_URL_S3
	AWSRegion          string // AWS_REGION
	AWSAccessKeyID     string // AWS_ACCESS_KEY_ID
	AWSSecretAccessKey string // AWS_SECRET_ACCESS_KEY
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
// This registers and parses the --addr and --db flags.
func ParseFlags() (addr, dbPath string) {
	flag.StringVar(&addr, "addr", "", "Listen address (default :PORT, overrides PORT env var)")
	flag.StringVar(&dbPath, "db", "", "SQLite database file (overrides DB_PATH env var)")
	flag.Parse()
	return addr, dbPath
}

// LoadConfig loads configuration from environment variables and CLI flag values.
// Non-empty addr and dbPath override PORT and DB_PATH.
func LoadConfig(addr, dbPath string) (*Config, error) {
	cfg := &Config{}

	// Server settings
	port := getEnvOrDefault("PORT", defaultPort)
	cfg.ListenAddr = ":" + port
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BaseURL = strings.TrimRight(getEnvOrDefault("BASE_URL", defaultBaseURL(cfg.ListenAddr)), "/")
	cfg.CORSOrigins = splitList(getEnvOrDefault("CORS_ORIGINS", "*"))
	cfg.TrustProxy = parseBoolOrDefault("TRUST_PROXY", false)

	// Database
	cfg.DatabasePath = getEnvOrDefault("DB_PATH", defaultDBPath)
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	// Auth
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.JWTExpiresIn = defaultJWTExpiry
	if raw := getEnvOrDefault("JWT_EXPIRES_IN", ""); raw != "" {
		d, err := ParseExpiry(raw)
		if err != nil {
			return nil, &ValidationError{Errors: []string{fmt.Sprintf("JWT_EXPIRES_IN: %v", err)}}
		}
		cfg.JWTExpiresIn = d
	}
	cfg.BcryptCost = parseIntOrDefault("BCRYPT_COST", defaultBcryptCost)

	// Rate limiting
	cleanup := parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", ratelimit.DefaultConfig.RPS),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", ratelimit.DefaultConfig.Burst),
		CleanupInterval: cleanup,
	}
	cfg.AuthRateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("AUTH_RATE_LIMIT_RPS", ratelimit.DefaultAuthConfig.RPS),
		Burst:           parseIntOrDefault("AUTH_RATE_LIMIT_BURST", ratelimit.DefaultAuthConfig.Burst),
		CleanupInterval: cleanup,
	}

	// Export storage
	cfg.ExportBucket = getEnvOrDefault("EXPORT_BUCKET", "")
	cfg.AWSEndpointS3 = getEnvOrDefault("AWS_ENDPOINT_URL_S3", "")
	cfg.AWSRegion = getEnvOrDefault("AWS_REGION", defaultS3Region)
	cfg.AWSAccessKeyID = getEnvOrDefault("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretAccessKey = getEnvOrDefault("AWS_SECRET_ACCESS_KEY", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required (generate with: openssl rand -hex 32)")
	} else if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, "JWT_EXPIRES_IN must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, "BCRYPT_COST must be between 4 and 31")
	}
	if c.DatabasePath == "" {
		errs = append(errs, "DB_PATH must not be empty")
	}

	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}
	if c.AuthRateLimitConfig.RPS <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_RPS must be positive")
	}
	if c.AuthRateLimitConfig.Burst <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_BURST must be positive")
	}

	// Credentials come as a pair or not at all (the SDK chain covers "not at all").
	if c.ExportsEnabled() && (c.AWSAccessKeyID == "") != (c.AWSSecretAccessKey == "") {
		errs = append(errs, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// ExportsEnabled reports whether an export bucket is configured.
func (c *Config) ExportsEnabled() bool {
	return c.ExportBucket != ""
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "notes-api server starting...")
	fmt.Fprintf(os.Stderr, "  DB:      %s\n", c.DatabasePath)
	fmt.Fprintf(os.Stderr, "  Tokens:  HS256, valid for %s\n", c.JWTExpiresIn)

	if c.ExportsEnabled() {
		endpoint := c.AWSEndpointS3
		if endpoint == "" {
			endpoint = "AWS default"
		}
		fmt.Fprintf(os.Stderr, "  Exports: s3://%s (endpoint: %s)\n", c.ExportBucket, endpoint)
	} else {
		fmt.Fprintln(os.Stderr, "  Exports: disabled (EXPORT_BUCKET not set)")
	}

	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintf(os.Stderr, "  Base:    %s\n", c.BaseURL)
	fmt.Fprintln(os.Stderr, "")
}

// ParseExpiry parses a token lifetime. It accepts "<n>d" for days, any Go
// duration ("12h", "90m"), or a bare number of seconds.
func ParseExpiry(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty duration")
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid seconds %q", raw)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return d, nil
}

func defaultBaseURL(listenAddr string) string {
	if strings.HasPrefix(listenAddr, ":") {
		return "http://localhost" + listenAddr
	}
	return "http://" + listenAddr
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoadConfig loads configuration and panics if validation fails.
// Use this in main() when you want the application to fail fast on bad config.
func MustLoadConfig(addr, dbPath string) *Config {
	cfg, err := LoadConfig(addr, dbPath)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
