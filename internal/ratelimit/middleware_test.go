package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_Returns429AfterBurst(t *testing.T) {
	rl := NewRateLimiter(Config{RPS: 0.001, Burst: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	h := Middleware(rl, func(r *http.Request) string { return r.Header.Get("X-Key") })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Key", key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do("a")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, do("a").Code)

	blocked := do("a")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &body))
	assert.Equal(t, ErrTooManyRequests, body["error"])

	assert.Equal(t, http.StatusOK, do("b").Code)

	// Empty key is never limited.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("").Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")

	assert.Equal(t, "ip:203.0.113.7", ClientIP(false)(req))
	assert.Equal(t, "ip:198.51.100.1", ClientIP(true)(req))

	req.RemoteAddr = "no-port"
	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "ip:no-port", ClientIP(true)(req))
}
