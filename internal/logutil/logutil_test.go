package logutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIsSensitiveLogField(t *testing.T) {
	t.Parallel()
	for _, k := range []string{"Authorization", "X-Api-Key", "Cookie", "Set-Cookie", "password", "jwt_token", "Client-Secret"} {
		assert.True(t, IsSensitiveLogField(k), k)
	}
	for _, k := range []string{"Content-Type", "Accept", "X-Request-Id", "search", "tag"} {
		assert.False(t, IsSensitiveLogField(k), k)
	}
}

func TestFormatHeadersForLog_RedactsAndSorts(t *testing.T) {
	t.Parallel()
	h := http.Header{}
	h.Set("Authorization", "Bearer abc.def.ghi")
	h.Set("Accept", "application/json")

	got := FormatHeadersForLog(h)
	assert.Equal(t, `accept="application/json"; authorization="[REDACTED]"`, got)
	assert.Equal(t, "{}", FormatHeadersForLog(nil))
}

func TestRequestAttrs_RedactsQueryTokens(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/api/notes?search=milk&token=s3cr3t", nil)
	attrs := RequestAttrs(req)

	joined := ""
	for _, a := range attrs {
		if s, ok := a.(string); ok {
			joined += s + " "
		}
	}
	assert.Contains(t, joined, "search=milk")
	assert.NotContains(t, joined, "s3cr3t")
}

// Property: truncated output never exceeds the limit plus the marker and is single-line.
func TestTruncateForLog_Properties(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.String().Draw(t, "value")
		limit := rapid.IntRange(1, 64).Draw(t, "limit")
		got := TruncateForLog(value, limit)
		if strings.Contains(got, "\n") {
			t.Fatalf("output contains a newline: %q", got)
		}
		if len(got) > limit+len("... [truncated]") {
			t.Fatalf("output too long: %d > %d", len(got), limit)
		}
	})
}
