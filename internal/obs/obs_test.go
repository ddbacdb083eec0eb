package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContextMiddleware_GeneratesRequestID(t *testing.T) {
	var seen Correlation
	h := RequestContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, strings.HasPrefix(seen.RequestID, "req-"), "got %q", seen.RequestID)
	assert.Equal(t, seen.RequestID, rec.Header().Get("X-Request-Id"))
}

func TestRequestContextMiddleware_HonorsIncomingIDs(t *testing.T) {
	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	var seen Correlation
	h := RequestContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", traceparent)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", seen.TraceID)
	assert.Equal(t, seen.TraceID, seen.RequestID)
	assert.Equal(t, traceparent, rec.Header().Get("traceparent"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen.RequestID)
}

func TestAccessLog_CarriesUserIDSetDownstream(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutputForTests(&buf)
	defer restore()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithUserID(r.Context(), 42)
		From(ctx).Info("inner")
		w.WriteHeader(http.StatusTeapot)
	})
	h := RequestContextMiddleware(AccessLogMiddleware("test", inner))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var innerLine, access map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &innerLine))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &access))

	assert.Equal(t, "42", innerLine["user_id"])
	assert.Equal(t, "http_access", access["msg"])
	assert.EqualValues(t, 42, access["user_id"])
	assert.EqualValues(t, http.StatusTeapot, access["status"])
	assert.NotEmpty(t, access["request_id"])
}

func TestExtractTraceID_RejectsMalformed(t *testing.T) {
	t.Parallel()
	for _, tp := range []string{"", "garbage", "00-zz-00-01", "00-00000000000000000000000000000000-00f067aa0ba902b7-01"} {
		assert.Empty(t, extractTraceID(tp), tp)
	}
}
