// Package logutil prepares request data for logging without leaking credentials.
package logutil

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const (
	redacted = "[REDACTED]"

	// MaxValueChars bounds any single logged value.
	MaxValueChars = 512
)

// IsSensitiveLogField returns true when a key likely contains sensitive data.
func IsSensitiveLogField(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")

	switch {
	case normalized == "authorization":
		return true
	case strings.Contains(normalized, "token"):
		return true
	case strings.Contains(normalized, "secret"):
		return true
	case strings.Contains(normalized, "password"):
		return true
	case strings.Contains(normalized, "apikey"):
		return true
	case strings.Contains(normalized, "cookie"):
		return true
	case strings.Contains(normalized, "auth"):
		return true
	default:
		return false
	}
}

// RedactHeaderValue redacts a header value when the key looks sensitive.
func RedactHeaderValue(key, value string) string {
	if IsSensitiveLogField(key) {
		return redacted
	}
	return TruncateForLog(value, MaxValueChars)
}

// FormatHeadersForLog returns stable, redacted header text for logs.
func FormatHeadersForLog(headers http.Header) string {
	if len(headers) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := headers.Values(k)
		if len(values) == 0 {
			parts = append(parts, fmt.Sprintf("%s=<empty>", strings.ToLower(k)))
			continue
		}

		out := make([]string, len(values))
		for i, v := range values {
			out[i] = RedactHeaderValue(k, v)
		}
		parts = append(parts, fmt.Sprintf("%s=%q", strings.ToLower(k), strings.Join(out, ", ")))
	}
	return strings.Join(parts, "; ")
}

// RedactQueryForLog returns the raw query with sensitive parameter values redacted.
func RedactQueryForLog(r *http.Request) string {
	query := r.URL.Query()
	if len(query) == 0 {
		return ""
	}
	for k, values := range query {
		if IsSensitiveLogField(k) {
			for i := range values {
				values[i] = redacted
			}
		}
	}
	return TruncateForLog(query.Encode(), MaxValueChars)
}

// RequestAttrs returns slog key/value pairs describing r, safe to log on failure.
func RequestAttrs(r *http.Request) []any {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"headers", FormatHeadersForLog(r.Header),
	}
	if q := RedactQueryForLog(r); q != "" {
		attrs = append(attrs, "query", q)
	}
	return attrs
}

// TruncateForLog returns a single-line truncated preview for unstructured values.
func TruncateForLog(value string, maxChars int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized := strings.ReplaceAll(trimmed, "\n", "\\n")
	if maxChars <= 0 || len(normalized) <= maxChars {
		return normalized
	}
	return normalized[:maxChars] + "... [truncated]"
}
