// Package urlutil resolves the public origin a request arrived on.
package urlutil

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginFromRequest returns the request origin (scheme + host), or fallback
// when the host cannot be resolved. Forwarded headers are honored only when
// trustProxy is set.
func OriginFromRequest(r *http.Request, fallback string, trustProxy bool) string {
	base := normalizeBaseURL(fallback)
	if r == nil {
		return base
	}

	host := strings.TrimSpace(r.Host)
	if trustProxy {
		if fwd := firstHop(r.Header.Get("X-Forwarded-Host")); fwd != "" {
			host = fwd
		}
	}
	if host == "" || !validHost(host) {
		return base
	}

	return normalizeBaseURL(requestScheme(r, trustProxy) + "://" + host)
}

// BuildAbsolute builds an absolute URL from a base origin and a path.
func BuildAbsolute(base, path string) string {
	base = normalizeBaseURL(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

func requestScheme(r *http.Request, trustProxy bool) string {
	if trustProxy {
		proto := firstHop(r.Header.Get("X-Forwarded-Proto"))
		if proto == "http" || proto == "https" {
			return proto
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func firstHop(v string) string {
	if comma := strings.Index(v, ","); comma >= 0 {
		v = v[:comma]
	}
	return strings.TrimSpace(v)
}

// validHost rejects hosts that would not survive as the authority of a URL.
func validHost(host string) bool {
	u, err := url.Parse("http://" + host)
	return err == nil && u.Host == host && u.Path == "" && u.User == nil
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
