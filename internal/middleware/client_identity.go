package middleware

import (
	"net/http"
	"strings"

	"github.com/diasporalink/backend/internal/ratelimit"
)

// ClientIdentity derives the best-effort client address used for rate
// limiting. Headers are consulted in order: CF-Connecting-IP, X-Real-IP, then
// the first entry of X-Forwarded-For. Without any of them the client is
// ratelimit.UnknownClient, which all such callers share.
func ClientIdentity(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return ratelimit.UnknownClient
}

// ClientCountry returns the edge-reported ISO country code, if any.
func ClientCountry(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("CF-IPCountry"))
}
