package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/diasporalink/backend/internal/auth"
	"github.com/diasporalink/backend/internal/logging"
)

// Authenticator resolves bearer access tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// RequireAdmin admits only requests carrying a valid admin access token.
func RequireAdmin(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}

			subject, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrAccessTokenExpired) {
					logger.Warn("admin authentication rejected", "error", err)
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
					return
				}
				logger.Error("admin authentication failed", "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unable to verify session"})
				return
			}

			if subject != auth.AdminSubject {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
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
