package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/ratelimit"
)

// RejectionRecorder counts requests refused by a named policy.
type RejectionRecorder interface {
	RecordRejection(policy string)
}

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	// Policy names the limiter in logs and metrics.
	Policy   string
	Recorder RejectionRecorder
	Now      func() time.Time
}

// RateLimit enforces limiter per client identity. Allowed responses carry
// X-RateLimit-Remaining and X-RateLimit-Reset; rejected ones are 429 with
// Retry-After. If the limiter store fails the request is let through.
func RateLimit(limiter ratelimit.Limiter, opts RateLimitOptions) func(http.Handler) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			at := now()

			decision, err := limiter.Check(ctx, ClientIdentity(r), at)
			if err != nil {
				logging.FromContext(ctx).Warn("rate limiter unavailable, allowing request", "policy", opts.Policy, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			SetRateLimitHeaders(w, decision)
			if !decision.Allowed {
				logging.FromContext(ctx).Warn("rate limit exceeded", "policy", opts.Policy, "reset_at", decision.ResetAt)
				if opts.Recorder != nil {
					opts.Recorder.RecordRejection(opts.Policy)
				}
				w.Header().Set("Retry-After", RetryAfterSeconds(decision, at))
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests, please try again later"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetRateLimitHeaders exposes the remaining budget and window reset time.
func SetRateLimitHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
}

// RetryAfterSeconds formats the Retry-After header value for decision.
func RetryAfterSeconds(decision ratelimit.Decision, now time.Time) string {
	return strconv.Itoa(int(decision.RetryAfter(now) / time.Second))
}
