// Package ratelimit bounds request volume per client with fixed windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UnknownClient is the identity used when no client address can be derived.
const UnknownClient = "unknown"

// ErrStoreUnavailable indicates the backing counter store could not be reached.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Policy caps a client to MaxRequests within each Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

var (
	// DefaultPolicy applies to general endpoints.
	DefaultPolicy = Policy{MaxRequests: 10, Window: 15 * time.Minute}
	// RegistrationPolicy applies to visitor sign-up submissions.
	RegistrationPolicy = Policy{MaxRequests: 5, Window: 15 * time.Minute}
)

// Validate reports whether the policy can be enforced.
func (p Policy) Validate() error {
	if p.MaxRequests <= 0 {
		return fmt.Errorf("rate limit: max requests must be positive, got %d", p.MaxRequests)
	}
	if p.Window <= 0 {
		return fmt.Errorf("rate limit: window must be positive, got %s", p.Window)
	}
	return nil
}

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a rejected client should wait, rounded up to
// whole seconds and never less than one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= time.Second {
		return time.Second
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

// Limiter decides whether a client may proceed.
type Limiter interface {
	Check(ctx context.Context, clientID string, now time.Time) (Decision, error)
}

func normalizeClient(clientID string) string {
	if clientID == "" {
		return UnknownClient
	}
	return clientID
}
