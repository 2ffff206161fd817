package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow counts requests per client in memory.
//
// State is local to the process: with N instances behind a load balancer the
// effective limit is N * MaxRequests. Use RedisFixedWindow when a shared
// limit is required.
type FixedWindow struct {
	mu      sync.Mutex
	policy  Policy
	windows map[string]*window
}

// NewFixedWindow constructs an in-memory limiter enforcing policy. It panics
// if the policy is invalid.
func NewFixedWindow(policy Policy) *FixedWindow {
	if err := policy.Validate(); err != nil {
		panic(err)
	}
	return &FixedWindow{
		policy:  policy,
		windows: make(map[string]*window),
	}
}

// Policy returns the policy the limiter enforces.
func (l *FixedWindow) Policy() Policy {
	return l.policy
}

// Check records a request for clientID at now.
//
// Expired windows of every client are swept first. A client without a live
// window starts a new one with a count of 1. A client at its limit is
// rejected without touching its window, so rejected requests never extend or
// consume the window.
func (l *FixedWindow) Check(_ context.Context, clientID string, now time.Time) (Decision, error) {
	clientID = normalizeClient(clientID)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	w, ok := l.windows[clientID]
	if !ok {
		w = &window{count: 1, resetAt: now.Add(l.policy.Window)}
		l.windows[clientID] = w
		return Decision{Allowed: true, Remaining: l.policy.MaxRequests - 1, ResetAt: w.resetAt}, nil
	}

	if w.count >= l.policy.MaxRequests {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Decision{Allowed: true, Remaining: l.policy.MaxRequests - w.count, ResetAt: w.resetAt}, nil
}

// Len reports the number of tracked clients.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *FixedWindow) sweepLocked(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
