package registration

import (
	"fmt"
	"time"
)

// RateLimitError rejects a submission whose client exhausted its window.
// The caller may retry after ResetAt.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many registration attempts, retry after %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// PersistenceError wraps a failed insert. Whether the record was written is
// unknown to the caller.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist registration: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
