package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/middleware"
	"github.com/diasporalink/backend/internal/ratelimit"
	"github.com/diasporalink/backend/internal/registration"
	"github.com/diasporalink/backend/internal/validation"
)

const maxRegistrationBody = 64 << 10

// RegistrationHandler implements the public sign-up endpoint.
type RegistrationHandler struct {
	Service RegistrationSubmitter
	NowFunc func() time.Time
}

// Submit handles POST /api/v1/registrations.
func (h RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Service == nil {
		logger.Error("registration service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "registration service unavailable")
		return
	}

	// A malformed body is handed to the service so the rate check runs first.
	var payload map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegistrationBody))
	dec.UseNumber()
	bodyErr := dec.Decode(&payload)

	created, err := h.Service.Submit(ctx, registration.Submission{
		ClientID:      middleware.ClientIdentity(r),
		ClientCountry: middleware.ClientCountry(r),
		Payload:       payload,
		BodyErr:       bodyErr,
	})

	var (
		rateErr        *registration.RateLimitError
		validationErr  *validation.Error
		persistenceErr *registration.PersistenceError
	)
	switch {
	case err == nil:
		respondJSON(ctx, w, http.StatusCreated, created)
	case errors.As(err, &rateErr):
		decision := ratelimit.Decision{Remaining: rateErr.Remaining, ResetAt: rateErr.ResetAt}
		middleware.SetRateLimitHeaders(w, decision)
		w.Header().Set("Retry-After", middleware.RetryAfterSeconds(decision, h.now()))
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts, please try again later")
	case errors.Is(err, registration.ErrInvalidBody):
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
	case errors.As(err, &validationErr):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]any{
			"error":  validationErr.Error(),
			"errors": validationErr.Messages,
		})
	case errors.As(err, &persistenceErr):
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{
			"error":   "failed to save registration",
			"details": persistenceErr.Err.Error(),
		})
	case errors.Is(err, registration.ErrLimiterUnavailable):
		respondError(ctx, w, http.StatusServiceUnavailable, "registration is temporarily unavailable")
	default:
		logger.Error("unexpected registration failure", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to save registration")
	}
}

func (h RegistrationHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
