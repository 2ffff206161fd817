package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diasporalink/backend/internal/models"
	"github.com/diasporalink/backend/internal/ratelimit"
	"github.com/diasporalink/backend/internal/registration"
)

type memoryRegistrationStore struct {
	records map[string]models.Registration
	err     error
}

func newMemoryRegistrationStore() *memoryRegistrationStore {
	return &memoryRegistrationStore{records: make(map[string]models.Registration)}
}

func (s *memoryRegistrationStore) Create(_ context.Context, reg models.Registration) (models.Registration, error) {
	if s.err != nil {
		return models.Registration{}, s.err
	}
	s.records[reg.ID] = reg
	return reg, nil
}

var handlerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRegistrationHandler(store registration.Store) RegistrationHandler {
	clock := func() time.Time { return handlerNow }
	svc := registration.NewService(ratelimit.NewFixedWindow(ratelimit.RegistrationPolicy), store, registration.WithClock(clock))
	return RegistrationHandler{Service: svc, NowFunc: clock}
}

const validRegistrationBody = `{
	"name": "Kwame Mensah",
	"email": "kwame@example.com",
	"whatsapp": "+233 24 123 4567",
	"countryOfOrigin": "Ghana",
	"countryOfResidence": "Canada",
	"location": {"latitude": 43.65, "longitude": -79.38}
}`

func postRegistration(h RegistrationHandler, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", strings.NewReader(body))
	req.Header.Set("CF-Connecting-IP", ip)
	req.Header.Set("CF-IPCountry", "CA")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestRegistrationHandlerCreated(t *testing.T) {
	store := newMemoryRegistrationStore()
	handler := newRegistrationHandler(store)

	rec := postRegistration(handler, validRegistrationBody, "203.0.113.5")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created models.Registration
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || created.Status != models.StatusPending {
		t.Fatalf("unexpected record %+v", created)
	}
	if created.Location == nil || created.Location.Latitude != 43.65 {
		t.Fatalf("expected location stored got %+v", created.Location)
	}
	if created.ClientIP != "203.0.113.5" || created.ClientCountry != "CA" {
		t.Fatalf("expected client metadata got %+v", created)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one stored record got %d", len(store.records))
	}
}

func TestRegistrationHandlerValidationFailure(t *testing.T) {
	handler := newRegistrationHandler(newMemoryRegistrationStore())

	rec := postRegistration(handler, `{"name": "K", "email": "not-an-email"}`, "203.0.113.6")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}

	var body struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Errors) == 0 || body.Error != strings.Join(body.Errors, "; ") {
		t.Fatalf("expected joined messages got %+v", body)
	}
	if body.Errors[0] != "name must be at least 2 characters" || body.Errors[1] != "email must be a valid email" {
		t.Fatalf("unexpected messages %v", body.Errors)
	}
}

func TestRegistrationHandlerSixthSubmissionRateLimited(t *testing.T) {
	handler := newRegistrationHandler(newMemoryRegistrationStore())

	for i := 0; i < 5; i++ {
		if rec := postRegistration(handler, validRegistrationBody, "198.51.100.20"); rec.Code != http.StatusCreated {
			t.Fatalf("submission %d: expected 201 got %d", i+1, rec.Code)
		}
	}

	rec := postRegistration(handler, `{"email": "broken"}`, "198.51.100.20")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "900" {
		t.Fatalf("expected Retry-After 900 got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected no remaining budget got %q", got)
	}
	if strings.Contains(rec.Body.String(), "valid email") || strings.Contains(rec.Body.String(), "required") {
		t.Fatalf("validation messages leaked into rate-limit response: %s", rec.Body.String())
	}

	if rec := postRegistration(handler, validRegistrationBody, "198.51.100.21"); rec.Code != http.StatusCreated {
		t.Fatalf("expected other client unaffected got %d", rec.Code)
	}
}

func TestRegistrationHandlerMalformedBodyAfterBudgetRateLimited(t *testing.T) {
	handler := newRegistrationHandler(newMemoryRegistrationStore())

	for i := 0; i < 5; i++ {
		if rec := postRegistration(handler, validRegistrationBody, "198.51.100.30"); rec.Code != http.StatusCreated {
			t.Fatalf("submission %d: expected 201 got %d", i+1, rec.Code)
		}
	}

	rec := postRegistration(handler, `not json`, "198.51.100.30")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRegistrationHandlerMalformedBodiesConsumeBudget(t *testing.T) {
	handler := newRegistrationHandler(newMemoryRegistrationStore())

	for i := 0; i < 5; i++ {
		if rec := postRegistration(handler, `not json`, "198.51.100.31"); rec.Code != http.StatusBadRequest {
			t.Fatalf("malformed submission %d: expected 400 got %d", i+1, rec.Code)
		}
	}

	if rec := postRegistration(handler, validRegistrationBody, "198.51.100.31"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after five malformed submissions got %d", rec.Code)
	}
}

func TestRegistrationHandlerPersistenceFailure(t *testing.T) {
	store := newMemoryRegistrationStore()
	store.err = errors.New("insert registration: connection refused")
	handler := newRegistrationHandler(store)

	rec := postRegistration(handler, validRegistrationBody, "203.0.113.7")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "failed to save registration" || !strings.Contains(body["details"], "connection refused") {
		t.Fatalf("unexpected body %v", body)
	}
}

type unavailableLimiter struct{}

func (unavailableLimiter) Check(context.Context, string, time.Time) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, ratelimit.ErrStoreUnavailable
}

func TestRegistrationHandlerLimiterUnavailable(t *testing.T) {
	handler := RegistrationHandler{Service: registration.NewService(unavailableLimiter{}, newMemoryRegistrationStore())}

	rec := postRegistration(handler, validRegistrationBody, "203.0.113.8")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 got %d", rec.Code)
	}
}

func TestRegistrationHandlerInvalidBody(t *testing.T) {
	handler := newRegistrationHandler(newMemoryRegistrationStore())

	for _, body := range []string{`not json`, `null`, `["a"]`} {
		rec := postRegistration(handler, body, "203.0.113.9")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400 got %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid request body") {
			t.Fatalf("body %q: unexpected response %s", body, rec.Body.String())
		}
	}
}
