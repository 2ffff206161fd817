// Package registration runs the visitor sign-up flow: rate check, validation,
// sanitization and a single persistence attempt.
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/models"
	"github.com/diasporalink/backend/internal/ratelimit"
	"github.com/diasporalink/backend/internal/sanitize"
	"github.com/diasporalink/backend/internal/validation"
)

// ErrLimiterUnavailable indicates the rate limiter could not be consulted.
// Submissions are refused rather than admitted unchecked.
var ErrLimiterUnavailable = errors.New("registration rate limiter unavailable")

// ErrInvalidBody rejects a submission whose body could not be decoded into a
// JSON object. It is reported only after the rate check admitted the client.
var ErrInvalidBody = errors.New("invalid request body")

// Schema is the field policy for a registration payload.
var Schema = validation.Schema{
	{Name: "name", Rules: []validation.Rule{validation.Required(), validation.String(2, 100)}},
	{Name: "email", Rules: []validation.Rule{validation.Required(), validation.Email()}},
	{Name: "whatsapp", Rules: []validation.Rule{validation.Required(), validation.Phone()}},
	{Name: "countryOfOrigin", Rules: []validation.Rule{validation.Required(), validation.OneOf("country", Countries...)}},
	{Name: "countryOfResidence", Rules: []validation.Rule{validation.Required(), validation.OneOf("country", Countries...)}},
}

const locationMessage = "location must contain a valid latitude and longitude"

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

// Stage names a step of a single submission.
type Stage string

const (
	StageReceived    Stage = "received"
	StageRateChecked Stage = "rate_checked"
	StageValidated   Stage = "validated"
	StageSanitized   Stage = "sanitized"
	StagePersisted   Stage = "persisted"
)

// Outcome is the terminal state of a submission.
type Outcome string

const (
	OutcomePersisted          Outcome = "persisted"
	OutcomeRateLimited        Outcome = "rate_limited"
	OutcomeValidationFailed   Outcome = "validation_failed"
	OutcomePersistenceError   Outcome = "persistence_error"
	OutcomeLimiterUnavailable Outcome = "limiter_unavailable"
)

// Store inserts a registration and returns the stored record.
type Store interface {
	Create(ctx context.Context, registration models.Registration) (models.Registration, error)
}

// Recorder observes submission outcomes.
type Recorder interface {
	RecordSubmission(outcome Outcome)
}

// Submission is one incoming sign-up request.
type Submission struct {
	// ClientID is the best-effort client address used as the rate-limit key.
	ClientID string
	// ClientCountry is an optional ISO 3166 alpha-2 code reported by the edge.
	ClientCountry string
	Payload       map[string]any
	// BodyErr is the decode failure of the request body, if any. The
	// submission still counts against the client's window.
	BodyErr error
}

// Service orchestrates registration submissions.
type Service struct {
	limiter  ratelimit.Limiter
	store    Store
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecorder attaches an outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithIDGenerator overrides how record identifiers are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService constructs a Service. limiter should enforce the registration
// policy (ratelimit.RegistrationPolicy unless configured otherwise).
func NewService(limiter ratelimit.Limiter, store Store, opts ...Option) *Service {
	s := &Service{
		limiter: limiter,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one submission to a terminal state. It returns the stored
// record, or one of *RateLimitError, ErrInvalidBody, *validation.Error,
// *PersistenceError or ErrLimiterUnavailable. Nothing is retried.
func (s *Service) Submit(ctx context.Context, sub Submission) (models.Registration, error) {
	ctx, span := logging.StartSpan(ctx, "registration.submit")
	defer span.End()
	logger := logging.FromContext(ctx)
	logger.Debug("registration stage", "stage", StageReceived)

	decision, err := s.limiter.Check(ctx, sub.ClientID, s.now())
	if err != nil {
		logger.Error("registration limiter check failed", "error", err)
		s.record(OutcomeLimiterUnavailable)
		return models.Registration{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if !decision.Allowed {
		logger.Warn("registration rate limited", "client_id", sub.ClientID, "reset_at", decision.ResetAt)
		s.record(OutcomeRateLimited)
		return models.Registration{}, &RateLimitError{ResetAt: decision.ResetAt, Remaining: decision.Remaining}
	}
	logger.Debug("registration stage", "stage", StageRateChecked, "remaining", decision.Remaining)

	if sub.BodyErr != nil || sub.Payload == nil {
		logger.Warn("invalid registration payload", "error", sub.BodyErr)
		s.record(OutcomeValidationFailed)
		if sub.BodyErr != nil {
			return models.Registration{}, fmt.Errorf("%w: %v", ErrInvalidBody, sub.BodyErr)
		}
		return models.Registration{}, ErrInvalidBody
	}

	result := validation.Validate(sub.Payload, Schema)
	location, ok := parseLocation(sub.Payload["location"])
	if !ok {
		result.Valid = false
		result.Errors = append(result.Errors, locationMessage)
	}
	if !result.Valid {
		logger.Warn("registration validation failed", "errors", result.Errors)
		s.record(OutcomeValidationFailed)
		return models.Registration{}, result.Err()
	}
	logger.Debug("registration stage", "stage", StageValidated)

	now := s.now()
	record := models.Registration{
		ID:                 s.newID(),
		Name:               clean(sub.Payload["name"]),
		Email:              clean(sub.Payload["email"]),
		WhatsApp:           clean(sub.Payload["whatsapp"]),
		CountryOfOrigin:    clean(sub.Payload["countryOfOrigin"]),
		CountryOfResidence: clean(sub.Payload["countryOfResidence"]),
		Location:           location,
		Status:             models.StatusPending,
	}
	logger.Debug("registration stage", "stage", StageSanitized)

	if sub.ClientID != ratelimit.UnknownClient {
		record.ClientIP = sub.ClientID
	}
	if code := strings.ToUpper(strings.TrimSpace(sub.ClientCountry)); countryCode.MatchString(code) {
		record.ClientCountry = code
	}
	record.SubmittedAt = now
	record.UpdatedAt = now

	created, err := s.store.Create(ctx, record)
	if err != nil {
		logger.Error("registration persistence failed", "error", err, "registration_id", record.ID)
		s.record(OutcomePersistenceError)
		return models.Registration{}, &PersistenceError{Err: err}
	}

	logger.Info("registration stored", "stage", StagePersisted, "registration_id", created.ID)
	s.record(OutcomePersisted)
	return created, nil
}

func (s *Service) record(outcome Outcome) {
	if s.recorder != nil {
		s.recorder.RecordSubmission(outcome)
	}
}

func clean(value any) string {
	str, _ := value.(string)
	return strings.TrimSpace(sanitize.Sanitize(str))
}

// parseLocation accepts an absent location or an object with in-range
// numeric latitude and longitude.
func parseLocation(value any) (*models.GeoLocation, bool) {
	if value == nil {
		return nil, true
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	lat, latOK := number(obj["latitude"])
	lng, lngOK := number(obj["longitude"])
	if !latOK || !lngOK || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, false
	}
	return &models.GeoLocation{Latitude: lat, Longitude: lng}, true
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	}
	return 0, false
}
