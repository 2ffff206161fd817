// Package auth issues and verifies the bearer sessions used by the admin console.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/diasporalink/backend/internal/models"
)

// AdminSubject identifies sessions issued through the admin password login.
const AdminSubject = "admin"

var (
	// ErrSessionNotFound indicates the provided token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrAccessTokenExpired indicates the access token must be refreshed.
	ErrAccessTokenExpired = errors.New("access token expired")
	// ErrInvalidCredentials indicates the login password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SessionStore persists issued tokens so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, refreshToken string) (Session, error)
	FindByAccessToken(ctx context.Context, accessToken string) (Session, error)
	Delete(ctx context.Context, refreshToken string) error
}

// Session is one issued token pair.
type Session struct {
	RefreshToken    string
	AccessToken     string
	Subject         string
	AccessExpiresAt time.Time
	ExpiresAt       time.Time
}

// Manager manages the lifecycle of admin session tokens backed by a persistent store.
type Manager struct {
	passwordHash []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration

	store SessionStore
	now   func() time.Time
}

// NewManager constructs a Manager. passwordHash is the bcrypt hash the login
// password is compared against; an empty hash disables login.
func NewManager(passwordHash string, accessTTL, refreshTTL time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		passwordHash: []byte(passwordHash),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		store:        store,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies the admin password and issues a session.
func (m *Manager) Login(ctx context.Context, password string) (models.SessionTokens, error) {
	if len(m.passwordHash) == 0 || password == "" {
		return models.SessionTokens{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)); err != nil {
		return models.SessionTokens{}, ErrInvalidCredentials
	}
	return m.Issue(ctx, AdminSubject)
}

// Issue creates a new pair of access and refresh tokens for the subject.
func (m *Manager) Issue(ctx context.Context, subject string) (models.SessionTokens, error) {
	if subject == "" {
		return models.SessionTokens{}, errors.New("subject must be provided")
	}

	now := m.now()
	accessToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens := models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}

	if err := m.store.Save(ctx, Session{
		RefreshToken:    refreshToken,
		AccessToken:     accessToken,
		Subject:         subject,
		AccessExpiresAt: tokens.AccessExpiresAt,
		ExpiresAt:       tokens.RefreshExpiresAt,
	}); err != nil {
		return models.SessionTokens{}, err
	}

	return tokens, nil
}

// Refresh exchanges a refresh token for a new session token pair.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, refreshToken)
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	if err := m.store.Delete(ctx, refreshToken); err != nil {
		return models.SessionTokens{}, err
	}

	return m.Issue(ctx, session.Subject)
}

// Authenticate resolves an access token to the subject it was issued for.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", ErrSessionNotFound
	}

	session, err := m.store.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return "", err
	}
	if !m.now().Before(session.AccessExpiresAt) {
		return "", ErrAccessTokenExpired
	}
	return session.Subject, nil
}

// Revoke removes the provided refresh token from the active session store.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	_ = m.store.Delete(ctx, refreshToken)
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
