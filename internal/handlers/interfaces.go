package handlers

import (
	"context"
	"io"

	"github.com/diasporalink/backend/internal/models"
	"github.com/diasporalink/backend/internal/registration"
)

// RegistrationSubmitter runs the visitor sign-up flow.
type RegistrationSubmitter interface {
	Submit(ctx context.Context, sub registration.Submission) (models.Registration, error)
}

// RegistrationStore captures the admin operations on stored registrations.
type RegistrationStore interface {
	List(ctx context.Context, status models.RegistrationStatus) ([]models.Registration, error)
	FindByID(ctx context.Context, id string) (models.Registration, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (models.Registration, error)
	Delete(ctx context.Context, id string) error
}

// SessionManager issues, refreshes and revokes admin sessions.
type SessionManager interface {
	Login(ctx context.Context, password string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// ContentService manages one kind of public content.
type ContentService[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, doc T) (T, error)
	Update(ctx context.Context, id string, doc T) (T, error)
	Delete(ctx context.Context, id string) error
}

// MediaStorage stores uploaded files and returns their public location.
type MediaStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}
